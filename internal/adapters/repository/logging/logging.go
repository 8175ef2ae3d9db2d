// Package logging decorates a repository.UserRepository so that every
// operation, including each page fetch of a traversal, is logged with its
// duration and outcome.
package logging

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/application/core/stream"
	"github.com/rowkit/userstream/internal/ports/repository"
)

type UserRepository struct {
	next repository.UserRepository
	log  *slog.Logger
}

// NewUserRepository wraps next. A nil logger falls back to slog.Default().
func NewUserRepository(next repository.UserRepository, log *slog.Logger) repository.UserRepository {
	if log == nil {
		log = slog.Default()
	}
	return &UserRepository{next: next, log: log}
}

func (r *UserRepository) Upsert(user *domain.User) error {
	start := time.Now()
	err := r.next.Upsert(user)
	r.logOp("upsert user", start, err, "email", user.Email)
	return err
}

func (r *UserRepository) Find(id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := r.next.Find(id)
	r.logOp("find user", start, err, "id", id.String())
	return user, err
}

func (r *UserRepository) Count() (int, error) {
	start := time.Now()
	n, err := r.next.Count()
	r.logOp("count users", start, err, "count", n)
	return n, err
}

func (r *UserRepository) FetchPage(pageSize, offset int) ([]*domain.User, error) {
	start := time.Now()
	page, err := r.next.FetchPage(pageSize, offset)
	r.logOp("fetch page", start, err, "page_size", pageSize, "offset", offset, "rows", len(page))
	return page, err
}

// StreamUsers builds the iterator over the decorated FetchPage so that every
// page fetch of the traversal is logged too.
func (r *UserRepository) StreamUsers(pageSize int) (repository.UserIterator, error) {
	it, err := stream.NewUserIterator(r.FetchPage, pageSize)
	if err != nil {
		r.log.Error("stream users", "page_size", pageSize, "error", err)
		return nil, err
	}
	r.log.Debug("stream users", "page_size", pageSize)
	return it, nil
}

func (r *UserRepository) StreamBatches(pageSize int) (repository.UserBatchIterator, error) {
	it, err := stream.NewBatchIterator(r.FetchPage, pageSize)
	if err != nil {
		r.log.Error("stream batches", "page_size", pageSize, "error", err)
		return nil, err
	}
	r.log.Debug("stream batches", "page_size", pageSize)
	return it, nil
}

func (r *UserRepository) logOp(op string, start time.Time, err error, args ...any) {
	args = append(args, "took", time.Since(start))
	if err != nil {
		args = append(args, "error", err)
		r.log.Error(op, args...)
		return
	}
	r.log.Debug(op, args...)
}
