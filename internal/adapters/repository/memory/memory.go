package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/application/core/stream"
	"github.com/rowkit/userstream/internal/ports/repository"
)

// InMemoryUserRepository is a repository.UserRepository that keeps the user
// table in process memory. Rows are kept in insertion order so page fetches
// behave like the SQL adapter's.
type InMemoryUserRepository struct {
	mu sync.RWMutex

	users   []*domain.User
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
}

func NewInMemoryUserRepository() repository.UserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Upsert(user *domain.User) error {
	if user.Email == "" {
		return fmt.Errorf("upsert user: %w", repository.UserErrEmailRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.byEmail[user.Email]; existing != nil {
		existing.Name = user.Name
		existing.Age = user.Age
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		return nil
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	} else if r.byID[user.ID] != nil {
		return fmt.Errorf("upsert user: %w", repository.UserErrDuplicateID)
	}
	user.CreatedAt = time.Now().Truncate(time.Microsecond).UTC()

	ucopy := new(domain.User)
	*ucopy = *user
	r.users = append(r.users, ucopy)
	r.byID[ucopy.ID] = ucopy
	r.byEmail[ucopy.Email] = ucopy
	return nil
}

func (r *InMemoryUserRepository) Find(id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byID[id]
	if stored == nil {
		return nil, fmt.Errorf("find user: %w", repository.UserErrNotFound)
	}

	// Clone so later upserts cannot mutate what the caller holds.
	user := new(domain.User)
	*user = *stored
	return user, nil
}

func (r *InMemoryUserRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *InMemoryUserRepository) FetchPage(pageSize, offset int) ([]*domain.User, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("fetch page: %w", repository.UserErrInvalidPageSize)
	}
	if offset < 0 {
		return nil, fmt.Errorf("fetch page: %w", repository.UserErrInvalidOffset)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.users) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(r.users) {
		end = len(r.users)
	}

	page := make([]*domain.User, 0, end-offset)
	for _, stored := range r.users[offset:end] {
		user := new(domain.User)
		*user = *stored
		page = append(page, user)
	}
	return page, nil
}

func (r *InMemoryUserRepository) StreamUsers(pageSize int) (repository.UserIterator, error) {
	return stream.NewUserIterator(r.FetchPage, pageSize)
}

func (r *InMemoryUserRepository) StreamBatches(pageSize int) (repository.UserBatchIterator, error) {
	return stream.NewBatchIterator(r.FetchPage, pageSize)
}
