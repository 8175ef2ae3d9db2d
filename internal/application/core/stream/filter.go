package stream

import (
	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/ports/repository"
)

// Predicate reports whether a user should be kept by FilterBatch.
type Predicate func(*domain.User) bool

// OlderThan returns a Predicate keeping users strictly older than minAge.
func OlderThan(minAge float64) Predicate {
	return func(u *domain.User) bool {
		return u.Age > minAge
	}
}

// FilterBatch returns the users of batch matching keep, preserving order.
// The input batch is not modified.
func FilterBatch(batch []*domain.User, keep Predicate) []*domain.User {
	var out []*domain.User
	for _, u := range batch {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// ProcessBatches drains it, filters every page with keep and hands each
// non-empty filtered page to fn. The iterator is closed regardless of
// outcome. Returning an error from fn aborts the traversal.
func ProcessBatches(it repository.UserBatchIterator, keep Predicate, fn func([]*domain.User) error) error {
	defer it.Close()

	for it.Next() {
		kept := FilterBatch(it.Batch(), keep)
		if len(kept) == 0 {
			continue
		}
		if err := fn(kept); err != nil {
			return err
		}
	}
	return it.Error()
}
