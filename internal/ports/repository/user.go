package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rowkit/userstream/internal/application/core/domain"
)

// PageFunc is the fetch primitive the streaming iterators are built on. It
// returns up to pageSize rows starting at offset, in stable source order.
// A call returns fewer than pageSize rows (including zero) only at end of
// data.
type PageFunc func(pageSize, offset int) ([]*domain.User, error)

// UserRepository is the port to manage and lazily stream the rows of the
// user table.
type UserRepository interface {
	// Upsert updates an existing entry or inserts it if it does not exist.
	// Rows are keyed by email; upserting an email that already exists
	// updates the name and age of the stored row.
	Upsert(user *domain.User) error
	// Find retrieves a domain.User using its uuid.
	Find(id uuid.UUID) (*domain.User, error)
	// Count reports the number of rows currently in the table.
	Count() (int, error)

	// FetchPage retrieves one page of users starting at offset. It is the
	// PageFunc for this repository.
	FetchPage(pageSize, offset int) ([]*domain.User, error)
	// StreamUsers returns a lazy row-at-a-time iterator over the whole
	// table, fetched in pages of at most pageSize.
	StreamUsers(pageSize int) (UserIterator, error)
	// StreamBatches returns a lazy iterator yielding whole pages of at most
	// pageSize users.
	StreamBatches(pageSize int) (UserBatchIterator, error)
}

var (
	// UserErrNotFound is returned when looking up a user that does not exist.
	UserErrNotFound = errors.New("not found")

	// UserErrInvalidPageSize is returned when a traversal or page fetch is
	// requested with a page size smaller than one.
	UserErrInvalidPageSize = errors.New("page size must be positive")

	// UserErrInvalidOffset is returned when a page fetch is requested at a
	// negative offset.
	UserErrInvalidOffset = errors.New("offset must not be negative")

	// UserErrEmailRequired is returned when attempting to upsert a user
	// without an email.
	UserErrEmailRequired = errors.New("user does not provide an email")

	// UserErrDuplicateID is returned when an upsert collides with an
	// existing row under a different email.
	UserErrDuplicateID = errors.New("user ID already belongs to another row")
)
