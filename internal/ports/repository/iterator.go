package repository

import "github.com/rowkit/userstream/internal/application/core/domain"

// Iterator is a contract to pass along a set of items orchestrating its progress.
type Iterator interface {
	// Next advances the iterator. If no more items are available or an error occurs, calls to Next() return false.
	Next() bool
	// Error returns the last error encountered by the Iterator.
	Error() error
	// Close releases any resources associated with an Iterator.
	Close() error
}

// UserIterator is implemented by structs that can iterate the user table one row at a time.
type UserIterator interface {
	Iterator

	// User returns the currently fetched domain.User struct.
	User() *domain.User
}

// UserBatchIterator is implemented by structs that yield whole pages of
// domain.User instead of individual rows, for callers that operate on a
// window at a time.
type UserBatchIterator interface {
	Iterator

	// Batch returns the currently fetched page. Only the final page of a
	// traversal may be shorter than the configured page size.
	Batch() []*domain.User
}
