// Package stream implements lazy, memory-bounded iteration over an
// offset-paged row source. Both iterators are built on the same
// repository.PageFunc fetch primitive and hold at most one page in memory:
// the next page is fetched only once the previously yielded one is
// exhausted, and a traversal terminates when a fetch returns an empty page.
package stream

import (
	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/ports/repository"
	"golang.org/x/xerrors"
)

// userIterator flattens successive pages into a single lazy sequence of
// rows, preserving source order.
type userIterator struct {
	fetch    repository.PageFunc
	pageSize int
	offset   int

	page    []*domain.User
	pageIdx int

	latchedUser *domain.User
	lastErr     error
	done        bool
}

// NewUserIterator returns a row-at-a-time iterator over fetch. The iterator
// owns its cursor; restarting a traversal means creating a new iterator.
func NewUserIterator(fetch repository.PageFunc, pageSize int) (repository.UserIterator, error) {
	if pageSize <= 0 {
		return nil, xerrors.Errorf("stream users: %w", repository.UserErrInvalidPageSize)
	}
	return &userIterator{fetch: fetch, pageSize: pageSize}, nil
}

// Next loads the next row, fetching a new page when the buffered one is
// spent. It returns false once the source is exhausted or a fetch fails.
func (it *userIterator) Next() bool {
	if it.lastErr != nil || it.done {
		return false
	}

	// Do we need to fetch the next page?
	if it.pageIdx >= len(it.page) {
		page, err := it.fetch(it.pageSize, it.offset)
		if err != nil {
			it.lastErr = xerrors.Errorf("fetch page at offset %d: %w", it.offset, err)
			return false
		}
		if len(page) == 0 {
			it.done = true
			it.page = nil
			return false
		}
		it.offset += len(page)
		it.page = page
		it.pageIdx = 0
	}

	it.latchedUser = it.page[it.pageIdx]
	it.pageIdx++
	return true
}

// Error returns the last error encountered by the iterator.
func (it *userIterator) Error() error {
	return it.lastErr
}

// Close drops the buffered page so that abandoning a traversal early leaves
// nothing resident. It is safe to call more than once.
func (it *userIterator) Close() error {
	it.done = true
	it.page = nil
	it.latchedUser = nil
	return nil
}

// User returns the currently fetched row.
func (it *userIterator) User() *domain.User {
	return it.latchedUser
}

// batchIterator yields whole pages instead of individual rows.
type batchIterator struct {
	fetch    repository.PageFunc
	pageSize int
	offset   int

	latchedBatch []*domain.User
	lastErr      error
	done         bool
}

// NewBatchIterator returns an iterator yielding pages of at most pageSize
// users. Only the final page of a traversal may be shorter.
func NewBatchIterator(fetch repository.PageFunc, pageSize int) (repository.UserBatchIterator, error) {
	if pageSize <= 0 {
		return nil, xerrors.Errorf("stream batches: %w", repository.UserErrInvalidPageSize)
	}
	return &batchIterator{fetch: fetch, pageSize: pageSize}, nil
}

// Next fetches the next page. It returns false once a fetch comes back
// empty or fails.
func (it *batchIterator) Next() bool {
	if it.lastErr != nil || it.done {
		return false
	}

	page, err := it.fetch(it.pageSize, it.offset)
	if err != nil {
		it.lastErr = xerrors.Errorf("fetch page at offset %d: %w", it.offset, err)
		return false
	}
	if len(page) == 0 {
		it.done = true
		it.latchedBatch = nil
		return false
	}

	it.offset += len(page)
	it.latchedBatch = page
	return true
}

// Error returns the last error encountered by the iterator.
func (it *batchIterator) Error() error {
	return it.lastErr
}

// Close drops the buffered page. It is safe to call more than once.
func (it *batchIterator) Close() error {
	it.done = true
	it.latchedBatch = nil
	return nil
}

// Batch returns the currently fetched page.
func (it *batchIterator) Batch() []*domain.User {
	return it.latchedBatch
}
