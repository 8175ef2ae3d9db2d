package memory

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/rowkit/userstream/internal/application/core/domain"
)

// userIterator implements ports.UserSearchIterator. It walks the result set
// one hit at a time, keeping a single page of hits resident and re-querying
// bleve at the next offset whenever that page is spent.
type userIterator struct {
	idx *InMemoryUserIndex
	req *bleve.SearchRequest

	rs     *bleve.SearchResult
	hitIdx int
	served uint64

	latchedUser *domain.User
	lastErr     error
}

// Close the iterator. The cursor is pushed past the result set so further
// Next calls report exhaustion.
func (it *userIterator) Close() error {
	it.idx = nil
	it.req = nil
	if it.rs != nil {
		it.served = it.rs.Total
	}
	return nil
}

// Next loads the next user matching the search query.
// It returns false if no more users are available.
func (it *userIterator) Next() bool {
	if it.lastErr != nil || it.rs == nil || it.served >= it.rs.Total {
		return false
	}

	// Resident page spent; pull the next one.
	if it.hitIdx >= it.rs.Hits.Len() {
		it.req.From += it.req.Size
		if it.rs, it.lastErr = it.idx.idx.Search(it.req); it.lastErr != nil {
			return false
		}
		it.hitIdx = 0
	}

	hitID := it.rs.Hits[it.hitIdx].ID
	if it.latchedUser, it.lastErr = it.idx.findByID(hitID); it.lastErr != nil {
		return false
	}

	it.served++
	it.hitIdx++
	return true
}

// Error returns the last error encountered by the iterator.
func (it *userIterator) Error() error {
	return it.lastErr
}

// User returns the current user from the result set.
func (it *userIterator) User() *domain.User {
	return it.latchedUser
}

// TotalCount returns the approximate number of search results.
func (it *userIterator) TotalCount() uint64 {
	if it.rs == nil {
		return 0
	}
	return it.rs.Total
}
