package stream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/ports/repository"
)

// fakePager serves pages out of an in-memory slice and records how often it
// was asked, so tests can assert on laziness.
type fakePager struct {
	users  []*domain.User
	calls  int
	failAt int // fail on the n-th call; 0 means never
}

func (p *fakePager) fetch(pageSize, offset int) ([]*domain.User, error) {
	p.calls++
	if p.failAt > 0 && p.calls >= p.failAt {
		return nil, errors.New("connection lost")
	}
	if offset >= len(p.users) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(p.users) {
		end = len(p.users)
	}
	return p.users[offset:end], nil
}

func makeUsers(n int) []*domain.User {
	users := make([]*domain.User, n)
	for i := range users {
		users[i] = &domain.User{
			Name:  fmt.Sprintf("user %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
			Age:   float64(20 + i),
		}
	}
	return users
}

func TestUserIteratorYieldsAllRowsInOrder(t *testing.T) {
	pager := &fakePager{users: makeUsers(7)}
	it, err := NewUserIterator(pager.fetch, 3)
	assert.Nil(t, err)

	var got []string
	for it.Next() {
		got = append(got, it.User().Email)
	}
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close())

	want := make([]string, 7)
	for i := range want {
		want[i] = fmt.Sprintf("user%d@example.com", i)
	}
	assert.Equal(t, want, got)
}

func TestUserIteratorFetchesLazily(t *testing.T) {
	pager := &fakePager{users: makeUsers(7)}
	it, err := NewUserIterator(pager.fetch, 3)
	assert.Nil(t, err)
	defer it.Close()

	assert.Equal(t, 0, pager.calls, "creating an iterator must not touch the source")

	for i := 0; i < 3; i++ {
		assert.True(t, it.Next())
	}
	assert.Equal(t, 1, pager.calls, "the first page covers the first three rows")

	assert.True(t, it.Next())
	assert.Equal(t, 2, pager.calls, "the fourth row needs the second page")
}

func TestUserIteratorHoldsOnePage(t *testing.T) {
	pager := &fakePager{users: makeUsers(10)}
	it, err := NewUserIterator(pager.fetch, 4)
	assert.Nil(t, err)
	defer it.Close()

	for it.Next() {
	}
	assert.Nil(t, it.Error())
	// 10 rows at page size 4: pages of 4, 4, 2, then the empty page that
	// terminates the traversal.
	assert.Equal(t, 4, pager.calls)
}

func TestUserIteratorEmptySource(t *testing.T) {
	pager := &fakePager{}
	it, err := NewUserIterator(pager.fetch, 3)
	assert.Nil(t, err)

	assert.False(t, it.Next())
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close())
	assert.Equal(t, 1, pager.calls)
}

func TestUserIteratorPropagatesFetchError(t *testing.T) {
	pager := &fakePager{users: makeUsers(7), failAt: 2}
	it, err := NewUserIterator(pager.fetch, 3)
	assert.Nil(t, err)
	defer it.Close()

	var got int
	for it.Next() {
		got++
	}
	assert.Equal(t, 3, got, "rows of the first page are yielded before the failure")
	assert.NotNil(t, it.Error())
	assert.Contains(t, it.Error().Error(), "connection lost")
	assert.False(t, it.Next(), "a failed traversal must not resume")
}

func TestUserIteratorInvalidPageSize(t *testing.T) {
	pager := &fakePager{users: makeUsers(3)}
	for _, pageSize := range []int{0, -1} {
		_, err := NewUserIterator(pager.fetch, pageSize)
		assert.Truef(t, errors.Is(err, repository.UserErrInvalidPageSize), "page size %d", pageSize)
	}
	assert.Equal(t, 0, pager.calls)
}

func TestUserIteratorCloseStopsIteration(t *testing.T) {
	pager := &fakePager{users: makeUsers(7)}
	it, err := NewUserIterator(pager.fetch, 3)
	assert.Nil(t, err)

	assert.True(t, it.Next())
	assert.Nil(t, it.Close())
	assert.False(t, it.Next())
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close(), "close must be idempotent")
	assert.Equal(t, 1, pager.calls, "closing must not fetch further pages")
}

func TestBatchIteratorSizes(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		pageSize int
		want     []int
	}{
		{name: "uneven final batch", rows: 7, pageSize: 3, want: []int{3, 3, 1}},
		{name: "exact multiple", rows: 6, pageSize: 3, want: []int{3, 3}},
		{name: "single short batch", rows: 2, pageSize: 5, want: []int{2}},
		{name: "empty source", rows: 0, pageSize: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pager := &fakePager{users: makeUsers(tt.rows)}
			it, err := NewBatchIterator(pager.fetch, tt.pageSize)
			assert.Nil(t, err)
			defer it.Close()

			var sizes []int
			for it.Next() {
				assert.LessOrEqual(t, len(it.Batch()), tt.pageSize)
				sizes = append(sizes, len(it.Batch()))
			}
			assert.Nil(t, it.Error())
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestBatchIteratorPropagatesFetchError(t *testing.T) {
	pager := &fakePager{users: makeUsers(7), failAt: 2}
	it, err := NewBatchIterator(pager.fetch, 3)
	assert.Nil(t, err)
	defer it.Close()

	assert.True(t, it.Next())
	assert.False(t, it.Next())
	assert.NotNil(t, it.Error())
}

func TestBatchIteratorInvalidPageSize(t *testing.T) {
	pager := &fakePager{users: makeUsers(3)}
	_, err := NewBatchIterator(pager.fetch, 0)
	assert.True(t, errors.Is(err, repository.UserErrInvalidPageSize))
}

// TestPagedTraversalMatchesFullRead checks that concatenating successive
// pages yields the same row sequence as one unpaginated read, for a spread
// of source and page sizes.
func TestPagedTraversalMatchesFullRead(t *testing.T) {
	for _, rows := range []int{0, 1, 3, 7, 10} {
		for _, pageSize := range []int{1, 3, 5} {
			t.Run(fmt.Sprintf("rows=%d/page=%d", rows, pageSize), func(t *testing.T) {
				users := makeUsers(rows)
				pager := &fakePager{users: users}

				it, err := NewUserIterator(pager.fetch, pageSize)
				assert.Nil(t, err)
				defer it.Close()

				var got []*domain.User
				for it.Next() {
					got = append(got, it.User())
				}
				assert.Nil(t, it.Error())
				assert.Len(t, got, rows)
				for i, u := range got {
					assert.Same(t, users[i], u)
				}
			})
		}
	}
}
