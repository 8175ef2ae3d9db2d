package repotest

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/application/core/stats"
	"github.com/rowkit/userstream/internal/application/core/stream"
	"github.com/rowkit/userstream/internal/ports/repository"
)

// SuiteBase defines a re-usable set of user-repository tests that can be
// executed against any type that implements repository.UserRepository.
type SuiteBase struct {
	r repository.UserRepository
}

// SetRepository configures the test-suite to run all tests against r.
func (s *SuiteBase) SetRepository(r repository.UserRepository) {
	s.r = r
}

// TestUpsertUser verifies the user upsert logic.
func (s *SuiteBase) TestUpsertUser(t *testing.T) {
	// Create a new user
	original := &domain.User{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Age:   36,
	}

	err := s.r.Upsert(original)
	assert.Nil(t, err)
	assert.NotEqual(t, uuid.Nil, original.ID, "expected an ID to be assigned to the new user")

	// Upsert the same email with a different name and age; the stored row
	// must be updated in place and keep its ID.
	updated := &domain.User{
		Name:  "Ada King",
		Email: "ada@example.com",
		Age:   37,
	}
	err = s.r.Upsert(updated)
	assert.Nil(t, err)
	assert.Equal(t, original.ID, updated.ID, "user ID changed while upserting")

	stored, err := s.r.Find(original.ID)
	assert.Nil(t, err)
	assert.Equal(t, "Ada King", stored.Name, "name was not updated")
	assert.Equal(t, 37.0, stored.Age, "age was not updated")

	n, err := s.r.Count()
	assert.Nil(t, err)
	assert.Equal(t, 1, n, "upsert by email must not create a second row")

	// An upsert without an email is rejected.
	err = s.r.Upsert(&domain.User{Name: "nobody"})
	assert.True(t, errors.Is(err, repository.UserErrEmailRequired))
}

// TestFindUser verifies the user lookup logic.
func (s *SuiteBase) TestFindUser(t *testing.T) {
	user := &domain.User{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Age:   52.5,
	}

	err := s.r.Upsert(user)
	assert.Nil(t, err)

	other, err := s.r.Find(user.ID)
	assert.Nil(t, err)
	assert.True(t, reflect.DeepEqual(user, other), "lookup by ID returned the wrong user")

	// Lookup by unknown ID
	_, err = s.r.Find(uuid.New())
	assert.True(t, errors.Is(err, repository.UserErrNotFound))
}

// TestStreamUsersInOrder verifies that row-at-a-time streaming yields every
// row exactly once, in insertion order, across page boundaries.
func (s *SuiteBase) TestStreamUsersInOrder(t *testing.T) {
	emails := s.seedUsers(t, 7)

	it, err := s.r.StreamUsers(3)
	assert.Nil(t, err)

	var got []string
	for it.Next() {
		got = append(got, it.User().Email)
	}
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close())
	assert.Equal(t, emails, got, "streamed rows out of order or incomplete")
}

// TestStreamBatchSizes verifies that batch streaming respects the configured
// page size and that only the final batch may be shorter.
func (s *SuiteBase) TestStreamBatchSizes(t *testing.T) {
	s.seedUsers(t, 7)

	it, err := s.r.StreamBatches(3)
	assert.Nil(t, err)

	var sizes []int
	for it.Next() {
		sizes = append(sizes, len(it.Batch()))
	}
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close())
	assert.Equal(t, []int{3, 3, 1}, sizes)
}

// TestStreamEmptySource verifies that streaming an empty table terminates
// immediately without error.
func (s *SuiteBase) TestStreamEmptySource(t *testing.T) {
	it, err := s.r.StreamUsers(3)
	assert.Nil(t, err)
	assert.False(t, it.Next(), "empty source must not yield rows")
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close())

	bit, err := s.r.StreamBatches(3)
	assert.Nil(t, err)
	assert.False(t, bit.Next(), "empty source must not yield batches")
	assert.Nil(t, bit.Error())
	assert.Nil(t, bit.Close())
}

// TestInvalidPageSize verifies that non-positive page sizes are rejected up
// front.
func (s *SuiteBase) TestInvalidPageSize(t *testing.T) {
	for _, pageSize := range []int{0, -1} {
		_, err := s.r.StreamUsers(pageSize)
		assert.Truef(t, errors.Is(err, repository.UserErrInvalidPageSize), "page size %d", pageSize)

		_, err = s.r.StreamBatches(pageSize)
		assert.Truef(t, errors.Is(err, repository.UserErrInvalidPageSize), "page size %d", pageSize)

		_, err = s.r.FetchPage(pageSize, 0)
		assert.Truef(t, errors.Is(err, repository.UserErrInvalidPageSize), "page size %d", pageSize)
	}

	// Negative offsets are rejected up front, seeded or not.
	s.seedUsers(t, 2)
	for _, offset := range []int{-1, -100} {
		_, err := s.r.FetchPage(3, offset)
		assert.Truef(t, errors.Is(err, repository.UserErrInvalidOffset), "offset %d", offset)
	}
}

// TestFetchPageBeyondEnd verifies that fetching past the last row reports
// end of data instead of failing.
func (s *SuiteBase) TestFetchPageBeyondEnd(t *testing.T) {
	s.seedUsers(t, 4)

	page, err := s.r.FetchPage(3, 4)
	assert.Nil(t, err)
	assert.Empty(t, page)

	page, err = s.r.FetchPage(3, 100)
	assert.Nil(t, err)
	assert.Empty(t, page)
}

// TestEarlyClose verifies that abandoning a traversal mid-way is clean: the
// iterator stops yielding and a fresh traversal starts over at the first row.
func (s *SuiteBase) TestEarlyClose(t *testing.T) {
	emails := s.seedUsers(t, 7)

	it, err := s.r.StreamUsers(3)
	assert.Nil(t, err)
	assert.True(t, it.Next())
	assert.True(t, it.Next())
	assert.Nil(t, it.Close())
	assert.False(t, it.Next(), "closed iterator must not advance")
	assert.Nil(t, it.Close(), "close must be idempotent")

	fresh, err := s.r.StreamUsers(3)
	assert.Nil(t, err)
	assert.True(t, fresh.Next())
	assert.Equal(t, emails[0], fresh.User().Email, "a new traversal must start at offset 0")
	assert.Nil(t, fresh.Close())
}

// TestConcurrentUserIterators verifies that multiple independent traversals,
// each owning its own cursor, can run concurrently over the same store.
func (s *SuiteBase) TestConcurrentUserIterators(t *testing.T) {
	var (
		wg           sync.WaitGroup
		numIterators = 10
		numUsers     = 100
	)

	s.seedUsers(t, numUsers)

	wg.Add(numIterators)
	for i := 0; i < numIterators; i++ {
		go func(id int) {
			defer wg.Done()

			itTagComment := fmt.Sprintf("iterator %d", id)
			seen := make(map[string]bool)
			it, err := s.r.StreamUsers(7)
			assert.Nil(t, err, itTagComment)
			defer func() {
				assert.Nil(t, it.Close(), itTagComment)
			}()

			for it.Next() {
				userID := it.User().ID.String()
				assert.Falsef(t, seen[userID], "iterator %d saw same user twice", id)
				seen[userID] = true
			}
			assert.Len(t, seen, numUsers, itTagComment)
			assert.Nil(t, it.Error(), itTagComment)
		}(i)
	}

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	// test completed successfully
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for test to complete")
	}
}

// TestAverageAge verifies the streaming aggregator against a repository
// traversal end to end.
func (s *SuiteBase) TestAverageAge(t *testing.T) {
	for i, age := range []float64{20, 30, 40} {
		user := &domain.User{
			Name:  fmt.Sprintf("user %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
			Age:   age,
		}
		assert.Nil(t, s.r.Upsert(user))
	}

	it, err := s.r.StreamUsers(2)
	assert.Nil(t, err)
	mean, err := stats.AverageAge(it)
	assert.Nil(t, err)
	assert.InDelta(t, 30.0, mean, 1e-9)
}

// TestAverageAgeNoData verifies the explicit no-data outcome over an empty
// table.
func (s *SuiteBase) TestAverageAgeNoData(t *testing.T) {
	it, err := s.r.StreamUsers(2)
	assert.Nil(t, err)
	_, err = stats.AverageAge(it)
	assert.True(t, errors.Is(err, stats.ErrNoData))
}

// TestBatchFiltering verifies predicate filtering over streamed batches.
func (s *SuiteBase) TestBatchFiltering(t *testing.T) {
	ages := []float64{18, 26, 22, 31, 44, 25, 60}
	for i, age := range ages {
		user := &domain.User{
			Name:  fmt.Sprintf("user %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
			Age:   age,
		}
		assert.Nil(t, s.r.Upsert(user))
	}

	it, err := s.r.StreamBatches(3)
	assert.Nil(t, err)

	var kept []float64
	err = stream.ProcessBatches(it, stream.OlderThan(25), func(batch []*domain.User) error {
		for _, u := range batch {
			kept = append(kept, u.Age)
		}
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []float64{26, 31, 44, 60}, kept)
}

// seedUsers inserts n users and returns their emails in insertion order.
func (s *SuiteBase) seedUsers(t *testing.T, n int) []string {
	emails := make([]string, n)
	for i := 0; i < n; i++ {
		user := &domain.User{
			Name:  fmt.Sprintf("user %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
			Age:   float64(20 + i),
		}
		assert.Nil(t, s.r.Upsert(user))
		emails[i] = user.Email
	}
	return emails
}
