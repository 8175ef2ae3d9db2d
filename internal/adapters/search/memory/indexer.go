package memory

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/ports"
)

// The size of each page of results that is cached locally by an iterator
// when the caller does not pick one.
const defaultResultPageSize = 10

type bleveUser struct {
	Name  string
	Email string
}

// InMemoryUserIndex is a UserSearcher implementation that uses an in-memory
// bleve instance to catalogue and search users by name and email.
type InMemoryUserIndex struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	pageSize int
	idx      bleve.Index
}

// NewInMemoryUserIndex creates a user searcher that uses an in-memory bleve
// instance for indexing users. resultPageSize bounds how many hits a search
// iterator keeps resident at a time (config.StreamConfig.PageSize is a
// natural source); zero or negative falls back to the default.
func NewInMemoryUserIndex(resultPageSize int) (ports.UserSearcher, error) {
	if resultPageSize <= 0 {
		resultPageSize = defaultResultPageSize
	}

	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	return &InMemoryUserIndex{
		idx:      idx,
		users:    make(map[string]*domain.User),
		pageSize: resultPageSize,
	}, nil
}

// Close the index and release any allocated resources.
func (i *InMemoryUserIndex) Close() error {
	return i.idx.Close()
}

// Index inserts a new user to the index or updates the index entry for an
// existing one.
func (i *InMemoryUserIndex) Index(user *domain.User) error {
	if user.ID == uuid.Nil {
		return fmt.Errorf("index: %w", ports.UserSearcherErrMissingID)
	}

	ucopy := copyUser(user)
	key := ucopy.ID.String()

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.idx.Index(key, makeBleveUser(ucopy)); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	i.users[key] = ucopy
	return nil
}

// FindByID looks up an indexed user by its ID.
func (i *InMemoryUserIndex) FindByID(id uuid.UUID) (*domain.User, error) {
	return i.findByID(id.String())
}

func (i *InMemoryUserIndex) findByID(key string) (*domain.User, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if user, found := i.users[key]; found {
		return copyUser(user), nil
	}
	return nil, fmt.Errorf("find by ID: %w", ports.UserSearcherErrNotFound)
}

// Search the index for a particular query and return back a result iterator.
func (i *InMemoryUserIndex) Search(q *ports.UserQuery) (ports.UserSearchIterator, error) {
	var bq query.Query
	switch q.Type {
	case ports.UserQueryTypePhrase:
		bq = bleve.NewMatchPhraseQuery(q.Expression)
	default:
		bq = bleve.NewMatchQuery(q.Expression)
	}

	req := bleve.NewSearchRequest(bq)
	req.SortBy([]string{"-_score", "_id"})
	req.Size = i.pageSize
	req.From = int(q.Offset)
	rs, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &userIterator{idx: i, req: req, rs: rs, served: q.Offset}, nil
}

// Remove drops a user from the index.
func (i *InMemoryUserIndex) Remove(id uuid.UUID) error {
	key := id.String()

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, found := i.users[key]; !found {
		return fmt.Errorf("remove: %w", ports.UserSearcherErrNotFound)
	}
	if err := i.idx.Delete(key); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	delete(i.users, key)
	return nil
}

func copyUser(u *domain.User) *domain.User {
	ucopy := new(domain.User)
	*ucopy = *u
	return ucopy
}

func makeBleveUser(u *domain.User) bleveUser {
	return bleveUser{
		Name:  u.Name,
		Email: u.Email,
	}
}
