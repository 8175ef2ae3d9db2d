package ports

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rowkit/userstream/internal/application/core/domain"
)

// UserSearcher catalogues users and answers free-text queries over their
// name and email.
type UserSearcher interface {
	Index(user *domain.User) error
	FindByID(id uuid.UUID) (*domain.User, error)
	Search(query *UserQuery) (UserSearchIterator, error)
	Remove(id uuid.UUID) error
}

type UserQueryType uint8

type UserQuery struct {
	Type       UserQueryType
	Expression string
	Offset     uint64
}

const (
	UserQueryTypeMatch UserQueryType = iota
	UserQueryTypePhrase
)

// UserSearchIterator pages through a search result set one hit at a time.
type UserSearchIterator interface {
	Close() error
	Next() bool
	Error() error
	User() *domain.User
	TotalCount() uint64
}

var (
	// UserSearcherErrNotFound is returned by the searcher when attempting to
	// look up a user that was never indexed.
	UserSearcherErrNotFound = errors.New("not found")

	// UserSearcherErrMissingID is returned when attempting to index a user
	// that does not specify a valid ID.
	UserSearcherErrMissingID = errors.New("user does not provide a valid ID")
)
