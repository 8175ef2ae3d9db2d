package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rowkit/userstream/internal/adapters/repository/memory"
	"github.com/rowkit/userstream/internal/application/core/domain"
)

func newTestRepo() (*bytes.Buffer, *UserRepository) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := NewUserRepository(memory.NewInMemoryUserRepository(), log)
	return &buf, repo.(*UserRepository)
}

func TestLogsUpsert(t *testing.T) {
	buf, repo := newTestRepo()

	err := repo.Upsert(&domain.User{Name: "Ada", Email: "ada@example.com", Age: 36})
	assert.Nil(t, err)
	assert.Contains(t, buf.String(), "upsert user")
	assert.Contains(t, buf.String(), "ada@example.com")
	assert.Contains(t, buf.String(), "took=")
}

func TestLogsUpsertFailure(t *testing.T) {
	buf, repo := newTestRepo()

	err := repo.Upsert(&domain.User{Name: "nobody"})
	assert.NotNil(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "upsert user")
}

func TestLogsEveryPageFetchOfATraversal(t *testing.T) {
	buf, repo := newTestRepo()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
		assert.Nil(t, repo.Upsert(&domain.User{Name: email, Email: email, Age: 30}))
	}
	buf.Reset()

	it, err := repo.StreamUsers(3)
	assert.Nil(t, err)
	for it.Next() {
	}
	assert.Nil(t, it.Error())
	assert.Nil(t, it.Close())

	// Pages of 3, 1, then the terminating empty fetch.
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("fetch page")))
}

func TestPassesResultsThrough(t *testing.T) {
	_, repo := newTestRepo()

	user := &domain.User{Name: "Ada", Email: "ada@example.com", Age: 36}
	assert.Nil(t, repo.Upsert(user))

	found, err := repo.Find(user.ID)
	assert.Nil(t, err)
	assert.Equal(t, user.Email, found.Email)

	n, err := repo.Count()
	assert.Nil(t, err)
	assert.Equal(t, 1, n)
}
