package pg

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/application/core/stream"
	"github.com/rowkit/userstream/internal/ports/repository"
)

// UserRepository is a repository.UserRepository backed by a PostgreSQL
// user_data table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{
		db: db,
	}
}

var createSchemaQuery = `
	CREATE TABLE IF NOT EXISTS user_data (
		seq BIGSERIAL UNIQUE,
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		age NUMERIC(5,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// CreateSchema creates the user_data table if it does not exist. The seq
// column gives page fetches a stable insertion order to sort on.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(createSchemaQuery); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

var upsertUserQuery = `
	INSERT INTO user_data (id, name, email, age) VALUES ($1, $2, $3, $4)
	ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, age=EXCLUDED.age
	RETURNING id, created_at
`

func (r *UserRepository) Upsert(user *domain.User) error {
	if user.Email == "" {
		return fmt.Errorf("upsert user: %w", repository.UserErrEmailRequired)
	}
	id := user.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := r.db.QueryRow(upsertUserQuery, id, user.Name, user.Email, user.Age)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolationError(err) {
			err = repository.UserErrDuplicateID
		}
		return fmt.Errorf("upsert user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return nil
}

func isUniqueViolationError(err error) bool {
	var pqErr *pq.Error
	valid := errors.As(err, &pqErr)
	if !valid {
		return false
	}
	return pqErr.Code.Name() == "unique_violation"
}

var findUserQuery = `
	SELECT name, email, age, created_at FROM user_data WHERE id=$1
`

func (r *UserRepository) Find(id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRow(findUserQuery, id)
	user := &domain.User{ID: id}
	if err := row.Scan(&user.Name, &user.Email, &user.Age, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find user: %w", repository.UserErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

var countUsersQuery = `
	SELECT COUNT(*) FROM user_data
`

func (r *UserRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(countUsersQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

var fetchPageQuery = `
	SELECT id, name, email, age, created_at FROM user_data ORDER BY seq LIMIT $1 OFFSET $2
`

// FetchPage retrieves one page of users in insertion order. The result set
// is fully drained and released before returning, so a traversal holds no
// open server-side cursor between pages.
func (r *UserRepository) FetchPage(pageSize, offset int) ([]*domain.User, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("fetch page: %w", repository.UserErrInvalidPageSize)
	}
	if offset < 0 {
		return nil, fmt.Errorf("fetch page: %w", repository.UserErrInvalidOffset)
	}
	rows, err := r.db.Query(fetchPageQuery, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer rows.Close()

	var page []*domain.User
	for rows.Next() {
		user := new(domain.User)
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Age, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("fetch page: %w", err)
		}
		user.CreatedAt = user.CreatedAt.UTC()
		page = append(page, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return page, nil
}

func (r *UserRepository) StreamUsers(pageSize int) (repository.UserIterator, error) {
	return stream.NewUserIterator(r.FetchPage, pageSize)
}

func (r *UserRepository) StreamBatches(pageSize int) (repository.UserBatchIterator, error) {
	return stream.NewBatchIterator(r.FetchPage, pageSize)
}
