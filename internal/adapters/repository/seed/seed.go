// Package seed loads user rows into a repository from a name,email,age CSV
// export of the user_data table.
package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"golang.org/x/xerrors"

	"github.com/rowkit/userstream/internal/application/core/domain"
	"github.com/rowkit/userstream/internal/ports/repository"
)

// FromCSV streams the CSV at path into r one record at a time and returns
// the number of rows upserted. The first record is expected to be a header.
// The file is never read into memory as a whole.
func FromCSV(r repository.UserRepository, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, xerrors.Errorf("seed users: %w", err)
	}
	defer f.Close()

	return FromReader(r, f)
}

// FromReader is FromCSV over an already-open CSV stream.
func FromReader(r repository.UserRepository, src io.Reader) (int, error) {
	reader := csv.NewReader(src)

	// Header row: name,email,age
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, xerrors.Errorf("seed users: read header: %w", err)
	}
	if len(header) < 3 {
		return 0, xerrors.Errorf("seed users: header needs name,email,age columns, got %d", len(header))
	}

	var n int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, xerrors.Errorf("seed users: record %d: %w", n+1, err)
		}
		age, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return n, xerrors.Errorf("seed users: record %d: parse age: %w", n+1, err)
		}
		user := &domain.User{
			Name:  record[0],
			Email: record[1],
			Age:   age,
		}
		if err := r.Upsert(user); err != nil {
			return n, xerrors.Errorf("seed users: record %d: %w", n+1, err)
		}
		n++
	}
	return n, nil
}
