package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PersonID is the stable numeric id of a person. Ids are dense starting at 0
// and are never reused.
type PersonID int64

// InsertPerson assigns the next unused id to a previously-unseen name.
// Returns ErrDuplicatePerson if the name already exists; callers check
// FindPerson first.
func (s *Store) InsertPerson(ctx context.Context, name string) (PersonID, error) {
	// MAX(id)+1 keeps ids dense from 0; rowid allocation would start at 1.
	// Safe without a transaction: the request loop is the only writer.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, name)
		VALUES ((SELECT COALESCE(MAX(id) + 1, 0) FROM persons), ?)
	`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert person %q: %w", name, ErrDuplicatePerson)
		}
		return 0, fmt.Errorf("insert person %q: %w", name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert person %q: last insert id: %w", name, err)
	}
	return PersonID(id), nil
}

// FindPerson looks up the id for a name. The second return value is false if
// the name has never been seen.
func (s *Store) FindPerson(ctx context.Context, name string) (PersonID, bool, error) {
	var id PersonID
	err := s.db.QueryRowContext(ctx, `SELECT id FROM persons WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find person %q: %w", name, err)
	}
	return id, true, nil
}

// PersonName is the reverse lookup. An id that was never assigned is a
// storage invariant violation and returns ErrUnknownPerson.
func (s *Store) PersonName(ctx context.Context, id PersonID) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM persons WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("person name %d: %w", id, ErrUnknownPerson)
	}
	if err != nil {
		return "", fmt.Errorf("person name %d: %w", id, err)
	}
	return name, nil
}

// PersonCount returns the number of directory entries, which is also the
// next id to be assigned.
func (s *Store) PersonCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("person count: %w", err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// Matched on the driver's message rather than its error type so the store's
// public surface stays driver-agnostic.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
