package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/presenced/internal/when"
)

// Interval is one stored presence record. The span is half-open: the person
// counts as present for Min <= t < Max.
type Interval struct {
	Person PersonID
	Min    int64
	Max    int64
}

// InsertInterval appends a presence record. Always succeeds; the store
// tolerates multiple open intervals per person, ordered by insertion.
func (s *Store) InsertInterval(ctx context.Context, person PersonID, min, max int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intervals (person_id, start_ts, end_ts)
		VALUES (?, ?, ?)
	`, person, min, max)
	if err != nil {
		return fmt.Errorf("insert interval person=%d: %w", person, err)
	}
	return nil
}

// CloseEarliestOpen replaces the end of the person's earliest-inserted open
// interval with end. The record's identity changes in storage, so this is an
// explicit delete+insert in one transaction, not an in-place update.
//
// Returns ErrNoOpenInterval if the person has no open interval. Callers must
// have verified with PresentAt that closing is meaningful; hitting this
// error anyway means the caller and the store disagree about state, and the
// request must be abandoned.
func (s *Store) CloseEarliestOpen(ctx context.Context, person PersonID, end int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("close interval person=%d: begin tx: %w", person, err)
	}
	defer tx.Rollback() // No-op if committed

	var rowID, start int64
	err = tx.QueryRowContext(ctx, `
		SELECT id, start_ts FROM intervals
		WHERE person_id = ? AND end_ts = ?
		ORDER BY id ASC
		LIMIT 1
	`, person, when.TimeMax).Scan(&rowID, &start)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("close interval person=%d: %w", person, ErrNoOpenInterval)
	}
	if err != nil {
		return fmt.Errorf("close interval person=%d: %w", person, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM intervals WHERE id = ?`, rowID); err != nil {
		return fmt.Errorf("close interval person=%d: delete: %w", person, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO intervals (person_id, start_ts, end_ts)
		VALUES (?, ?, ?)
	`, person, start, end); err != nil {
		return fmt.Errorf("close interval person=%d: reinsert: %w", person, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("close interval person=%d: commit: %w", person, err)
	}
	return nil
}

// PresentAt reports whether some interval of the person covers ts
// (start <= ts < end).
func (s *Store) PresentAt(ctx context.Context, person PersonID, ts int64) (bool, error) {
	var present bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM intervals
			WHERE person_id = ? AND start_ts <= ? AND end_ts > ?
		)
	`, person, ts, ts).Scan(&present)
	if err != nil {
		return false, fmt.Errorf("present at person=%d: %w", person, err)
	}
	return present, nil
}

// Overlapping returns every interval with end > min AND start <= max,
// ordered by end ascending then insertion order.
//
// The scan seeks the end_ts index to the first interval ending after min and
// walks to the end of the index filtering on start_ts. That prunes intervals
// ending before the query but still visits every interval ending at or after
// it - a semi-pruned scan, not an interval tree. Faithful to the original on
// purpose; only performance would change with a smarter structure.
//
// Returns an empty slice (not nil) when nothing overlaps.
func (s *Store) Overlapping(ctx context.Context, min, max int64) ([]Interval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, start_ts, end_ts FROM intervals
		WHERE end_ts > ? AND start_ts <= ?
		ORDER BY end_ts ASC, id ASC
	`, min, max)
	if err != nil {
		return nil, fmt.Errorf("overlapping [%d, %d]: %w", min, max, err)
	}
	defer rows.Close()

	intervals := []Interval{}
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Person, &iv.Min, &iv.Max); err != nil {
			return nil, fmt.Errorf("overlapping [%d, %d]: scan: %w", min, max, err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("overlapping [%d, %d]: iterate: %w", min, max, err)
	}

	return intervals, nil
}
