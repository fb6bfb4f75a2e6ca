package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/searchql/internal/ir"
)

// ErrNotFound is returned by ReadQuery when no record has the given id.
var ErrNotFound = errors.New("query not found")

// ErrConflict is returned by RecordQuery when the id is already logged for a
// different query.
var ErrConflict = errors.New("query id already recorded for a different query")

const selectColumns = `SELECT seq, id, dialect, fingerprint, text, bindings, projection, include_inferred, timeout_ms, created_at FROM queries`

// ReadQuery returns the record stored under id.
func (s *Store) ReadQuery(ctx context.Context, id string) (QueryRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueryRecord{}, fmt.Errorf("read query %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return QueryRecord{}, fmt.Errorf("read query %s: %w", id, err)
	}
	return rec, nil
}

// ListQueries returns records in insertion order. limit <= 0 returns all.
func (s *Store) ListQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	query := selectColumns + ` ORDER BY seq ASC, id ASC COLLATE BINARY`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRecords(ctx, query, args...)
}

// FindByFingerprint returns every record whose text and bindings hashed to
// fingerprint, in insertion order.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]QueryRecord, error) {
	return s.queryRecords(ctx, selectColumns+` WHERE fingerprint = ? ORDER BY seq ASC, id ASC COLLATE BINARY`, fingerprint)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (QueryRecord, error) {
	var (
		rec            QueryRecord
		bindingsJSON   string
		projectionJSON string
		timeoutMS      int64
		created        string
	)
	if err := row.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.Dialect,
		&rec.Fingerprint,
		&rec.Text,
		&bindingsJSON,
		&projectionJSON,
		&rec.IncludeInferred,
		&timeoutMS,
		&created,
	); err != nil {
		return QueryRecord{}, err
	}

	bindings, err := ir.UnmarshalBindings([]byte(bindingsJSON))
	if err != nil {
		return QueryRecord{}, fmt.Errorf("decode bindings for %s: %w", rec.ID, err)
	}
	rec.Bindings = bindings

	if err := json.Unmarshal([]byte(projectionJSON), &rec.Projection); err != nil {
		return QueryRecord{}, fmt.Errorf("decode projection for %s: %w", rec.ID, err)
	}
	rec.Timeout = time.Duration(timeoutMS) * time.Millisecond

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return QueryRecord{}, fmt.Errorf("decode created_at for %s: %w", rec.ID, err)
	}
	return rec, nil
}
