package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/searchql/internal/ir"
)

// QueryRecord is one compiled query as it was handed to the executor.
type QueryRecord struct {
	Seq             int64
	ID              string
	Dialect         string
	Fingerprint     string
	Text            string
	Bindings        ir.IRObject
	Projection      []string
	IncludeInferred bool
	Timeout         time.Duration
	CreatedAt       time.Time
}

// RecordQuery writes a record to the log.
//
// Idempotent: a second record with the same ID and fingerprint is ignored and
// the first stays authoritative. A record reusing an ID for a different
// fingerprint fails with ErrConflict. A zero CreatedAt is stamped with the
// current UTC time.
func (s *Store) RecordQuery(ctx context.Context, rec QueryRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record query: empty id")
	}

	bindings := rec.Bindings
	if bindings == nil {
		bindings = ir.IRObject{}
	}
	bindingsJSON, err := ir.MarshalCanonical(bindings)
	if err != nil {
		return fmt.Errorf("marshal bindings for %s: %w", rec.ID, err)
	}

	projection := rec.Projection
	if projection == nil {
		projection = []string{}
	}
	projectionJSON, err := json.Marshal(projection)
	if err != nil {
		return fmt.Errorf("marshal projection for %s: %w", rec.ID, err)
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (id, dialect, fingerprint, text, bindings, projection, include_inferred, timeout_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Dialect,
		rec.Fingerprint,
		rec.Text,
		string(bindingsJSON),
		string(projectionJSON),
		rec.IncludeInferred,
		rec.Timeout.Milliseconds(),
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert query %s: %w", rec.ID, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert query %s: %w", rec.ID, err)
	}
	if inserted > 0 {
		return nil
	}

	var existing string
	if err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM queries WHERE id = ?`, rec.ID).Scan(&existing); err != nil {
		return fmt.Errorf("check query %s: %w", rec.ID, err)
	}
	if existing != rec.Fingerprint {
		return fmt.Errorf("record query %s: %w", rec.ID, ErrConflict)
	}
	return nil
}
