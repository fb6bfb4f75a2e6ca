package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/ir"
)

func testRecord(id, fingerprint string) QueryRecord {
	return QueryRecord{
		ID:          id,
		Dialect:     "sparql",
		Fingerprint: fingerprint,
		Text:        "# Query ID: " + id + "\nSELECT ?instance WHERE { ?instance emf:title ?p1 . }",
		Bindings: ir.IRObject{
			"p1":          ir.IRString("report"),
			"currentUser": ir.IRURI("emf:admin"),
		},
		Projection:      []string{"?v1sort"},
		IncludeInferred: true,
		Timeout:         30 * time.Second,
		CreatedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordQuery_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := testRecord("q-1", "fp-a")
	require.NoError(t, s.RecordQuery(ctx, rec))

	got, err := s.ReadQuery(ctx, "q-1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Dialect, got.Dialect)
	assert.Equal(t, rec.Fingerprint, got.Fingerprint)
	assert.Equal(t, rec.Text, got.Text)
	assert.Equal(t, rec.Bindings, got.Bindings)
	assert.Equal(t, rec.Projection, got.Projection)
	assert.True(t, got.IncludeInferred)
	assert.Equal(t, rec.Timeout, got.Timeout)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestRecordQuery_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := testRecord("q-1", "fp-a")
	require.NoError(t, s.RecordQuery(ctx, first))

	again := testRecord("q-1", "fp-a")
	again.CreatedAt = first.CreatedAt.Add(time.Hour)
	require.NoError(t, s.RecordQuery(ctx, again))

	got, err := s.ReadQuery(ctx, "q-1")
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt), "first record stays authoritative")

	all, err := s.ListQueries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordQuery_ConflictingID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := testRecord("q-1", "fp-a")
	require.NoError(t, s.RecordQuery(ctx, first))

	second := testRecord("q-1", "fp-b")
	second.Text = "SELECT * WHERE { }"
	err := s.RecordQuery(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	got, err := s.ReadQuery(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, first.Text, got.Text)
	assert.Equal(t, "fp-a", got.Fingerprint)
}

func TestRecordQuery_EmptyID(t *testing.T) {
	s := createTestStore(t)
	err := s.RecordQuery(context.Background(), QueryRecord{Dialect: "sparql"})
	assert.Error(t, err)
}

func TestRecordQuery_NilBindingsAndProjection(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordQuery(ctx, QueryRecord{ID: "q-2", Dialect: "solr", Text: "title:report"}))

	got, err := s.ReadQuery(ctx, "q-2")
	require.NoError(t, err)
	assert.Empty(t, got.Bindings)
	assert.Empty(t, got.Projection)
	assert.False(t, got.CreatedAt.IsZero(), "zero CreatedAt is stamped")
}

func TestReadQuery_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadQuery(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListQueries_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// ids deliberately out of lexical order
	for _, id := range []string{"q-c", "q-a", "q-b"} {
		require.NoError(t, s.RecordQuery(ctx, testRecord(id, "fp")))
	}

	all, err := s.ListQueries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "q-c", all[0].ID)
	assert.Equal(t, "q-a", all[1].ID)
	assert.Equal(t, "q-b", all[2].ID)

	limited, err := s.ListQueries(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFindByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordQuery(ctx, testRecord("q-1", "fp-a")))
	require.NoError(t, s.RecordQuery(ctx, testRecord("q-2", "fp-b")))
	require.NoError(t, s.RecordQuery(ctx, testRecord("q-3", "fp-a")))

	got, err := s.FindByFingerprint(ctx, "fp-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q-1", got[0].ID)
	assert.Equal(t, "q-3", got[1].ID)

	none, err := s.FindByFingerprint(ctx, "fp-missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordQuery_DateTimeBinding(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := testRecord("q-dt", "fp")
	rec.Bindings = ir.IRObject{"p1": ir.IRDateTime(when), "p2": ir.IRInt(7), "p3": ir.IRBool(false)}
	require.NoError(t, s.RecordQuery(ctx, rec))

	got, err := s.ReadQuery(ctx, "q-dt")
	require.NoError(t, err)
	assert.Equal(t, rec.Bindings, got.Bindings)
}
