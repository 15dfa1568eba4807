package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := s.Has(ctx, "a.pdf")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, Record{Name: "b.pdf", Status: StatusFailed, Error: "bad xref", ProcessedAt: at}))
			require.NoError(t, s.Put(ctx, Record{Name: "a.pdf", Output: "Prosessert_a.pdf", Status: StatusProcessed, Pages: 2, Redactions: 5, ProcessedAt: at}))

			ok, err = s.Has(ctx, "a.pdf")
			require.NoError(t, err)
			assert.True(t, ok)

			records, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "a.pdf", records[0].Name)
			assert.Equal(t, StatusProcessed, records[0].Status)
			assert.Equal(t, 5, records[0].Redactions)
			assert.Equal(t, 2, records[0].Pages)
			assert.True(t, at.Equal(records[0].ProcessedAt))
			assert.Equal(t, "bad xref", records[1].Error)

			// Put replaces an existing record
			require.NoError(t, s.Put(ctx, Record{Name: "b.pdf", Output: "Prosessert_b.pdf", Status: StatusProcessed}))
			records, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, StatusProcessed, records[1].Status)
			assert.Empty(t, records[1].Error)
			assert.False(t, records[1].ProcessedAt.IsZero())

			require.NoError(t, s.Reset(ctx))
			records, err = s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, Record{Name: "a.pdf", Status: StatusProcessed}))
			require.NoError(t, s.Put(ctx, Record{Name: "b.pdf", Status: StatusFailed}))

			require.NoError(t, s.Delete(ctx, "a.pdf"))
			ok, err := s.Has(ctx, "a.pdf")
			require.NoError(t, err)
			assert.False(t, ok)

			// Unknown names are ignored
			require.NoError(t, s.Delete(ctx, "missing.pdf"))

			records, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "b.pdf", records[0].Name)
		})
	}
}

func TestStore_RejectsUnnamedRecord(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Put(context.Background(), Record{Status: StatusProcessed}))
		})
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, Record{Name: "a.pdf", Status: StatusProcessed}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.Has(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, path, s.Path())
}

func TestOpen(t *testing.T) {
	s, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(KindSQLite, "")
	assert.Error(t, err)

	_, err = Open("redis", "")
	assert.Error(t, err)
}
