package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdsykes2512/medcrypt"
	"github.com/pdsykes2512/medcrypt/store"
)

func newSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newSQLiteStore(t))
}

// Filter keys are interpolated into JSON paths, so anything that is not a
// plain identifier must be rejected before it reaches SQL.
func TestSQLiteStoreRejectsInvalidFilterKeys(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	tests := []string{
		"",
		"1starts_with_digit",
		"has space",
		"quote'); DROP TABLE documents;--",
		"dotted.path",
	}

	for _, key := range tests {
		_, err := st.Find(ctx, "patients", map[string]any{key: "x"}, 0, 0)
		assert.Error(t, err, "key %q must be rejected", key)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	st1, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	id, err := st1.Insert(ctx, "patients", medcrypt.Document{"nhs_number": "ENC:abc"})
	require.NoError(t, err)
	require.NoError(t, st1.Close())

	st2, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer st2.Close()
	doc, err := st2.Get(ctx, "patients", id)
	require.NoError(t, err)
	assert.Equal(t, "ENC:abc", doc["nhs_number"])
}
