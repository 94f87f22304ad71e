package store_test

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdsykes2512/medcrypt"
)

// runStoreSuite exercises the medcrypt.Store contract against one backend.
func runStoreSuite(t *testing.T, st medcrypt.Store) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		id, err := st.Insert(ctx, "patients", medcrypt.Document{
			"nhs_number": "9434765919",
			"ward":       "Ward 7",
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := st.Get(ctx, "patients", id)
		require.NoError(t, err)
		assert.Equal(t, "9434765919", doc["nhs_number"])
		assert.Equal(t, "Ward 7", doc["ward"])
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := st.Get(ctx, "patients", "no-such-id")
		assert.Error(t, err)
	})

	t.Run("find by equality", func(t *testing.T) {
		_, err := st.Insert(ctx, "lookup", medcrypt.Document{"nhs_number_hash": "aaa", "ward": "1"})
		require.NoError(t, err)
		_, err = st.Insert(ctx, "lookup", medcrypt.Document{"nhs_number_hash": "bbb", "ward": "1"})
		require.NoError(t, err)
		_, err = st.Insert(ctx, "lookup", medcrypt.Document{"nhs_number_hash": "aaa", "ward": "2"})
		require.NoError(t, err)

		matches, err := st.Find(ctx, "lookup", map[string]any{"nhs_number_hash": "aaa"}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, matches, 2)

		matches, err = st.Find(ctx, "lookup", map[string]any{"nhs_number_hash": "aaa", "ward": "2"}, 0, 0)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "2", matches[0].Doc["ward"])

		matches, err = st.Find(ctx, "lookup", map[string]any{"nhs_number_hash": "zzz"}, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("list is ordered and paginated", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			_, err := st.Insert(ctx, "paging", medcrypt.Document{"n": fmt.Sprintf("%d", i)})
			require.NoError(t, err)
		}

		all, err := st.List(ctx, "paging", 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool {
			return all[i].ID < all[j].ID
		}), "list must be ordered by ID")

		page1, err := st.List(ctx, "paging", 2, 0)
		require.NoError(t, err)
		page2, err := st.List(ctx, "paging", 2, 2)
		require.NoError(t, err)
		page3, err := st.List(ctx, "paging", 2, 4)
		require.NoError(t, err)
		assert.Len(t, page1, 2)
		assert.Len(t, page2, 2)
		assert.Len(t, page3, 1)

		var paged []string
		for _, stored := range append(append(page1, page2...), page3...) {
			paged = append(paged, stored.ID)
		}
		var expected []string
		for _, stored := range all {
			expected = append(expected, stored.ID)
		}
		assert.Equal(t, expected, paged, "pages must tile the full ordered listing")
	})

	t.Run("update fields", func(t *testing.T) {
		id, err := st.Insert(ctx, "updates", medcrypt.Document{
			"nhs_number": "9434765919",
			"ward":       "Ward 7",
		})
		require.NoError(t, err)

		err = st.UpdateFields(ctx, "updates", id, map[string]any{
			"nhs_number":      "ENC:abc",
			"nhs_number_hash": "digest",
		})
		require.NoError(t, err)

		doc, err := st.Get(ctx, "updates", id)
		require.NoError(t, err)
		assert.Equal(t, "ENC:abc", doc["nhs_number"])
		assert.Equal(t, "digest", doc["nhs_number_hash"])
		assert.Equal(t, "Ward 7", doc["ward"], "untouched fields survive the update")
	})

	t.Run("update missing document", func(t *testing.T) {
		err := st.UpdateFields(ctx, "updates", "no-such-id", map[string]any{"ward": "8"})
		assert.Error(t, err)
	})

	t.Run("count", func(t *testing.T) {
		n, err := st.Count(ctx, "counting")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		for i := 0; i < 3; i++ {
			_, err := st.Insert(ctx, "counting", medcrypt.Document{})
			require.NoError(t, err)
		}
		n, err = st.Count(ctx, "counting")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		_, err := st.Insert(ctx, "iso_a", medcrypt.Document{"x": "1"})
		require.NoError(t, err)
		docs, err := st.List(ctx, "iso_b", 0, 0)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
