package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardman/internal/models"
	"cardman/internal/store"
)

func TestPutGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := store.Key{Partition: "card-1"}

	_, err := s.Get(ctx, "cards", key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	doc := models.Document{"card_id": "card-1", "bank": "Chase"}
	require.NoError(t, s.Put(ctx, "cards", key, doc))

	got, err := s.Get(ctx, "cards", key)
	require.NoError(t, err)
	assert.Equal(t, "Chase", got.GetString("bank"))

	// Mutating a returned document must not leak into the store.
	got["bank"] = "Amex"
	again, err := s.Get(ctx, "cards", key)
	require.NoError(t, err)
	assert.Equal(t, "Chase", again.GetString("bank"))

	require.NoError(t, s.Delete(ctx, "cards", key))
	assert.ErrorIs(t, s.Delete(ctx, "cards", key), store.ErrNotFound)
}

func TestMerge(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := store.Key{Partition: "u1", Sort: "card-1"}

	_, err := s.Merge(ctx, "user_cards", key, models.Document{"notes": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, "user_cards", key, models.Document{
		"notes":       "old",
		"card_status": "active",
	}))

	merged, err := s.Merge(ctx, "user_cards", key, models.Document{"notes": "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", merged.GetString("notes"))
	assert.Equal(t, "active", merged.GetString("card_status"), "untouched fields survive the merge")
}

func TestQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "user_cards", store.Key{Partition: "u1", Sort: "b"}, models.Document{"card_id": "b", "card_status": "active"}))
	require.NoError(t, s.Put(ctx, "user_cards", store.Key{Partition: "u1", Sort: "a"}, models.Document{"card_id": "a", "card_status": "frozen"}))
	require.NoError(t, s.Put(ctx, "user_cards", store.Key{Partition: "u2", Sort: "c"}, models.Document{"card_id": "c", "card_status": "active"}))

	items, err := s.Query(ctx, "user_cards", "u1", nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].GetString("card_id"))
	assert.Equal(t, "b", items[1].GetString("card_id"))

	active, err := s.Query(ctx, "user_cards", "u1", func(d models.Document) bool {
		return d.GetString("card_status") == "active"
	})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].GetString("card_id"))
}

func TestScanPagination(t *testing.T) {
	s := New()
	s.PageSize = 1
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		require.NoError(t, s.Put(ctx, "cards", store.Key{Partition: id}, models.Document{"card_id": id}))
	}

	var got []string
	cursor := ""
	pages := 0
	for {
		page, err := s.Scan(ctx, "cards", store.ScanOptions{Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, item := range page.Items {
			got = append(got, item.GetString("card_id"))
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	assert.Equal(t, ids, got)
	assert.GreaterOrEqual(t, pages, 3, "page size 1 must force continuation")
}

func TestScanFilterConsumesPage(t *testing.T) {
	s := New()
	s.PageSize = 2
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "cards", store.Key{Partition: "a"}, models.Document{"card_id": "a", "bank": "Chase"}))
	require.NoError(t, s.Put(ctx, "cards", store.Key{Partition: "b"}, models.Document{"card_id": "b", "bank": "Amex"}))
	require.NoError(t, s.Put(ctx, "cards", store.Key{Partition: "c"}, models.Document{"card_id": "c", "bank": "Chase"}))

	onlyChase := func(d models.Document) bool { return d.GetString("bank") == "Chase" }

	var got []string
	cursor := ""
	for {
		page, err := s.Scan(ctx, "cards", store.ScanOptions{Cursor: cursor, Filter: onlyChase})
		require.NoError(t, err)
		for _, item := range page.Items {
			got = append(got, item.GetString("card_id"))
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	assert.Equal(t, []string{"a", "c"}, got)
}
