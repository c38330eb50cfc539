package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/store"
)

func TestQueryRepositoryRoundTrip(t *testing.T) {
	repo := NewQueryRepository(store.NewMemoryKV())
	ctx := context.Background()

	queries, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, queries)

	resolved := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	in := []models.Query{{
		ID:           1,
		StudentID:    "S001",
		Category:     models.CategoryLibrary,
		Title:        "Lost book",
		Status:       models.StatusResolved,
		Date:         resolved.Add(-48 * time.Hour),
		ResolvedDate: &resolved,
		History: []models.HistoryEntry{
			{Text: "Status changed to Resolved by Admin on 10 Mar 2026, 9:00 AM", Timestamp: resolved, Type: "status"},
		},
	}}
	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].ID, out[0].ID)
	require.NotNil(t, out[0].ResolvedDate)
	assert.True(t, out[0].ResolvedDate.Equal(resolved))
	require.Len(t, out[0].History, 1)
	assert.Equal(t, "status", out[0].History[0].Type)
}

func TestQueryRepositoryMalformedStateReadsEmpty(t *testing.T) {
	kv := store.NewMemoryKV()
	repo := NewQueryRepository(kv)
	ctx := context.Background()

	kv.SetRaw(store.KeyQueries, []byte("[[["))

	queries, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, queries)
}
