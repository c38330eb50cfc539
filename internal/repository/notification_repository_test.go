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

func TestNotificationRepositoryAppendKeepsOrder(t *testing.T) {
	repo := NewNotificationRepository(store.NewMemoryKV())
	ctx := context.Background()
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	first, err := repo.AppendAdmin(ctx, "one", ts)
	require.NoError(t, err)
	second, err := repo.AppendAdmin(ctx, "two", ts.Add(time.Second))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	log, err := repo.AdminLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "one", log[0].Message)
	assert.Equal(t, "two", log[1].Message)
}

func TestNotificationRepositoryAppendBumpsCollidingIDs(t *testing.T) {
	repo := NewNotificationRepository(store.NewMemoryKV())
	ctx := context.Background()
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	first, err := repo.AppendAdmin(ctx, "one", ts)
	require.NoError(t, err)
	second, err := repo.AppendAdmin(ctx, "two", ts)
	require.NoError(t, err)
	assert.Equal(t, first.ID+1, second.ID)
}

func TestNotificationRepositoryStudentLogsAreIsolated(t *testing.T) {
	repo := NewNotificationRepository(store.NewMemoryKV())
	ctx := context.Background()
	ts := time.Now()

	_, err := repo.AppendStudent(ctx, "S001", "for s001", ts)
	require.NoError(t, err)

	s1, err := repo.StudentLog(ctx, "S001")
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "S001", s1[0].StudentID)

	s2, err := repo.StudentLog(ctx, "S002")
	require.NoError(t, err)
	assert.Empty(t, s2)
}

func TestNotificationRepositoryCursors(t *testing.T) {
	repo := NewNotificationRepository(store.NewMemoryKV())
	ctx := context.Background()

	cursor, err := repo.AdminCursor(ctx)
	require.NoError(t, err)
	assert.Zero(t, cursor)

	require.NoError(t, repo.SetAdminCursor(ctx, 3, time.Now()))
	cursor, err = repo.AdminCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cursor)

	require.NoError(t, repo.SetStudentCursor(ctx, "S001", 2))
	cursor, err = repo.StudentCursor(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, 2, cursor)

	cursor, err = repo.StudentCursor(ctx, "S002")
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestNotificationRepositoryFlags(t *testing.T) {
	repo := NewNotificationRepository(store.NewMemoryKV())
	ctx := context.Background()

	has, err := repo.HasFlag(ctx, models.NotificationOverdue, 42)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.SetFlag(ctx, models.NotificationOverdue, 42))

	has, err = repo.HasFlag(ctx, models.NotificationOverdue, 42)
	require.NoError(t, err)
	assert.True(t, has)

	// Other kinds and ids stay unflagged.
	has, err = repo.HasFlag(ctx, models.NotificationResolved, 42)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = repo.HasFlag(ctx, models.NotificationOverdue, 43)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestNotificationRepositorySurvivesMalformedLog(t *testing.T) {
	kv := store.NewMemoryKV()
	repo := NewNotificationRepository(kv)
	ctx := context.Background()

	kv.SetRaw(store.KeyAdminNotifications, []byte("{not json"))

	log, err := repo.AdminLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, log)

	_, err = repo.AppendAdmin(ctx, "fresh start", time.Now())
	require.NoError(t, err)
	log, err = repo.AdminLog(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 1)
}
