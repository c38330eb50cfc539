package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/repository"
	"github.com/campusq/helpdesk-api/internal/store"
)

func TestOverdueScannerFlagsEachQueryOnce(t *testing.T) {
	now := fixedTime()

	overdue := pendingQuery(1)
	overdue.Date = now.Add(-100 * time.Hour)
	fresh := pendingQuery(2)
	fresh.Date = now.Add(-1 * time.Hour)

	repo := &mockQueryRepo{queries: []models.Query{overdue, fresh}}
	notifications := NewNotificationService(repository.NewNotificationRepository(store.NewMemoryKV()), nil, zap.NewNop())

	scanner := NewOverdueScanner(repo, notifications, 72*time.Hour, time.Minute, zap.NewNop())
	scanner.now = func() time.Time { return now }

	emitted, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emitted)

	// Rescanning the same state emits nothing new.
	emitted, err = scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, emitted)

	log, _, err := notifications.AdminList(context.Background(), models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Contains(t, log[0].Message, "Pending for more than 3 days")
}

func TestOverdueScannerPicksUpNewlyOverdue(t *testing.T) {
	now := fixedTime()

	first := pendingQuery(1)
	first.Date = now.Add(-100 * time.Hour)

	repo := &mockQueryRepo{queries: []models.Query{first}}
	notifications := NewNotificationService(repository.NewNotificationRepository(store.NewMemoryKV()), nil, zap.NewNop())

	scanner := NewOverdueScanner(repo, notifications, 72*time.Hour, time.Minute, zap.NewNop())
	scanner.now = func() time.Time { return now }

	emitted, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emitted)

	second := pendingQuery(2)
	second.Date = now.Add(-90 * time.Hour)
	repo.queries = append(repo.queries, second)

	emitted, err = scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emitted)
}
