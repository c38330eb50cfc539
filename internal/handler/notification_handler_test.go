package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/repository"
	"github.com/campusq/helpdesk-api/internal/service"
	"github.com/campusq/helpdesk-api/internal/store"
)

func newNotificationFixture(t *testing.T) (*NotificationHandler, *service.NotificationService) {
	t.Helper()
	notifications := service.NewNotificationService(repository.NewNotificationRepository(store.NewMemoryKV()), nil, zap.NewNop())
	return NewNotificationHandler(notifications), notifications
}

func TestNotificationHandlerListIsRoleScoped(t *testing.T) {
	handler, notifications := newNotificationFixture(t)
	ctx := context.Background()

	notifications.Emit(ctx, service.Event{Kind: models.NotificationCreated, QueryID: 1, Message: "for admins"})
	notifications.Emit(ctx, service.Event{Kind: models.NotificationResolved, QueryID: 1, StudentID: "S001", Message: "for S001"})

	c, w := testContext(t, http.MethodGet, "/notifications", nil, adminClaims())
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)

	c, w = testContext(t, http.MethodGet, "/notifications", nil, studentClaims("S001"))
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	envelope = decodeEnvelope(t, w)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)

	c, w = testContext(t, http.MethodGet, "/notifications", nil, studentClaims("S002"))
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	envelope = decodeEnvelope(t, w)
	assert.Zero(t, envelope.Pagination.TotalCount)
}

func TestNotificationHandlerUnreadAndSeenCycle(t *testing.T) {
	handler, notifications := newNotificationFixture(t)
	ctx := context.Background()

	notifications.Emit(ctx, service.Event{Kind: models.NotificationCreated, QueryID: 1, Message: "fresh"})

	c, w := testContext(t, http.MethodGet, "/notifications/unread", nil, adminClaims())
	handler.Unread(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unread":true`)

	c, w = testContext(t, http.MethodPost, "/notifications/seen", nil, adminClaims())
	handler.MarkSeen(c)
	require.Equal(t, http.StatusNoContent, w.Code)

	c, w = testContext(t, http.MethodGet, "/notifications/unread", nil, adminClaims())
	handler.Unread(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unread":false`)
}

func TestNotificationHandlerRequiresClaims(t *testing.T) {
	handler, _ := newNotificationFixture(t)

	c, w := testContext(t, http.MethodGet, "/notifications", nil, nil)
	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
