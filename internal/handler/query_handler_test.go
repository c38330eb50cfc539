package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/middleware"
	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/repository"
	"github.com/campusq/helpdesk-api/internal/service"
	"github.com/campusq/helpdesk-api/internal/store"
	"github.com/campusq/helpdesk-api/pkg/response"
)

func newQueryFixture(t *testing.T) (*QueryHandler, *service.QueryService, *service.NotificationService) {
	t.Helper()
	kv := store.NewMemoryKV()
	notifications := service.NewNotificationService(repository.NewNotificationRepository(kv), nil, zap.NewNop())
	queries := service.NewQueryService(repository.NewQueryRepository(kv), notifications, nil, zap.NewNop())
	return NewQueryHandler(queries), queries, notifications
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func studentClaims(studentID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent, StudentID: studentID}
}

func testContext(t *testing.T, method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestQueryHandlerCreateForcesStudentIdentity(t *testing.T) {
	handler, queries, _ := newQueryFixture(t)

	c, w := testContext(t, http.MethodPost, "/queries", map[string]string{
		"studentId": "S999",
		"category":  "Hostel",
		"title":     "Hot water",
	}, studentClaims("S001"))

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	list, _, err := queries.List(c.Request.Context(), models.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "S001", list[0].StudentID)
}

func TestQueryHandlerCreateRejectsInvalidPayload(t *testing.T) {
	handler, _, _ := newQueryFixture(t)

	c, w := testContext(t, http.MethodPost, "/queries", map[string]string{"title": "no category"}, adminClaims())
	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHandlerListScopesStudents(t *testing.T) {
	handler, queries, _ := newQueryFixture(t)
	ctx := context.Background()

	_, err := queries.Create(ctx, service.CreateQueryRequest{StudentID: "S001", Category: "Hostel", Title: "mine"})
	require.NoError(t, err)
	_, err = queries.Create(ctx, service.CreateQueryRequest{StudentID: "S002", Category: "Mess", Title: "theirs"})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodGet, "/queries?studentId=S002", nil, studentClaims("S001"))
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestQueryHandlerAdminMayScopeByStudent(t *testing.T) {
	handler, queries, _ := newQueryFixture(t)
	ctx := context.Background()

	_, err := queries.Create(ctx, service.CreateQueryRequest{StudentID: "S001", Category: "Hostel", Title: "a"})
	require.NoError(t, err)
	_, err = queries.Create(ctx, service.CreateQueryRequest{StudentID: "S002", Category: "Mess", Title: "b"})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodGet, "/queries?studentId=S002", nil, adminClaims())
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestQueryHandlerGetBlocksForeignQuery(t *testing.T) {
	handler, queries, _ := newQueryFixture(t)
	ctx := context.Background()

	created, err := queries.Create(ctx, service.CreateQueryRequest{StudentID: "S002", Category: "Mess", Title: "b"})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodGet, "/queries/x", nil, studentClaims("S001"))
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", created.ID)}}
	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestQueryHandlerUpdateInvalidID(t *testing.T) {
	handler, _, _ := newQueryFixture(t)

	c, w := testContext(t, http.MethodPut, "/queries/abc", map[string]string{"status": "Resolved"}, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHandlerResolveNotifiesStudent(t *testing.T) {
	handler, queries, notifications := newQueryFixture(t)
	ctx := context.Background()

	created, err := queries.Create(ctx, service.CreateQueryRequest{StudentID: "S001", Category: "Network", Title: "slow wifi"})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodPut, "/queries/x", map[string]string{"status": "Resolved"}, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", created.ID)}}
	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)

	log, _, err := notifications.StudentList(ctx, "S001", models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Contains(t, log[0].Message, "has been resolved")
}

func TestQueryHandlerDeleteBlocksForeignQuery(t *testing.T) {
	handler, queries, _ := newQueryFixture(t)
	ctx := context.Background()

	created, err := queries.Create(ctx, service.CreateQueryRequest{StudentID: "S002", Category: "Mess", Title: "b"})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodDelete, "/queries/x", nil, studentClaims("S001"))
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", created.ID)}}
	handler.Delete(c)
	require.Equal(t, http.StatusForbidden, w.Code)

	list, _, err := queries.List(ctx, models.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
