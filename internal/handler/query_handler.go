package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/service"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
	"github.com/campusq/helpdesk-api/pkg/response"
)

// QueryHandler exposes query lifecycle endpoints.
type QueryHandler struct {
	queries *service.QueryService
}

// NewQueryHandler constructs QueryHandler.
func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// List godoc
// @Summary List queries
// @Tags Queries
// @Produce json
// @Param search query string false "Search over title, category, studentId"
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param studentId query string false "Scope to one student (admins only)"
// @Param from query string false "Inclusive lower date bound (RFC 3339 or 2006-01-02)"
// @Param to query string false "Inclusive upper date bound"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /queries [get]
func (h *QueryHandler) List(c *gin.Context) {
	filter := buildQueryFilter(c)

	queries, pagination, err := h.queries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, pagination)
}

// Get godoc
// @Summary Get query detail
// @Tags Queries
// @Produce json
// @Param id path int true "Query ID"
// @Success 200 {object} response.Envelope
// @Router /queries/{id} [get]
func (h *QueryHandler) Get(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}

	query, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if claims := currentClaims(c); claims != nil && claims.Role == models.RoleStudent && query.StudentID != claims.StudentID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, query, nil)
}

// Create godoc
// @Summary Submit a query
// @Tags Queries
// @Accept json
// @Produce json
// @Param payload body service.CreateQueryRequest true "Query payload"
// @Success 201 {object} response.Envelope
// @Router /queries [post]
func (h *QueryHandler) Create(c *gin.Context) {
	var req service.CreateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	// Students always submit as themselves.
	if claims := currentClaims(c); claims != nil && claims.Role == models.RoleStudent {
		req.StudentID = claims.StudentID
	}

	query, err := h.queries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, query)
}

// Update godoc
// @Summary Patch a query
// @Tags Queries
// @Accept json
// @Produce json
// @Param id path int true "Query ID"
// @Param payload body service.UpdateQueryRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /queries/{id} [put]
func (h *QueryHandler) Update(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}

	var req service.UpdateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	query, err := h.queries.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, query, nil)
}

// Delete godoc
// @Summary Delete a query
// @Tags Queries
// @Param id path int true "Query ID"
// @Success 204
// @Router /queries/{id} [delete]
func (h *QueryHandler) Delete(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}

	if claims := currentClaims(c); claims != nil && claims.Role == models.RoleStudent {
		query, err := h.queries.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if query.StudentID != claims.StudentID {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
	}

	if err := h.queries.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func queryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query id"))
		return 0, false
	}
	return id, true
}

func buildQueryFilter(c *gin.Context) models.QueryFilter {
	filter := models.QueryFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   models.QueryStatus(c.Query("status")),
		Category: models.QueryCategory(c.Query("category")),
	}

	filter.StudentID = studentScope(c)

	if from, ok := parseDay(c.Query("from"), false); ok {
		filter.From = &from
	}
	if to, ok := parseDay(c.Query("to"), true); ok {
		filter.To = &to
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.PageSize = size
	}
	return filter
}

// parseDay accepts RFC 3339 or bare dates; bare upper bounds extend to end
// of day so the range stays inclusive.
func parseDay(raw string, upper bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
