package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusq/helpdesk-api/internal/dto"
	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/service"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
	"github.com/campusq/helpdesk-api/pkg/export"
	"github.com/campusq/helpdesk-api/pkg/response"
)

// ReportHandler serves derived aggregates and tabular exports.
type ReportHandler struct {
	reports       *service.ReportService
	notifications *service.NotificationService
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	exportEnabled bool
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, notifications *service.NotificationService, exportEnabled bool) *ReportHandler {
	return &ReportHandler{
		reports:       reports,
		notifications: notifications,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		exportEnabled: exportEnabled,
	}
}

// Report godoc
// @Summary Derived query aggregates
// @Tags Reports
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param studentId query string false "Scope to one student (admins only)"
// @Param from query string false "Inclusive lower date bound"
// @Param to query string false "Inclusive upper date bound"
// @Success 200 {object} response.Envelope
// @Router /reports/queries [get]
func (h *ReportHandler) Report(c *gin.Context) {
	report, err := h.reports.Build(c.Request.Context(), buildQueryFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Summary godoc
// @Summary Dashboard totals with the caller's unread indicator
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.reports.Build(c.Request.Context(), buildQueryFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var unread bool
	if claims.Role == models.RoleAdmin {
		unread, err = h.notifications.AdminUnread(c.Request.Context())
	} else {
		unread, err = h.notifications.StudentUnread(c.Request.Context(), claims.StudentID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	summary := dto.DashboardSummary{
		Totals:         report.Totals,
		OverduePending: report.OverduePending,
		Unread:         unread,
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportCSV godoc
// @Summary Export the filtered query list as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {string} string "CSV content"
// @Router /reports/queries/export.csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	data, err := h.reports.Dataset(c.Request.Context(), buildQueryFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.csv.Render(data)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
		return
	}

	filename := fmt.Sprintf("queries-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", content)
}

// ExportPDF godoc
// @Summary Export the filtered query list as PDF
// @Tags Reports
// @Produce application/pdf
// @Success 200 {string} string "PDF content"
// @Router /reports/queries/export.pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	data, err := h.reports.Dataset(c.Request.Context(), buildQueryFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.pdf.Render(data, "Helpdesk Queries")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
		return
	}

	filename := fmt.Sprintf("queries-%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", content)
}
