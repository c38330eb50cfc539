package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/dto"
	"github.com/campusq/helpdesk-api/internal/models"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
	"github.com/campusq/helpdesk-api/pkg/export"
)

// ReportService derives display-ready aggregates from the query list. It
// never stores results and never appends to any log, so recomputing with
// unchanged underlying data yields identical output.
type ReportService struct {
	repo             queryRepository
	overdueThreshold time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

// NewReportService constructs the service.
func NewReportService(repo queryRepository, overdueThreshold time.Duration, logger *zap.Logger) *ReportService {
	if overdueThreshold <= 0 {
		overdueThreshold = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, overdueThreshold: overdueThreshold, logger: logger, now: time.Now}
}

// Build composes the full report over the filtered query set.
func (s *ReportService) Build(ctx context.Context, filter models.QueryFilter) (*dto.QueryReport, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}
	report := Derive(FilterQueries(queries, filter), s.now(), s.overdueThreshold)
	return &report, nil
}

// Dataset flattens the filtered query set into tabular export content.
func (s *ReportService) Dataset(ctx context.Context, filter models.QueryFilter) (export.Dataset, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}

	data := export.Dataset{
		Headers: []string{"ID", "Student", "Category", "Title", "Status", "Assigned To", "Raised On", "Resolved On"},
	}
	for _, q := range FilterQueries(queries, filter) {
		resolved := ""
		if q.ResolvedDate != nil {
			resolved = q.ResolvedDate.Format("2006-01-02")
		}
		data.Rows = append(data.Rows, map[string]string{
			"ID":          strconv.FormatInt(q.ID, 10),
			"Student":     q.StudentID,
			"Category":    string(q.NormalizedCategory()),
			"Title":       q.Title,
			"Status":      string(q.Status),
			"Assigned To": q.Assignee(),
			"Raised On":   q.Date.Format("2006-01-02"),
			"Resolved On": resolved,
		})
	}
	return data, nil
}

// Derive computes the aggregate snapshot from a query set. Pure.
func Derive(queries []models.Query, now time.Time, overdueThreshold time.Duration) dto.QueryReport {
	report := dto.QueryReport{}
	byCategory := map[models.QueryCategory]*dto.CategoryRow{}

	var resolutionTotal float64

	for _, q := range queries {
		report.Totals.Total++
		switch q.Status {
		case models.StatusPending:
			report.Totals.Pending++
			if now.Sub(q.Date) > overdueThreshold {
				report.OverduePending++
			}
		case models.StatusInProgress:
			report.Totals.InProgress++
		case models.StatusResolved:
			report.Totals.Resolved++
			if resolved, ok := q.ResolutionTime(); ok && !q.Date.IsZero() {
				duration := resolved.Sub(q.Date).Hours() / 24
				if duration < 0 {
					duration = 0
				}
				resolutionTotal += duration
				report.ResolvedSampled++
			}
		}

		cat := q.NormalizedCategory()
		row, ok := byCategory[cat]
		if !ok {
			row = &dto.CategoryRow{Category: string(cat)}
			byCategory[cat] = row
		}
		switch q.Status {
		case models.StatusPending:
			row.Pending++
		case models.StatusInProgress:
			row.InProgress++
		case models.StatusResolved:
			row.Resolved++
		}
	}

	if report.ResolvedSampled > 0 {
		report.AvgResolutionDays = resolutionTotal / float64(report.ResolvedSampled)
	}

	report.Categories = make([]dto.CategoryRow, 0, len(byCategory))
	for _, row := range byCategory {
		report.Categories = append(report.Categories, *row)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Category < report.Categories[j].Category
	})

	return report
}
