package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/models"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
)

var errResolvedEdit = appErrors.Clone(appErrors.ErrResolved, "resolved queries cannot be edited")

type queryRepository interface {
	List(ctx context.Context) ([]models.Query, error)
	Save(ctx context.Context, queries []models.Query) error
}

type notificationEmitter interface {
	Emit(ctx context.Context, event Event)
	EmitOnce(ctx context.Context, event Event) bool
}

// QueryService owns the canonical query list and routes transition events to
// the notification router. All mutations go through the Apply reducer.
type QueryService struct {
	repo      queryRepository
	notifier  notificationEmitter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewQueryService constructs the service.
func NewQueryService(repo queryRepository, notifier notificationEmitter, validate *validator.Validate, logger *zap.Logger) *QueryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &QueryService{repo: repo, notifier: notifier, validator: validate, logger: logger, now: time.Now}
	registerQueryValidations(svc.validator)
	return svc
}

func registerQueryValidations(v *validator.Validate) {
	_ = v.RegisterValidation("querystatus", func(fl validator.FieldLevel) bool {
		switch models.QueryStatus(fl.Field().String()) {
		case models.StatusPending, models.StatusInProgress, models.StatusResolved:
			return true
		default:
			return false
		}
	})
	_ = v.RegisterValidation("querypriority", func(fl validator.FieldLevel) bool {
		switch models.QueryPriority(fl.Field().String()) {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			return true
		default:
			return false
		}
	})
}

// CreateQueryRequest describes the submission payload.
type CreateQueryRequest struct {
	StudentID   string `json:"studentId" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"omitempty,querypriority"`
	Attachment  string `json:"attachment"`
}

// UpdateQueryRequest describes the patch payload. Absent fields stay as-is.
type UpdateQueryRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority" validate:"omitempty,querypriority"`
	Status      *string `json:"status" validate:"omitempty,querystatus"`
	AssignedTo  *string `json:"assignedTo"`
	Attachment  *string `json:"attachment"`
}

// Create registers a new query and notifies administrators.
func (s *QueryService) Create(ctx context.Context, req CreateQueryRequest) (*models.Query, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query payload")
	}

	queries, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}

	next, events, _, err := Apply(queries, AddQuery{
		StudentID:   req.StudentID,
		Category:    models.QueryCategory(req.Category),
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.QueryPriority(req.Priority),
		Attachment:  req.Attachment,
	}, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply command")
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist queries")
	}

	s.emit(ctx, events)
	created := next[len(next)-1]
	return &created, nil
}

// Update merges a patch into an existing query. Each real change to status
// or assignee grows the history by exactly one entry; a transition to
// Resolved notifies the submitting student exactly once.
func (s *QueryService) Update(ctx context.Context, id int64, req UpdateQueryRequest) (*models.Query, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid patch payload")
	}

	queries, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}

	next, events, changed, err := Apply(queries, UpdateQuery{ID: id, Patch: req.patch()}, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "query not found")
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist queries")
	}

	s.emit(ctx, events)
	for i := range next {
		if next[i].ID == id {
			return &next[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "query not found")
}

// Delete removes a query and notifies administrators about the deletion.
func (s *QueryService) Delete(ctx context.Context, id int64) error {
	queries, err := s.repo.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}

	next, events, changed, err := Apply(queries, DeleteQuery{ID: id}, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply command")
	}
	if !changed {
		return appErrors.Clone(appErrors.ErrNotFound, "query not found")
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist queries")
	}

	s.emit(ctx, events)
	return nil
}

// Get returns a query by id.
func (s *QueryService) Get(ctx context.Context, id int64) (*models.Query, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}
	for i := range queries {
		if queries[i].ID == id {
			return &queries[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "query not found")
}

// List returns queries matching the filter, newest first, paginated.
func (s *QueryService) List(ctx context.Context, filter models.QueryFilter) ([]models.Query, *models.Pagination, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queries")
	}

	matched := FilterQueries(queries, filter)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}

	total := len(matched)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return matched[start:end], pagination, nil
}

// FilterQueries applies the student scope, status and category filters, the
// free-text search over title, category and studentId, and the inclusive
// date-range bounds.
func FilterQueries(queries []models.Query, filter models.QueryFilter) []models.Query {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.Query, 0, len(queries))
	for _, q := range queries {
		if filter.StudentID != "" && q.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if filter.Category != "" && q.NormalizedCategory() != filter.Category {
			continue
		}
		if term != "" {
			haystack := strings.ToLower(q.Title + " " + string(q.Category) + " " + q.StudentID)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		if filter.From != nil && q.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && q.Date.After(*filter.To) {
			continue
		}
		matched = append(matched, q)
	}
	return matched
}

// emit routes transition events to the notification streams. Emission is
// fire-and-forget; a lost notification is acceptable, a lost query is not.
func (s *QueryService) emit(ctx context.Context, events []Event) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.Emit(ctx, event)
	}
}

func (r UpdateQueryRequest) patch() models.QueryPatch {
	patch := models.QueryPatch{
		Title:       r.Title,
		Description: r.Description,
		Attachment:  r.Attachment,
		AssignedTo:  r.AssignedTo,
	}
	if r.Category != nil {
		c := models.QueryCategory(*r.Category)
		patch.Category = &c
	}
	if r.Priority != nil {
		p := models.QueryPriority(*r.Priority)
		patch.Priority = &p
	}
	if r.Status != nil {
		st := models.QueryStatus(*r.Status)
		patch.Status = &st
	}
	return patch
}
