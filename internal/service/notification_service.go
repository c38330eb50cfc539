package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/models"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
)

type notificationRepository interface {
	AdminLog(ctx context.Context) ([]models.Notification, error)
	StudentLog(ctx context.Context, studentID string) ([]models.Notification, error)
	AppendAdmin(ctx context.Context, message string, ts time.Time) (models.Notification, error)
	AppendStudent(ctx context.Context, studentID, message string, ts time.Time) (models.Notification, error)
	AdminCursor(ctx context.Context) (int, error)
	SetAdminCursor(ctx context.Context, count int, ts time.Time) error
	StudentCursor(ctx context.Context, studentID string) (int, error)
	SetStudentCursor(ctx context.Context, studentID string, count int) error
	HasFlag(ctx context.Context, kind models.NotificationKind, queryID int64) (bool, error)
	SetFlag(ctx context.Context, kind models.NotificationKind, queryID int64) error
}

// NotificationService is the router fanning transition events out into the
// admin and per-student streams. It is the only writer of notification
// entries and cursors; it reads query state only through events.
type NotificationService struct {
	repo    notificationRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService constructs the router.
func NewNotificationService(repo notificationRepository, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Emit appends the event to its stream. Fire-and-forget: a failed write
// loses the emission and is not retried.
func (s *NotificationService) Emit(ctx context.Context, event Event) {
	var err error
	if event.StudentID == "" {
		_, err = s.repo.AppendAdmin(ctx, event.Message, s.now())
	} else {
		_, err = s.repo.AppendStudent(ctx, event.StudentID, event.Message, s.now())
	}
	if err != nil {
		s.logger.Warn("notification emission lost",
			zap.String("kind", string(event.Kind)),
			zap.Int64("query_id", event.QueryID),
			zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveNotification(string(event.Kind))
	}
}

// EmitOnce emits only if no notification of the same kind was recorded for
// the same query before. Dedup is keyed by (kind, query id), not by message
// text. Reports whether an emission happened.
func (s *NotificationService) EmitOnce(ctx context.Context, event Event) bool {
	flagged, err := s.repo.HasFlag(ctx, event.Kind, event.QueryID)
	if err != nil {
		s.logger.Warn("dedup flag read failed", zap.Int64("query_id", event.QueryID), zap.Error(err))
		return false
	}
	if flagged {
		return false
	}

	s.Emit(ctx, event)

	if err := s.repo.SetFlag(ctx, event.Kind, event.QueryID); err != nil {
		s.logger.Warn("dedup flag write failed", zap.Int64("query_id", event.QueryID), zap.Error(err))
	}
	return true
}

// AdminList returns the admin log matching the filter, newest first.
func (s *NotificationService) AdminList(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	log, err := s.repo.AdminLog(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin notifications")
	}
	items, pagination := filterNotifications(log, filter)
	return items, pagination, nil
}

// StudentList returns one student's log matching the filter, newest first.
func (s *NotificationService) StudentList(ctx context.Context, studentID string, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	log, err := s.repo.StudentLog(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student notifications")
	}
	items, pagination := filterNotifications(log, filter)
	return items, pagination, nil
}

// MarkAdminSeen advances the admin unread cursor to the current log length.
// Called only on an explicit visit to the notification view.
func (s *NotificationService) MarkAdminSeen(ctx context.Context) error {
	log, err := s.repo.AdminLog(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin notifications")
	}
	if err := s.repo.SetAdminCursor(ctx, len(log), s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance admin cursor")
	}
	return nil
}

// MarkStudentSeen advances the student's unread cursor.
func (s *NotificationService) MarkStudentSeen(ctx context.Context, studentID string) error {
	log, err := s.repo.StudentLog(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student notifications")
	}
	if err := s.repo.SetStudentCursor(ctx, studentID, len(log)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance student cursor")
	}
	return nil
}

// AdminUnread reports whether the admin log outgrew the cursor.
func (s *NotificationService) AdminUnread(ctx context.Context) (bool, error) {
	log, err := s.repo.AdminLog(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin notifications")
	}
	cursor, err := s.repo.AdminCursor(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin cursor")
	}
	return len(log) > cursor, nil
}

// StudentUnread reports whether the student's log outgrew their cursor.
func (s *NotificationService) StudentUnread(ctx context.Context, studentID string) (bool, error) {
	log, err := s.repo.StudentLog(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student notifications")
	}
	cursor, err := s.repo.StudentCursor(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student cursor")
	}
	return len(log) > cursor, nil
}

// filterNotifications sorts newest-first at read time regardless of the
// stored append order.
func filterNotifications(log []models.Notification, filter models.NotificationFilter) ([]models.Notification, *models.Pagination) {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.Notification, 0, len(log))
	for _, n := range log {
		if term != "" && !strings.Contains(strings.ToLower(n.Message), term) {
			continue
		}
		if filter.Since != nil && n.Timestamp.Before(*filter.Since) {
			continue
		}
		matched = append(matched, n)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
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

	return matched[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
