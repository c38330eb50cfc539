package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/store"
)

// NotificationRepository persists the admin and per-student notification
// logs, the unread cursors, and the emission dedup flags. It is the only
// writer of those keys.
type NotificationRepository struct {
	kv store.KV
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(kv store.KV) *NotificationRepository {
	return &NotificationRepository{kv: kv}
}

// AdminLog returns the broadcast admin log in append order.
func (r *NotificationRepository) AdminLog(ctx context.Context) ([]models.Notification, error) {
	return r.readLog(ctx, store.KeyAdminNotifications)
}

// StudentLog returns the log scoped to one student in append order.
func (r *NotificationRepository) StudentLog(ctx context.Context, studentID string) ([]models.Notification, error) {
	return r.readLog(ctx, store.StudentNotificationsKey(studentID))
}

// AppendAdmin appends one entry to the admin log and returns it.
func (r *NotificationRepository) AppendAdmin(ctx context.Context, message string, ts time.Time) (models.Notification, error) {
	return r.append(ctx, store.KeyAdminNotifications, models.Notification{Message: message, Timestamp: ts})
}

// AppendStudent appends one entry to the student's log and returns it.
func (r *NotificationRepository) AppendStudent(ctx context.Context, studentID, message string, ts time.Time) (models.Notification, error) {
	entry := models.Notification{Message: message, Timestamp: ts, StudentID: studentID}
	return r.append(ctx, store.StudentNotificationsKey(studentID), entry)
}

// AdminCursor returns the admin unread cursor (last-seen count).
func (r *NotificationRepository) AdminCursor(ctx context.Context) (int, error) {
	return r.readCursor(ctx, store.KeyLastSeenAdminCount)
}

// SetAdminCursor advances the admin cursor. The timestamp alias key is kept
// in step with the original persisted layout.
func (r *NotificationRepository) SetAdminCursor(ctx context.Context, count int, ts time.Time) error {
	if err := r.kv.Write(ctx, store.KeyLastSeenAdminCount, count); err != nil {
		return fmt.Errorf("write admin cursor: %w", err)
	}
	if err := r.kv.Write(ctx, store.KeyLastSeenAdminTs, ts.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write admin cursor ts: %w", err)
	}
	return nil
}

// StudentCursor returns the student's unread cursor.
func (r *NotificationRepository) StudentCursor(ctx context.Context, studentID string) (int, error) {
	return r.readCursor(ctx, store.StudentLastSeenKey(studentID))
}

// SetStudentCursor advances the student's cursor.
func (r *NotificationRepository) SetStudentCursor(ctx context.Context, studentID string, count int) error {
	if err := r.kv.Write(ctx, store.StudentLastSeenKey(studentID), count); err != nil {
		return fmt.Errorf("write student cursor: %w", err)
	}
	return nil
}

// HasFlag reports whether the (kind, queryID) pair was already emitted.
func (r *NotificationRepository) HasFlag(ctx context.Context, kind models.NotificationKind, queryID int64) (bool, error) {
	flags, err := r.readFlags(ctx)
	if err != nil {
		return false, err
	}
	_, ok := flags[flagKey(kind, queryID)]
	return ok, nil
}

// SetFlag records the (kind, queryID) pair as emitted.
func (r *NotificationRepository) SetFlag(ctx context.Context, kind models.NotificationKind, queryID int64) error {
	flags, err := r.readFlags(ctx)
	if err != nil {
		return err
	}
	flags[flagKey(kind, queryID)] = true
	if err := r.kv.Write(ctx, store.KeyNotificationFlags, flags); err != nil {
		return fmt.Errorf("write notification flags: %w", err)
	}
	return nil
}

func (r *NotificationRepository) readLog(ctx context.Context, key string) ([]models.Notification, error) {
	log := []models.Notification{}
	if _, err := r.kv.Read(ctx, key, &log); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return log, nil
}

func (r *NotificationRepository) append(ctx context.Context, key string, entry models.Notification) (models.Notification, error) {
	log, err := r.readLog(ctx, key)
	if err != nil {
		return models.Notification{}, err
	}

	entry.ID = entry.Timestamp.UnixMilli()
	if n := len(log); n > 0 && entry.ID <= log[n-1].ID {
		entry.ID = log[n-1].ID + 1
	}

	log = append(log, entry)
	if err := r.kv.Write(ctx, key, log); err != nil {
		return models.Notification{}, fmt.Errorf("append %s: %w", key, err)
	}
	return entry, nil
}

func (r *NotificationRepository) readCursor(ctx context.Context, key string) (int, error) {
	cursor := 0
	if _, err := r.kv.Read(ctx, key, &cursor); err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return cursor, nil
}

func (r *NotificationRepository) readFlags(ctx context.Context) (map[string]bool, error) {
	flags := map[string]bool{}
	if _, err := r.kv.Read(ctx, store.KeyNotificationFlags, &flags); err != nil {
		return nil, fmt.Errorf("read notification flags: %w", err)
	}
	return flags, nil
}

func flagKey(kind models.NotificationKind, queryID int64) string {
	return fmt.Sprintf("%s:%d", kind, queryID)
}
