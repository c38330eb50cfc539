package models

import "time"

// Notification is one entry in an append-only notification log. Admin
// notifications are broadcast; student notifications carry the studentId of
// the addressee.
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	StudentID string    `json:"studentId,omitempty"`
}

// NotificationKind tags the triggering event of an emission. Used together
// with the query id for exactly-once deduplication.
type NotificationKind string

const (
	NotificationCreated  NotificationKind = "created"
	NotificationDeleted  NotificationKind = "deleted"
	NotificationResolved NotificationKind = "resolved"
	NotificationOverdue  NotificationKind = "overdue"
)

// NotificationFilter captures list filtering for notification views.
type NotificationFilter struct {
	Search   string
	Since    *time.Time
	Page     int
	PageSize int
}
