// Package store provides the persistent key-value facade shared by every
// stateful component. Values are JSON text under logical keys; a change
// signal is published after each successful write so other sessions can
// re-read the affected key.
package store

// Logical keys of the persisted state layout.
const (
	KeyQueries            = "queries"
	KeyUsers              = "users"
	KeyAdminNotifications = "adminNotifications"
	KeyNotificationFlags  = "notificationFlags"
	KeyStudentDetails     = "studentDetails"
	KeyAdminDetails       = "adminDetails"
	KeyLastSeenAdminCount = "lastSeenAdminNotifCount"
	KeyLastSeenAdminTs    = "lastSeenAdminNotifTs"
	studentNotifPrefix    = "notifications_"
	studentLastSeenPrefix = "lastSeenStudentNotifCount_"
)

// StudentNotificationsKey returns the per-student notification log key.
func StudentNotificationsKey(studentID string) string {
	return studentNotifPrefix + studentID
}

// StudentLastSeenKey returns the per-student unread cursor key.
func StudentLastSeenKey(studentID string) string {
	return studentLastSeenPrefix + studentID
}
