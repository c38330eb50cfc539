package models

import "time"

// UserRole represents the available roles.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// User represents an application user stored under the users key. Queries
// reference StudentID by value; deleting a user does not cascade to queries.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	StudentID    string    `json:"studentId,omitempty"`
	Department   string    `json:"department,omitempty"`
	AdminRole    string    `json:"adminRole,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the editable student/admin profile record.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	StudentID  string `json:"studentId,omitempty"`
	Department string `json:"department,omitempty"`
	AdminRole  string `json:"adminRole,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
