package models

import (
	"strings"
	"time"
)

// QueryStatus is the lifecycle state of a submitted query.
type QueryStatus string

const (
	StatusPending    QueryStatus = "Pending"
	StatusInProgress QueryStatus = "In Progress"
	StatusResolved   QueryStatus = "Resolved"
)

// QueryCategory classifies a query. Others is the fallback for blank or
// unrecognised values.
type QueryCategory string

const (
	CategoryHostel    QueryCategory = "Hostel"
	CategoryMess      QueryCategory = "Mess"
	CategoryLibrary   QueryCategory = "Library"
	CategoryNetwork   QueryCategory = "Network"
	CategoryTransport QueryCategory = "Transport"
	CategoryOthers    QueryCategory = "Others"
)

// QueryPriority ranks urgency.
type QueryPriority string

const (
	PriorityLow    QueryPriority = "Low"
	PriorityMedium QueryPriority = "Medium"
	PriorityHigh   QueryPriority = "High"
)

// Unassigned is the sentinel value for a query without an assignee.
const Unassigned = "Unassigned"

// HistoryEntry records one mutating event on a query. The history slice is
// append-only and never reordered.
type HistoryEntry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
	Type      string    `json:"type"`
}

// Query represents one submitted campus issue.
type Query struct {
	ID           int64          `json:"id"`
	StudentID    string         `json:"studentId"`
	Category     QueryCategory  `json:"category"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Priority     QueryPriority  `json:"priority,omitempty"`
	Status       QueryStatus    `json:"status"`
	AssignedTo   string         `json:"assignedTo,omitempty"`
	Date         time.Time      `json:"date"`
	ResolvedDate *time.Time     `json:"resolvedDate,omitempty"`
	UpdatedAt    *time.Time     `json:"updatedAt,omitempty"`
	Attachment   string         `json:"attachment,omitempty"`
	History      []HistoryEntry `json:"history"`
}

// NormalizedCategory maps blank or unknown categories to Others.
func (q Query) NormalizedCategory() QueryCategory {
	switch QueryCategory(strings.TrimSpace(string(q.Category))) {
	case CategoryHostel, CategoryMess, CategoryLibrary, CategoryNetwork, CategoryTransport, CategoryOthers:
		return QueryCategory(strings.TrimSpace(string(q.Category)))
	default:
		return CategoryOthers
	}
}

// Assignee returns the assigned admin, defaulting to Unassigned.
func (q Query) Assignee() string {
	if strings.TrimSpace(q.AssignedTo) == "" {
		return Unassigned
	}
	return q.AssignedTo
}

// ResolutionTime reports when the query was resolved, falling back to the
// last update stamp. ok is false when neither is present.
func (q Query) ResolutionTime() (time.Time, bool) {
	if q.ResolvedDate != nil {
		return *q.ResolvedDate, true
	}
	if q.Status == StatusResolved && q.UpdatedAt != nil {
		return *q.UpdatedAt, true
	}
	return time.Time{}, false
}

// QueryPatch captures the mutable fields of an update. Nil pointers leave the
// field untouched.
type QueryPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    *QueryCategory `json:"category,omitempty"`
	Priority    *QueryPriority `json:"priority,omitempty"`
	Status      *QueryStatus   `json:"status,omitempty"`
	AssignedTo  *string        `json:"assignedTo,omitempty"`
	Attachment  *string        `json:"attachment,omitempty"`
}

// QueryFilter captures list filtering criteria.
type QueryFilter struct {
	StudentID string
	Status    QueryStatus
	Category  QueryCategory
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
