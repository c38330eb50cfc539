package service

import (
	"fmt"
	"time"

	"github.com/campusq/helpdesk-api/internal/models"
)

// Command is the closed set of mutations on the query list. Each command maps
// to one pure transition from (queries, command) to (new queries, emitted
// events); side effects are returned, never performed inline.
type Command interface {
	isCommand()
}

// AddQuery appends a freshly submitted query.
type AddQuery struct {
	StudentID   string
	Category    models.QueryCategory
	Title       string
	Description string
	Priority    models.QueryPriority
	Attachment  string
}

// UpdateQuery merges a patch into the query matched by ID.
type UpdateQuery struct {
	ID    int64
	Patch models.QueryPatch
}

// DeleteQuery removes the query matched by ID.
type DeleteQuery struct {
	ID int64
}

func (AddQuery) isCommand()    {}
func (UpdateQuery) isCommand() {}
func (DeleteQuery) isCommand() {}

// Event is a notification emission produced by a transition. StudentID is
// the addressee for the student stream; empty means the admin stream.
type Event struct {
	Kind      models.NotificationKind
	QueryID   int64
	StudentID string
	Message   string
}

// Apply runs one command against the query list. changed reports whether the
// list was mutated; an unknown id is a no-op, not an error. The only error
// case is a rejected edit of a resolved query.
func Apply(queries []models.Query, cmd Command, now time.Time) (out []models.Query, events []Event, changed bool, err error) {
	switch c := cmd.(type) {
	case AddQuery:
		out, events = applyAdd(queries, c, now)
		return out, events, true, nil
	case UpdateQuery:
		return applyUpdate(queries, c, now)
	case DeleteQuery:
		out, events, changed = applyDelete(queries, c, now)
		return out, events, changed, nil
	default:
		return queries, nil, false, fmt.Errorf("unknown command %T", cmd)
	}
}

func applyAdd(queries []models.Query, cmd AddQuery, now time.Time) ([]models.Query, []Event) {
	id := now.UnixMilli()
	for _, q := range queries {
		if q.ID >= id {
			id = q.ID + 1
		}
	}

	query := models.Query{
		ID:          id,
		StudentID:   cmd.StudentID,
		Category:    cmd.Category,
		Title:       cmd.Title,
		Description: cmd.Description,
		Priority:    cmd.Priority,
		Status:      models.StatusPending,
		Date:        now,
		Attachment:  cmd.Attachment,
		History:     []models.HistoryEntry{},
	}

	out := append(append([]models.Query{}, queries...), query)
	events := []Event{{
		Kind:      models.NotificationCreated,
		QueryID:   query.ID,
		Message:   fmt.Sprintf("Student %s raised a query %q (ID: %d) on %s", query.StudentID, query.Title, query.ID, humanTime(now)),
	}}
	return out, events
}

func applyUpdate(queries []models.Query, cmd UpdateQuery, now time.Time) ([]models.Query, []Event, bool, error) {
	idx := -1
	for i, q := range queries {
		if q.ID == cmd.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return queries, nil, false, nil
	}

	old := queries[idx]
	next := old
	patch := cmd.Patch

	if old.Status == models.StatusResolved && touchesContent(patch) {
		return queries, nil, false, errResolvedEdit
	}

	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.AssignedTo != nil {
		next.AssignedTo = *patch.AssignedTo
	}
	if patch.Attachment != nil {
		next.Attachment = *patch.Attachment
	}

	var events []Event
	next.History = append([]models.HistoryEntry{}, old.History...)

	// Comparing old vs new status and assignee is the sole trigger for
	// history growth and notification emission.
	if next.Status != old.Status {
		next.History = append(next.History, models.HistoryEntry{
			Text:      fmt.Sprintf("Status changed to %s by Admin on %s", next.Status, humanTime(now)),
			Timestamp: now,
			Type:      "status",
		})
		if next.Status == models.StatusResolved {
			resolved := now
			next.ResolvedDate = &resolved
			events = append(events, Event{
				Kind:      models.NotificationResolved,
				QueryID:   next.ID,
				StudentID: next.StudentID,
				Message:   fmt.Sprintf("Your query %q (ID: %d) has been resolved on %s", next.Title, next.ID, humanTime(now)),
			})
		}
	}
	if next.Assignee() != old.Assignee() {
		next.History = append(next.History, models.HistoryEntry{
			Text:      fmt.Sprintf("Assigned to %s on %s", next.Assignee(), humanTime(now)),
			Timestamp: now,
			Type:      "assign",
		})
	}

	updated := now
	next.UpdatedAt = &updated

	out := append([]models.Query{}, queries...)
	out[idx] = next
	return out, events, true, nil
}

func applyDelete(queries []models.Query, cmd DeleteQuery, now time.Time) ([]models.Query, []Event, bool) {
	idx := -1
	for i, q := range queries {
		if q.ID == cmd.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return queries, nil, false
	}

	deleted := queries[idx]
	out := append([]models.Query{}, queries[:idx]...)
	out = append(out, queries[idx+1:]...)

	events := []Event{{
		Kind:    models.NotificationDeleted,
		QueryID: deleted.ID,
		Message: fmt.Sprintf("Student %s deleted query %q (ID: %d) on %s", deleted.StudentID, deleted.Title, deleted.ID, humanTime(now)),
	}}
	return out, events, true
}

// OverdueEvents returns one candidate admin notification per pending query
// older than the threshold. Deduplication against already-flagged queries is
// the caller's job.
func OverdueEvents(queries []models.Query, now time.Time, threshold time.Duration) []Event {
	days := int(threshold.Hours() / 24)
	var events []Event
	for _, q := range queries {
		if q.Status != models.StatusPending {
			continue
		}
		if now.Sub(q.Date) <= threshold {
			continue
		}
		events = append(events, Event{
			Kind:    models.NotificationOverdue,
			QueryID: q.ID,
			Message: fmt.Sprintf("Query %q (ID: %d) from student %s has been Pending for more than %d days", q.Title, q.ID, q.StudentID, days),
		})
	}
	return events
}

// touchesContent reports whether the patch edits fields frozen after
// resolution. Status and assignment corrections stay allowed.
func touchesContent(p models.QueryPatch) bool {
	return p.Title != nil || p.Description != nil || p.Category != nil || p.Priority != nil || p.Attachment != nil
}

func humanTime(t time.Time) string {
	return t.Format("02 Jan 2006, 3:04 PM")
}
