package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusq/helpdesk-api/internal/models"
)

func fixedTime() time.Time {
	return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
}

func pendingQuery(id int64) models.Query {
	return models.Query{
		ID:        id,
		StudentID: "S001",
		Category:  models.CategoryHostel,
		Title:     "WiFi not working",
		Status:    models.StatusPending,
		Date:      fixedTime().Add(-24 * time.Hour),
		History:   []models.HistoryEntry{},
	}
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.QueryStatus) *models.QueryStatus { return &s }

func TestApplyAddCreatesPendingWithAdminEvent(t *testing.T) {
	now := fixedTime()
	out, events, changed, err := Apply(nil, AddQuery{
		StudentID: "S001",
		Category:  models.CategoryHostel,
		Title:     "Broken fan",
	}, now)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, out, 1)

	created := out[0]
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, now.UnixMilli(), created.ID)
	assert.Empty(t, created.History)
	assert.Nil(t, created.ResolvedDate)

	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationCreated, events[0].Kind)
	assert.Empty(t, events[0].StudentID)
	assert.Contains(t, events[0].Message, "Broken fan")
	assert.Contains(t, events[0].Message, "S001")
}

func TestApplyAddIDsStayMonotonic(t *testing.T) {
	now := fixedTime()
	existing := []models.Query{{ID: now.UnixMilli() + 100, Status: models.StatusPending}}

	out, _, _, err := Apply(existing, AddQuery{StudentID: "S001", Category: models.CategoryMess, Title: "a"}, now)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, now.UnixMilli()+101, out[1].ID)
}

func TestApplyUpdateStatusChangeGrowsHistoryByOne(t *testing.T) {
	now := fixedTime()
	queries := []models.Query{pendingQuery(1)}

	out, events, changed, err := Apply(queries, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{Status: statusPtr(models.StatusInProgress)},
	}, now)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, out[0].History, 1)

	entry := out[0].History[0]
	assert.Equal(t, "status", entry.Type)
	assert.Equal(t, "Status changed to In Progress by Admin on 10 Mar 2026, 2:30 PM", entry.Text)
	assert.Empty(t, events)
	require.NotNil(t, out[0].UpdatedAt)
}

func TestApplyUpdateNoopStatusLeavesHistoryAlone(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}

	out, events, changed, err := Apply(queries, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{Status: statusPtr(models.StatusPending)},
	}, fixedTime())
	require.NoError(t, err)
	require.True(t, changed)
	assert.Empty(t, out[0].History)
	assert.Empty(t, events)
}

func TestApplyUpdateAssignmentGrowsHistoryByOne(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}

	assignee := "Ravi"
	out, events, _, err := Apply(queries, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{AssignedTo: &assignee},
	}, fixedTime())
	require.NoError(t, err)
	require.Len(t, out[0].History, 1)
	assert.Equal(t, "assign", out[0].History[0].Type)
	assert.Equal(t, "Assigned to Ravi on 10 Mar 2026, 2:30 PM", out[0].History[0].Text)
	assert.Empty(t, events)
}

func TestApplyUpdateAssignBlankToBlankIsNoop(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}

	blank := ""
	out, _, _, err := Apply(queries, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{AssignedTo: &blank},
	}, fixedTime())
	require.NoError(t, err)
	assert.Empty(t, out[0].History)
}

func TestApplyUpdateStatusAndAssigneeGrowHistoryByTwo(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}

	assignee := "Ravi"
	out, _, _, err := Apply(queries, UpdateQuery{
		ID: 1,
		Patch: models.QueryPatch{
			Status:     statusPtr(models.StatusInProgress),
			AssignedTo: &assignee,
		},
	}, fixedTime())
	require.NoError(t, err)
	require.Len(t, out[0].History, 2)
	assert.Equal(t, "status", out[0].History[0].Type)
	assert.Equal(t, "assign", out[0].History[1].Type)
}

func TestApplyUpdateResolutionEmitsStudentEventAndStampsDate(t *testing.T) {
	now := fixedTime()
	queries := []models.Query{pendingQuery(7)}

	out, events, _, err := Apply(queries, UpdateQuery{
		ID:    7,
		Patch: models.QueryPatch{Status: statusPtr(models.StatusResolved)},
	}, now)
	require.NoError(t, err)

	require.NotNil(t, out[0].ResolvedDate)
	assert.Equal(t, now, *out[0].ResolvedDate)

	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationResolved, events[0].Kind)
	assert.Equal(t, "S001", events[0].StudentID)
	assert.Equal(t, `Your query "WiFi not working" (ID: 7) has been resolved on 10 Mar 2026, 2:30 PM`, events[0].Message)
}

func TestApplyUpdateResolvedToResolvedEmitsNothing(t *testing.T) {
	resolved := pendingQuery(1)
	resolved.Status = models.StatusResolved

	out, events, _, err := Apply([]models.Query{resolved}, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{Status: statusPtr(models.StatusResolved)},
	}, fixedTime())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, out[0].History)
}

func TestApplyUpdateRejectsContentEditOnResolved(t *testing.T) {
	resolved := pendingQuery(1)
	resolved.Status = models.StatusResolved

	_, _, _, err := Apply([]models.Query{resolved}, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{Title: strPtr("new title")},
	}, fixedTime())
	require.ErrorIs(t, err, errResolvedEdit)
}

func TestApplyUpdateAllowsAssignmentCorrectionOnResolved(t *testing.T) {
	resolved := pendingQuery(1)
	resolved.Status = models.StatusResolved

	assignee := "Priya"
	out, _, changed, err := Apply([]models.Query{resolved}, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{AssignedTo: &assignee},
	}, fixedTime())
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, "Priya", out[0].AssignedTo)
}

func TestApplyUpdateUnknownIDIsNoop(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}

	out, events, changed, err := Apply(queries, UpdateQuery{
		ID:    999,
		Patch: models.QueryPatch{Status: statusPtr(models.StatusResolved)},
	}, fixedTime())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, events)
	assert.Equal(t, queries, out)
}

func TestApplyDeleteEmitsAdminEvent(t *testing.T) {
	queries := []models.Query{pendingQuery(1), pendingQuery(2)}

	out, events, changed, err := Apply(queries, DeleteQuery{ID: 1}, fixedTime())
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)

	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationDeleted, events[0].Kind)
	assert.Empty(t, events[0].StudentID)
	assert.Contains(t, events[0].Message, "deleted query")
}

func TestApplyDeleteUnknownIDIsNoop(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}

	out, events, changed, err := Apply(queries, DeleteQuery{ID: 42}, fixedTime())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, events)
	assert.Len(t, out, 1)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	queries := []models.Query{pendingQuery(1)}
	before := queries[0]

	_, _, _, err := Apply(queries, UpdateQuery{
		ID:    1,
		Patch: models.QueryPatch{Status: statusPtr(models.StatusResolved)},
	}, fixedTime())
	require.NoError(t, err)
	assert.Equal(t, before, queries[0])
}

func TestOverdueEvents(t *testing.T) {
	now := fixedTime()
	threshold := 72 * time.Hour

	old := pendingQuery(1)
	old.Date = now.Add(-80 * time.Hour)

	fresh := pendingQuery(2)
	fresh.Date = now.Add(-10 * time.Hour)

	boundary := pendingQuery(3)
	boundary.Date = now.Add(-72 * time.Hour)

	resolvedOld := pendingQuery(4)
	resolvedOld.Date = now.Add(-200 * time.Hour)
	resolvedOld.Status = models.StatusResolved

	events := OverdueEvents([]models.Query{old, fresh, boundary, resolvedOld}, now, threshold)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationOverdue, events[0].Kind)
	assert.Equal(t, int64(1), events[0].QueryID)
	assert.Contains(t, events[0].Message, "more than 3 days")
}
