package domain

import (
	"fmt"
	"time"
)

// Priority is a todo's priority level.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority validates a priority string.
func ParsePriority(value string) (Priority, error) {
	switch Priority(value) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(value), nil
	}
	return "", fmt.Errorf("priority must be one of high, medium, low")
}

// Rank orders priorities for sorting; higher priority ranks first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// DueDateStatus classifies a todo's due date relative to a moment in time.
// It is derived at read time and never persisted.
type DueDateStatus string

const (
	DueStatusOverdue  DueDateStatus = "overdue"
	DueStatusDueToday DueDateStatus = "due_today"
	DueStatusUpcoming DueDateStatus = "upcoming"
	DueStatusNone     DueDateStatus = "no_due_date"
)

// ParseDueDateStatus validates a due-date status string.
func ParseDueDateStatus(value string) (DueDateStatus, error) {
	switch DueDateStatus(value) {
	case DueStatusOverdue, DueStatusDueToday, DueStatusUpcoming, DueStatusNone:
		return DueDateStatus(value), nil
	}
	return "", fmt.Errorf("due_date_status must be one of overdue, due_today, upcoming, no_due_date")
}

// ClassifyDueDate maps a nullable due timestamp and the current moment to a
// status. The comparison is by UTC calendar date, not instant: a due date of
// 23:59 today is due_today even seconds before midnight.
func ClassifyDueDate(due *time.Time, now time.Time) DueDateStatus {
	if due == nil {
		return DueStatusNone
	}
	dueDay := truncateToDay(due.UTC())
	today := truncateToDay(now.UTC())
	switch {
	case dueDay.Before(today):
		return DueStatusOverdue
	case dueDay.Equal(today):
		return DueStatusDueToday
	default:
		return DueStatusUpcoming
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Todo is a user-owned task. The owner is set at creation and never changes.
type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	Completed   bool
	DueDate     *time.Time
	Priority    Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DueStatus classifies the todo's due date against the given moment.
func (t Todo) DueStatus(now time.Time) DueDateStatus {
	return ClassifyDueDate(t.DueDate, now)
}

// TodoFilter narrows a listing. Unset fields do not constrain the result.
type TodoFilter struct {
	Completed *bool
	Priority  *Priority
	DueStatus *DueDateStatus
}

// SortField names a sortable todo column.
type SortField string

const (
	SortByDueDate   SortField = "due_date"
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

// SortOrder is a sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TodoSort describes result ordering. Ties on the sort key are broken by
// id ascending so listings are deterministic.
type TodoSort struct {
	Field SortField
	Order SortOrder
}

// NormalizeTodoSort applies defaults and the silent fallback for unknown
// sort fields: field defaults to created_at, order to desc.
func NormalizeTodoSort(field, order string) TodoSort {
	s := TodoSort{Field: SortByCreatedAt, Order: SortDesc}
	switch SortField(field) {
	case SortByDueDate, SortByPriority, SortByCreatedAt, SortByUpdatedAt:
		s.Field = SortField(field)
	}
	if SortOrder(order) == SortAsc {
		s.Order = SortAsc
	}
	return s
}

// TodoPatch carries a partial update. Nil pointers leave fields untouched.
// Description and due date are nullable, so presence is tracked separately
// from the value: HasDescription with a nil Description clears the field.
type TodoPatch struct {
	Title          *string
	Description    *string
	HasDescription bool
	Completed      *bool
	DueDate        *time.Time
	HasDueDate     bool
	Priority       *Priority
}

// IsEmpty reports whether the patch names no fields at all.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && !p.HasDescription && p.Completed == nil &&
		!p.HasDueDate && p.Priority == nil
}
