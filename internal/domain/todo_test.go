package domain

import (
	"testing"
	"time"
)

func TestClassifyDueDate(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)
	ptr := func(v time.Time) *time.Time { return &v }

	cases := []struct {
		name string
		due  *time.Time
		want DueDateStatus
	}{
		{"nil due date", nil, DueStatusNone},
		{"yesterday", ptr(time.Date(2026, time.March, 9, 23, 59, 59, 0, time.UTC)), DueStatusOverdue},
		{"earlier today", ptr(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)), DueStatusDueToday},
		{"later today", ptr(time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC)), DueStatusDueToday},
		{"tomorrow", ptr(time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)), DueStatusUpcoming},
		{"far future", ptr(time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)), DueStatusUpcoming},
		{"distant past", ptr(time.Date(2020, time.June, 15, 12, 0, 0, 0, time.UTC)), DueStatusOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyDueDate(tc.due, now); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassifyDueDateUsesUTCDay(t *testing.T) {
	// 23:00 UTC on the 10th is still the 10th even when the local zone of
	// the due timestamp would put it on the 11th.
	loc := time.FixedZone("UTC+3", 3*3600)
	due := time.Date(2026, time.March, 11, 1, 0, 0, 0, loc) // 2026-03-10T22:00Z
	now := time.Date(2026, time.March, 10, 23, 0, 0, 0, time.UTC)
	if got := ClassifyDueDate(&due, now); got != DueStatusDueToday {
		t.Fatalf("expected due_today, got %s", got)
	}
}

func TestParsePriority(t *testing.T) {
	for _, valid := range []string{"high", "medium", "low"} {
		if _, err := ParsePriority(valid); err != nil {
			t.Fatalf("expected %q to parse, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "urgent", "HIGH", "Medium "} {
		if _, err := ParsePriority(invalid); err == nil {
			t.Fatalf("expected %q to be rejected", invalid)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Fatalf("priority ranks out of order: high=%d medium=%d low=%d",
			PriorityHigh.Rank(), PriorityMedium.Rank(), PriorityLow.Rank())
	}
}

func TestParseDueDateStatus(t *testing.T) {
	for _, valid := range []string{"overdue", "due_today", "upcoming", "no_due_date"} {
		if _, err := ParseDueDateStatus(valid); err != nil {
			t.Fatalf("expected %q to parse, got %v", valid, err)
		}
	}
	if _, err := ParseDueDateStatus("someday"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestNormalizeTodoSort(t *testing.T) {
	cases := []struct {
		name      string
		field     string
		order     string
		wantField SortField
		wantOrder SortOrder
	}{
		{"defaults", "", "", SortByCreatedAt, SortDesc},
		{"due date asc", "due_date", "asc", SortByDueDate, SortAsc},
		{"priority desc", "priority", "desc", SortByPriority, SortDesc},
		{"updated at", "updated_at", "asc", SortByUpdatedAt, SortAsc},
		{"unknown field falls back", "owner_id", "asc", SortByCreatedAt, SortAsc},
		{"unknown order falls back", "created_at", "upward", SortByCreatedAt, SortDesc},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeTodoSort(tc.field, tc.order)
			if got.Field != tc.wantField || got.Order != tc.wantOrder {
				t.Fatalf("expected %s/%s, got %s/%s", tc.wantField, tc.wantOrder, got.Field, got.Order)
			}
		})
	}
}

func TestTodoPatchIsEmpty(t *testing.T) {
	if !(TodoPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
	if (TodoPatch{HasDescription: true}).IsEmpty() {
		t.Fatalf("clearing description is not an empty patch")
	}
	title := "x"
	if (TodoPatch{Title: &title}).IsEmpty() {
		t.Fatalf("title patch is not empty")
	}
}
