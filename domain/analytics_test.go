package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizeEmpty(t *testing.T) {
	a := Summarize(nil)
	if a.TotalTasks != 0 || a.CompletedTasks != 0 || a.PendingTasks != 0 {
		t.Fatalf("expected zero totals, got %+v", a)
	}
	if len(a.StatusBreakdown) != 0 || len(a.PriorityBreakdown) != 0 || len(a.MonthlyTrends) != 0 {
		t.Fatalf("expected empty breakdowns, got %+v", a)
	}
}

func TestSummarizeCountsAndTrends(t *testing.T) {
	tasks := []Task{
		{Status: StatusCompleted, Priority: PriorityHigh, DueDate: day(2024, time.January, 10)},
		{Status: StatusTodo, Priority: PriorityHigh, DueDate: day(2024, time.January, 20)},
		{Status: StatusInProgress, Priority: PriorityLow, DueDate: day(2024, time.March, 1)},
		{Status: StatusCompleted, Priority: PriorityMedium, DueDate: day(2023, time.December, 31)},
	}
	a := Summarize(tasks)

	if a.TotalTasks != 4 || a.CompletedTasks != 2 || a.PendingTasks != 2 {
		t.Fatalf("totals mismatch: %+v", a)
	}

	wantStatus := map[string]int{"completed": 2, "in-progress": 1, "todo": 1}
	if len(a.StatusBreakdown) != len(wantStatus) {
		t.Fatalf("status breakdown mismatch: %+v", a.StatusBreakdown)
	}
	for _, b := range a.StatusBreakdown {
		if wantStatus[b.Key] != b.Count {
			t.Fatalf("status %s: expected %d, got %d", b.Key, wantStatus[b.Key], b.Count)
		}
	}

	wantPriority := map[string]int{"high": 2, "low": 1, "medium": 1}
	for _, b := range a.PriorityBreakdown {
		if wantPriority[b.Key] != b.Count {
			t.Fatalf("priority %s: expected %d, got %d", b.Key, wantPriority[b.Key], b.Count)
		}
	}

	want := []MonthlyTrend{
		{Key: MonthKey{2023, 12}, Count: 1, Completed: 1},
		{Key: MonthKey{2024, 1}, Count: 2, Completed: 1},
		{Key: MonthKey{2024, 3}, Count: 1, Completed: 0},
	}
	if len(a.MonthlyTrends) != len(want) {
		t.Fatalf("trend count mismatch: %+v", a.MonthlyTrends)
	}
	for i, tr := range a.MonthlyTrends {
		if tr != want[i] {
			t.Fatalf("trend %d: expected %+v, got %+v", i, want[i], tr)
		}
	}
}

func TestSummarizeSkipsZeroDueDateInTrendsOnly(t *testing.T) {
	tasks := []Task{
		{Status: StatusTodo, Priority: PriorityMedium},
		{Status: StatusTodo, Priority: PriorityMedium, DueDate: day(2024, time.May, 5)},
	}
	a := Summarize(tasks)
	if a.TotalTasks != 2 {
		t.Fatalf("zero due date must still count toward totals, got %d", a.TotalTasks)
	}
	if len(a.MonthlyTrends) != 1 || a.MonthlyTrends[0].Key != (MonthKey{2024, 5}) {
		t.Fatalf("expected a single 2024-05 bucket, got %+v", a.MonthlyTrends)
	}
}
