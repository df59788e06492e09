package domain

import (
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:         "t1",
		Title:      "Write report",
		AssignedTo: "u1",
		CreatedBy:  "u2",
		Priority:   PriorityMedium,
		Status:     StatusTodo,
		DueDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTaskValidate(t *testing.T) {
	task := validTask()
	if err := task.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := validTask()
	bad.Title = "   "
	if err := bad.Validate(); err == nil {
		t.Fatal("expected blank title to be rejected")
	}

	bad = validTask()
	bad.Status = "done"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}

	bad = validTask()
	bad.Priority = "asap"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown priority to be rejected")
	}

	bad = validTask()
	bad.DueDate = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected zero dueDate to be rejected")
	}
}

func TestPatchApplyTrimsTitle(t *testing.T) {
	task := validTask()
	title := "  Trimmed  "
	(TaskPatch{Title: &title}).Apply(&task)
	if task.Title != "Trimmed" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
}

func TestPatchValidate(t *testing.T) {
	empty := ""
	bad := Status("done")
	zero := time.Time{}

	if err := (TaskPatch{Title: &empty}).Validate(); err == nil {
		t.Fatal("expected empty title to be rejected")
	}
	if err := (TaskPatch{Status: &bad}).Validate(); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	if err := (TaskPatch{DueDate: &zero}).Validate(); err == nil {
		t.Fatal("expected zero dueDate to be rejected")
	}
	if err := (TaskPatch{}).Validate(); err != nil {
		t.Fatalf("empty patch should validate, got %v", err)
	}
	if !(TaskPatch{}).IsZero() {
		t.Fatal("empty patch should be zero")
	}
}
