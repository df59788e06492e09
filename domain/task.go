package domain

import (
	"strings"
	"time"
)

// Status enumerates task workflow states.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority enumerates task urgency levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known urgency levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a single unit of work tracked by the system. IDs are opaque and
// immutable once assigned by the store. Assignee is a denormalized projection
// of the referenced user, attached on reads and never persisted.
type Task struct {
	ID          string     `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	AssignedTo  string     `bson:"assignedTo" json:"assignedTo"`
	Assignee    *UserRef   `bson:"-" json:"assignee,omitempty"`
	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	Priority    Priority   `bson:"priority" json:"priority"`
	Status      Status     `bson:"status" json:"status"`
	DueDate     time.Time  `bson:"dueDate" json:"dueDate"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Tags        []string   `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the document-shape invariants that must hold after any
// successful mutation.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if t.AssignedTo == "" {
		return ValidationError{Field: "assignedTo", Reason: "is required"}
	}
	if t.CreatedBy == "" {
		return ValidationError{Field: "createdBy", Reason: "is required"}
	}
	if t.DueDate.IsZero() {
		return ValidationError{Field: "dueDate", Reason: "is required"}
	}
	if !t.Status.Valid() {
		return ValidationError{Field: "status", Reason: "unknown value"}
	}
	if !t.Priority.Valid() {
		return ValidationError{Field: "priority", Reason: "unknown value"}
	}
	return nil
}

// TaskPatch is a partial update to a task. Nil fields are untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	AssignedTo  *string
	Tags        *[]string
}

// IsZero reports whether the patch carries no fields at all.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && p.AssignedTo == nil && p.Tags == nil
}

// Apply copies the patch's set fields onto the task.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
}

// Validate rejects patches carrying values that would break task invariants
// once applied.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return ValidationError{Field: "status", Reason: "unknown value"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return ValidationError{Field: "priority", Reason: "unknown value"}
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return ValidationError{Field: "dueDate", Reason: "must not be empty"}
	}
	if p.AssignedTo != nil && *p.AssignedTo == "" {
		return ValidationError{Field: "assignedTo", Reason: "must not be empty"}
	}
	return nil
}
