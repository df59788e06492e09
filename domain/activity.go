package domain

import "time"

// ActivityAction enumerates the audit actions an activity entry may record.
type ActivityAction string

const (
	ActivityCreated       ActivityAction = "created"
	ActivityUpdated       ActivityAction = "updated"
	ActivityDeleted       ActivityAction = "deleted"
	ActivityStatusChanged ActivityAction = "status_changed"
	ActivityAssigned      ActivityAction = "assigned"
)

// ActivityLog is the audit-trail entry referencing a user and a task. The
// engine defines the schema for collaborators that consume it; it does not
// write entries itself.
type ActivityLog struct {
	ID        string         `bson:"_id" json:"id"`
	UserID    string         `bson:"user" json:"user"`
	TaskID    string         `bson:"task" json:"task"`
	Action    ActivityAction `bson:"action" json:"action"`
	Details   string         `bson:"details" json:"details"`
	OldValues map[string]any `bson:"oldValues,omitempty" json:"oldValues,omitempty"`
	NewValues map[string]any `bson:"newValues,omitempty" json:"newValues,omitempty"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt" json:"updatedAt"`
}
