package domain

import (
	"sync/atomic"
	"time"
)

// EventType names the change-event kinds pushed to connected sessions.
// Each operation has exactly one event kind; completion is distinguishable
// from a generic update without inspecting the payload.
type EventType string

const (
	EventTaskCreated   EventType = "taskCreated"
	EventTaskUpdated   EventType = "taskUpdated"
	EventTaskDeleted   EventType = "taskDeleted"
	EventTaskCompleted EventType = "taskCompleted"
)

// ChangeEvent is the ephemeral notification broadcast after a mutation.
// Created/Updated/Completed carry the full document; Deleted carries only
// the task id.
type ChangeEvent struct {
	Type   EventType `json:"type"`
	TaskID string    `json:"taskId"`
	Task   *Task     `json:"task,omitempty"`
	Time   int64     `json:"time"`
}

func NewTaskCreated(t *Task) ChangeEvent {
	return ChangeEvent{Type: EventTaskCreated, TaskID: t.ID, Task: t, Time: nextEventTime()}
}

func NewTaskUpdated(t *Task) ChangeEvent {
	return ChangeEvent{Type: EventTaskUpdated, TaskID: t.ID, Task: t, Time: nextEventTime()}
}

func NewTaskCompleted(t *Task) ChangeEvent {
	return ChangeEvent{Type: EventTaskCompleted, TaskID: t.ID, Task: t, Time: nextEventTime()}
}

func NewTaskDeleted(id string) ChangeEvent {
	return ChangeEvent{Type: EventTaskDeleted, TaskID: id, Time: nextEventTime()}
}

var lastEventTime int64

// nextEventTime returns a strictly increasing nanosecond timestamp so events
// produced by the same process never share or regress a Time value.
func nextEventTime() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastEventTime)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastEventTime, last, now) {
			return now
		}
	}
}
