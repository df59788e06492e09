package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// TaskStore abstracts task persistence. GetByID and DeleteByID report a
// missing id as ErrTaskNotFound. Save is a whole-document write with
// last-writer-wins semantics.
type TaskStore interface {
	List(ctx context.Context, q ListQuery) ([]Task, error)
	Create(ctx context.Context, t Task) (*Task, error)
	GetByID(ctx context.Context, id string) (*Task, error)
	Save(ctx context.Context, t *Task) error
	DeleteByID(ctx context.Context, id string) error
}

// UserStore resolves referenced user documents.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*User, error)
	ListActiveUsers(ctx context.Context) ([]User, error)
}

// Publisher fans a change event out to connected sessions. Delivery is best
// effort; a mutation is successful once persisted even if publishing fails.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// ListQuery combines the visibility scope with the optional listing filters.
type ListQuery struct {
	Scope      Scope
	Status     Status
	Priority   Priority
	AssignedTo string
	Search     string
	SortBy     string
	SortOrder  string
}

// ListFilters are the caller-supplied listing options; the scope is always
// derived from the actor, never from the request.
type ListFilters struct {
	Status     Status
	Priority   Priority
	AssignedTo string
	Search     string
	SortBy     string
	SortOrder  string
}

// CreateTaskInput carries the client-supplied fields for a new task.
// CreatedBy is deliberately absent: it is always forced to the actor.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     time.Time
	AssignedTo  string
	Tags        []string
}

// TaskService orchestrates read-modify-persist-notify for every task
// mutation and is the only writer of task documents.
type TaskService struct {
	store  TaskStore
	users  UserStore
	bus    Publisher
	logger *log.Logger
}

func NewTaskService(store TaskStore, users UserStore, bus Publisher, logger *log.Logger) *TaskService {
	return &TaskService{store: store, users: users, bus: bus, logger: logger}
}

// List returns the tasks visible to the actor, filtered and sorted.
func (s *TaskService) List(ctx context.Context, actor Actor, f ListFilters) ([]Task, error) {
	return s.store.List(ctx, ListQuery{
		Scope:      ScopeFor(actor),
		Status:     f.Status,
		Priority:   f.Priority,
		AssignedTo: f.AssignedTo,
		Search:     f.Search,
		SortBy:     f.SortBy,
		SortOrder:  f.SortOrder,
	})
}

// Create validates the input, verifies the assignee resolves to an active
// user, persists the task with CreatedBy forced to the actor and publishes
// a taskCreated event.
func (s *TaskService) Create(ctx context.Context, actor Actor, in CreateTaskInput) (*Task, error) {
	t := Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   actor.ID,
		Priority:    in.Priority,
		Status:      StatusTodo,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, t.AssignedTo); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.publish(ctx, NewTaskCreated(created))
	return created, nil
}

// Update fetches the task, narrows the patch through the authorization
// policy, applies it and persists the result. A reassignment (admin only)
// must point at an existing active user.
func (s *TaskService) Update(ctx context.Context, actor Actor, id string, patch TaskPatch) (*Task, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	narrowed, err := NarrowPatch(actor, t, patch)
	if err != nil {
		return nil, err
	}
	if err := narrowed.Validate(); err != nil {
		return nil, err
	}
	if narrowed.AssignedTo != nil && *narrowed.AssignedTo != t.AssignedTo {
		if err := s.checkAssignee(ctx, *narrowed.AssignedTo); err != nil {
			return nil, err
		}
	}
	narrowed.Apply(t)
	if err := s.store.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	s.publish(ctx, NewTaskUpdated(t))
	return t, nil
}

// Delete physically removes the task. Only the creator or an admin may
// delete; there is no soft deletion.
func (s *TaskService) Delete(ctx context.Context, actor Actor, id string) error {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(actor, t) {
		return ErrForbidden
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.publish(ctx, NewTaskDeleted(id))
	return nil
}

// Complete sets status to completed, touching no other client-visible field.
// CompletedAt is stamped on the transition into completed and left alone on
// repeat calls, so completing twice persists the same state both times.
func (s *TaskService) Complete(ctx context.Context, actor Actor, id string) (*Task, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanComplete(actor, t) {
		return nil, ErrForbidden
	}
	if t.Status != StatusCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	t.Status = StatusCompleted
	if err := s.store.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	s.publish(ctx, NewTaskCompleted(t))
	return t, nil
}

// Analytics summarizes the actor's visible task set.
func (s *TaskService) Analytics(ctx context.Context, actor Actor) (*Analytics, error) {
	tasks, err := s.store.List(ctx, ListQuery{Scope: ScopeFor(actor)})
	if err != nil {
		return nil, err
	}
	a := Summarize(tasks)
	return &a, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, id string) error {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if err == ErrUserNotFound {
			return ValidationError{Field: "assignedTo", Reason: "unknown user"}
		}
		return fmt.Errorf("resolve assignee: %w", err)
	}
	if !u.Active {
		return ValidationError{Field: "assignedTo", Reason: "user is inactive"}
	}
	return nil
}

// publish is best effort: failures are logged, never surfaced, and the
// persisted mutation stands.
func (s *TaskService) publish(ctx context.Context, ev ChangeEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil && s.logger != nil {
		s.logger.WithFields(log.Fields{"event": ev.Type, "task": ev.TaskID}).
			Warnf("publish change event: %v", err)
	}
}
