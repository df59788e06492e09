package domain

// Authorization policy: pure decisions over (actor, task, requested change).
// Narrowing reduces a request to the permitted subset instead of rejecting
// it outright, so an assignee editing their own work never has to care which
// extra fields their client happened to send.

// NarrowPatch gates an update. Admins get the patch verbatim, including
// reassignment and due-date edits. The assignee is narrowed to exactly
// {title, description, status, priority}; everything else is dropped
// silently. Any other actor is rejected.
func NarrowPatch(actor Actor, task *Task, patch TaskPatch) (TaskPatch, error) {
	if actor.IsAdmin() {
		return patch, nil
	}
	if actor.ID == task.AssignedTo {
		return TaskPatch{
			Title:       patch.Title,
			Description: patch.Description,
			Status:      patch.Status,
			Priority:    patch.Priority,
		}, nil
	}
	return TaskPatch{}, ErrForbidden
}

// CanDelete permits deletion by the task's creator or an admin.
func CanDelete(actor Actor, task *Task) bool {
	return actor.IsAdmin() || actor.ID == task.CreatedBy
}

// CanComplete permits completion by the task's assignee or an admin.
func CanComplete(actor Actor, task *Task) bool {
	return actor.IsAdmin() || actor.ID == task.AssignedTo
}

// Scope is the visibility predicate applied to listings and analytics:
// admins see everything, everyone else sees tasks they created or are
// assigned to.
type Scope struct {
	All    bool
	UserID string
}

// ScopeFor derives the visibility scope for an actor.
func ScopeFor(actor Actor) Scope {
	if actor.IsAdmin() {
		return Scope{All: true}
	}
	return Scope{UserID: actor.ID}
}

// Includes reports whether the task is visible under the scope.
func (s Scope) Includes(t *Task) bool {
	return s.All || t.CreatedBy == s.UserID || t.AssignedTo == s.UserID
}
