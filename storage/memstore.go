package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub/domain"
)

// MemStore is an in-memory store with the same contract as the Mongo store.
// It backs local development without a database and the handler tests.
type MemStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	users map[string]domain.User
}

func NewMemStore() *MemStore {
	return &MemStore{
		tasks: make(map[string]domain.Task),
		users: make(map[string]domain.User),
	}
}

// AddUser seeds a user document.
func (m *MemStore) AddUser(u domain.User) {
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
}

func (m *MemStore) List(ctx context.Context, q domain.ListQuery) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(q.Search)
	out := []domain.Task{}
	for _, t := range m.tasks {
		if !q.Scope.Includes(&t) {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != "" && t.Priority != q.Priority {
			continue
		}
		if q.AssignedTo != "" && t.AssignedTo != q.AssignedTo {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if u, ok := m.users[t.AssignedTo]; ok {
			t.Assignee = u.Ref()
		}
		out = append(out, t)
	}
	sortTasks(out, q.SortBy, q.SortOrder)
	return out, nil
}

// sortTasks mirrors the Mongo sort whitelist, including its lexical ordering
// of the string-valued enum fields.
func sortTasks(tasks []domain.Task, sortBy, sortOrder string) {
	if _, ok := sortFields[sortBy]; !ok {
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
		return
	}
	less := func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		switch sortBy {
		case "dueDate":
			return a.DueDate.Before(b.DueDate)
		case "createdAt":
			return a.CreatedAt.Before(b.CreatedAt)
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "priority":
			return a.Priority < b.Priority
		case "status":
			return a.Status < b.Status
		default:
			return a.Title < b.Title
		}
	}
	if sortOrder == "desc" {
		sort.SliceStable(tasks, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(tasks, less)
}

func (m *MemStore) Create(ctx context.Context, t domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tasks[t.ID] = t
	return &t, nil
}

func (m *MemStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (m *MemStore) Save(ctx context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemStore) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemStore) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.User{}
	for _, u := range m.users {
		if u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
