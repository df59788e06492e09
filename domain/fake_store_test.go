package domain

import (
	"context"
	"fmt"
	"sort"
)

type fakeStore struct {
	tasks  map[string]Task
	nextID int

	lastQuery ListQuery
	createErr error
	saveErr   error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[string]Task{}}
}

func (f *fakeStore) List(ctx context.Context, q ListQuery) ([]Task, error) {
	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []Task{}
	for _, t := range f.tasks {
		if q.Scope.Includes(&t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, t Task) (*Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	t.ID = fmt.Sprintf("task-%d", f.nextID)
	f.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (f *fakeStore) Save(ctx context.Context, t *Task) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeStore) DeleteByID(ctx context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

type fakeUsers struct {
	users map[string]User
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) ListActiveUsers(ctx context.Context) ([]User, error) {
	out := []User{}
	for _, u := range f.users {
		if u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBus struct {
	events []ChangeEvent
	err    error
}

func (b *fakeBus) Publish(ctx context.Context, ev ChangeEvent) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}
