// Package storage persists task and user documents.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskhub/domain"
)

// Store is the MongoDB-backed task and user store. Foreign keys are opaque
// string ids; the assignee projection is populated at the application level,
// no database-side referential integrity is enforced.
type Store struct {
	client *mongo.Client
	tasks  *mongo.Collection
	users  *mongo.Collection
	logger *log.Logger
}

// New connects to MongoDB and prepares the tasks and users collections.
func New(ctx context.Context, uri, dbName string, logger *log.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := client.Database(dbName)
	s := &Store{
		client: client,
		tasks:  db.Collection("tasks"),
		users:  db.Collection("users"),
		logger: logger,
	}
	s.ensureIndexes(ctx)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
	}
	if _, err := s.tasks.Indexes().CreateMany(ctx, models); err != nil {
		s.logger.Warnf("create task indexes: %v", err)
	}
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// sortFields whitelists the sortable columns exposed to clients.
var sortFields = map[string]string{
	"dueDate":   "dueDate",
	"priority":  "priority",
	"status":    "status",
	"title":     "title",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
}

func sortSpec(sortBy, sortOrder string) bson.D {
	field, ok := sortFields[sortBy]
	if !ok {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	dir := 1
	if sortOrder == "desc" {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}}
}

// List returns the tasks matching the query with assignees populated. The
// visibility scope is part of the query and is the only place listing-level
// authorization happens.
func (s *Store) List(ctx context.Context, q domain.ListQuery) ([]domain.Task, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}
	if q.AssignedTo != "" {
		filter["assignedTo"] = q.AssignedTo
	}

	var ors []bson.M
	if !q.Scope.All {
		ors = append(ors, bson.M{"$or": []bson.M{
			{"createdBy": q.Scope.UserID},
			{"assignedTo": q.Scope.UserID},
		}})
	}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		ors = append(ors, bson.M{"$or": []bson.M{
			{"title": re},
			{"description": re},
		}})
	}
	switch len(ors) {
	case 1:
		filter["$or"] = ors[0]["$or"]
	case 2:
		filter["$and"] = ors
	}

	cursor, err := s.tasks.Find(ctx, filter, options.Find().SetSort(sortSpec(q.SortBy, q.SortOrder)))
	if err != nil {
		s.logger.Errorf("list tasks: %v", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []domain.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		s.logger.Errorf("decode tasks: %v", err)
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if err := s.populateAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// populateAssignees attaches the {name, email} projection of each task's
// assigned user. Dangling references leave the projection empty rather than
// failing the listing.
func (s *Store) populateAssignees(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	seen := map[string]bool{}
	for i := range tasks {
		if id := tasks[i].AssignedTo; id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		s.logger.Errorf("populate assignees: %v", err)
		return fmt.Errorf("populate assignees: %w", err)
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return fmt.Errorf("decode users: %w", err)
	}
	refs := make(map[string]*domain.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = u.Ref()
	}
	for i := range tasks {
		tasks[i].Assignee = refs[tasks[i].AssignedTo]
	}
	return nil
}

// Create persists a new task, assigning its id and server-managed timestamps.
func (s *Store) Create(ctx context.Context, t domain.Task) (*domain.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		s.logger.Errorf("insert task: %v", err)
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &t, nil
}

// GetByID fetches one task document.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		s.logger.Errorf("get task %s: %v", id, err)
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// Save replaces the whole document. Concurrent saves of the same task are
// last-writer-wins; there is no version check.
func (s *Store) Save(ctx context.Context, t *domain.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		s.logger.Errorf("save task %s: %v", t.ID, err)
		return fmt.Errorf("save task: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteByID physically removes the document.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		s.logger.Errorf("delete task %s: %v", id, err)
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// GetUser resolves a referenced user document.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		s.logger.Errorf("get user %s: %v", id, err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListActiveUsers returns every active account, sorted by name.
func (s *Store) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		s.logger.Errorf("list users: %v", err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
