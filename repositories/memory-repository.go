package repositories

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"task-manager/server/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTaskRepository keeps tasks in process memory. It follows the same
// ordering and scoping rules as TaskRepository and backs tests and STORE=memory.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[primitive.ObjectID]models.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[primitive.ObjectID]models.Task)}
}

func cloneTask(t models.Task) models.Task {
	t.Tags = append([]string{}, t.Tags...)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (r *MemoryTaskRepository) Insert(_ context.Context, task *models.Task) error {
	if task.CreatedBy.IsZero() {
		return ErrUnscopedQuery
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = cloneTask(*task)
	return nil
}

// owned must be called with r.mu held.
func (r *MemoryTaskRepository) owned(id, owner primitive.ObjectID) (models.Task, error) {
	if owner.IsZero() {
		return models.Task{}, ErrUnscopedQuery
	}
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy != owner {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryTaskRepository) FindOne(_ context.Context, id, owner primitive.ObjectID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, err := r.owned(id, owner)
	if err != nil {
		return nil, err
	}
	out := cloneTask(t)
	return &out, nil
}

func (r *MemoryTaskRepository) matching(f models.TaskFilter) []models.Task {
	var out []models.Task
	for _, t := range r.tasks {
		if f.Matches(&t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out
}

func (r *MemoryTaskRepository) Find(_ context.Context, f models.TaskFilter, skip, limit int64) ([]models.Task, error) {
	if !f.Scoped() {
		return nil, ErrUnscopedQuery
	}
	r.mu.RLock()
	all := r.matching(f)
	r.mu.RUnlock()

	if skip < 0 {
		return nil, fmt.Errorf("find tasks: negative skip %d", skip)
	}
	if skip >= int64(len(all)) {
		return []models.Task{}, nil
	}
	end := int64(len(all))
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return all[skip:end], nil
}

func (r *MemoryTaskRepository) Count(_ context.Context, f models.TaskFilter) (int64, error) {
	if !f.Scoped() {
		return 0, ErrUnscopedQuery
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, t := range r.tasks {
		if f.Matches(&t) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryTaskRepository) CountByStatus(_ context.Context, owner primitive.ObjectID) (models.StatsSnapshot, error) {
	var stats models.StatsSnapshot
	if owner.IsZero() {
		return stats, ErrUnscopedQuery
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		if t.CreatedBy == owner {
			stats.Add(t.Status, 1)
		}
	}
	return stats, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, id, owner primitive.ObjectID, c models.TaskChanges, now time.Time) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.owned(id, owner)
	if err != nil {
		return nil, err
	}
	c.Apply(&t)
	t.UpdatedAt = now
	r.tasks[id] = t
	out := cloneTask(t)
	return &out, nil
}

func (r *MemoryTaskRepository) Advance(_ context.Context, id, owner primitive.ObjectID, now time.Time) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.owned(id, owner)
	if err != nil {
		return nil, err
	}
	t.Status = t.Status.Next()
	t.UpdatedAt = now
	r.tasks[id] = t
	out := cloneTask(t)
	return &out, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id, owner primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.owned(id, owner); err != nil {
		return err
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) CountAll(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tasks)), nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

// conflict must be called with r.mu held.
func (r *MemoryUserRepository) conflict(self primitive.ObjectID, username, email string) error {
	for id, u := range r.users {
		if id == self {
			continue
		}
		if email != "" && u.Email == email {
			return &DuplicateKeyError{Field: "email"}
		}
		if username != "" && u.Username == username {
			return &DuplicateKeyError{Field: "username"}
		}
	}
	return nil
}

func (r *MemoryUserRepository) Insert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(primitive.NilObjectID, user.Username, user.Email); err != nil {
		return err
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Update(_ context.Context, id primitive.ObjectID, c models.UserChanges, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	var username, email string
	if c.Username != nil {
		username = *c.Username
	}
	if c.Email != nil {
		email = *c.Email
	}
	if err := r.conflict(id, username, email); err != nil {
		return nil, err
	}
	if c.Username != nil {
		u.Username = username
	}
	if c.Email != nil {
		u.Email = email
	}
	u.UpdatedAt = now
	r.users[id] = u
	return &u, nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *MemoryUserRepository) Recent(_ context.Context, n int64) ([]models.User, error) {
	r.mu.RLock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		u.Password = ""
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	if int64(len(users)) > n {
		users = users[:n]
	}
	return users, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}
