package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-manager/server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedTasks(t *testing.T, r *MemoryTaskRepository, owner primitive.ObjectID, n int) []models.Task {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Task, 0, n)
	for i := 0; i < n; i++ {
		task := models.Task{
			Title:     "task",
			Status:    models.StatusPending,
			Priority:  models.PriorityMedium,
			Tags:      []string{},
			CreatedBy: owner,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, r.Insert(context.Background(), &task))
		out = append(out, task)
	}
	return out
}

func TestMemoryTaskRepositoryPagination(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepository()
	owner := primitive.NewObjectID()
	seeded := seedTasks(t, r, owner, 25)

	page, err := r.Find(ctx, models.NewTaskFilter(owner), 10, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	// newest first: the 11th newest is seeded[14]
	assert.Equal(t, seeded[14].ID, page[0].ID)
	assert.Equal(t, seeded[5].ID, page[9].ID)

	tail, err := r.Find(ctx, models.NewTaskFilter(owner), 30, 10)
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestMemoryTaskRepositoryRejectsNegativeSkip(t *testing.T) {
	r := NewMemoryTaskRepository()
	owner := primitive.NewObjectID()
	seedTasks(t, r, owner, 3)

	_, err := r.Find(context.Background(), models.NewTaskFilter(owner), -8, 10)
	assert.Error(t, err)
}

func TestMemoryTaskRepositoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepository()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	aliceTasks := seedTasks(t, r, alice, 3)
	seedTasks(t, r, bob, 1)

	n, err := r.Count(ctx, models.NewTaskFilter(bob))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.FindOne(ctx, aliceTasks[0].ID, bob)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, aliceTasks[0].ID, bob), ErrNotFound)

	title := "hijack"
	_, err = r.Update(ctx, aliceTasks[0].ID, bob, models.TaskChanges{Title: &title}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := r.CountByStatus(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)

	_, err = r.Find(ctx, models.TaskFilter{}, 0, 10)
	assert.ErrorIs(t, err, ErrUnscopedQuery)
	assert.ErrorIs(t, r.Insert(ctx, &models.Task{Title: "orphan"}), ErrUnscopedQuery)
}

func TestMemoryTaskRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepository()
	owner := primitive.NewObjectID()
	task := seedTasks(t, r, owner, 1)[0]

	got, err := r.FindOne(ctx, task.ID, owner)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := r.FindOne(ctx, task.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "task", again.Title)
}

func TestMemoryTaskRepositoryAdvance(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepository()
	owner := primitive.NewObjectID()
	task := seedTasks(t, r, owner, 1)[0]

	for _, want := range []models.TaskStatus{models.StatusInProgress, models.StatusCompleted, models.StatusPending} {
		got, err := r.Advance(ctx, task.ID, owner, time.Now())
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
}

func TestMemoryUserRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserRepository()
	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, r.Insert(ctx, alice))

	var dup *DuplicateKeyError
	err := r.Insert(ctx, &models.User{Username: "other", Email: "alice@example.com"})
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)

	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, r.Insert(ctx, bob))
	taken := "alice"
	_, err = r.Update(ctx, bob.ID, models.UserChanges{Username: &taken}, time.Now())
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Field)

	same := "alice@example.com"
	_, err = r.Update(ctx, alice.ID, models.UserChanges{Email: &same}, time.Now())
	assert.NoError(t, err)
}

func TestMemoryUserRepositoryRecentHidesPasswords(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserRepository()
	base := time.Now()
	for i, name := range []string{"a1", "b2", "c3"} {
		require.NoError(t, r.Insert(ctx, &models.User{
			Username:  name,
			Email:     name + "@example.com",
			Password:  "hash",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c3", recent[0].Username)
	assert.Empty(t, recent[0].Password)
}
