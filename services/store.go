package services

import (
	"context"
	"time"

	"task-manager/server/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStore is the storage adapter behind TaskService. Every method that
// touches a single task takes the owner and must match (id, owner) jointly.
type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	FindOne(ctx context.Context, id, owner primitive.ObjectID) (*models.Task, error)
	Find(ctx context.Context, f models.TaskFilter, skip, limit int64) ([]models.Task, error)
	Count(ctx context.Context, f models.TaskFilter) (int64, error)
	CountByStatus(ctx context.Context, owner primitive.ObjectID) (models.StatsSnapshot, error)
	Update(ctx context.Context, id, owner primitive.ObjectID, c models.TaskChanges, now time.Time) (*models.Task, error)
	Advance(ctx context.Context, id, owner primitive.ObjectID, now time.Time) (*models.Task, error)
	Delete(ctx context.Context, id, owner primitive.ObjectID) error
	CountAll(ctx context.Context) (int64, error)
}

type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, c models.UserChanges, now time.Time) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int64) ([]models.User, error)
}

// Notifier is told about new accounts. Implementations must not block.
type Notifier interface {
	NotifyWelcome(to, username string)
}
