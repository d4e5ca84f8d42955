package repositories

import (
	"context"
	"fmt"

	"task-manager/server/logging"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique user indexes and the owner listing index.
// Existing indexes with the same spec are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	tasks := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := db.Collection(TasksCollection).Indexes().CreateMany(ctx, tasks); err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}

	logging.Logger.Info("Event ID: DB_INDEXES_ENSURED, Description: MongoDB indexes are in place")
	return nil
}
