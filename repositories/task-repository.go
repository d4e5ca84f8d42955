package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"task-manager/server/logging"
	"task-manager/server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const TasksCollection = "tasks"

type TaskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{collection: db.Collection(TasksCollection)}
}

// filterToBSON is the single place a TaskFilter becomes a mongo query.
func filterToBSON(f models.TaskFilter) (bson.M, error) {
	if !f.Scoped() {
		return nil, ErrUnscopedQuery
	}
	q := bson.M{"createdBy": f.Owner}
	if f.Status != nil {
		q["status"] = *f.Status
	}
	if f.Priority != nil {
		q["priority"] = *f.Priority
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"tags": rx},
		}
	}
	return q, nil
}

func ownedBy(id, owner primitive.ObjectID) (bson.M, error) {
	if owner.IsZero() {
		return nil, ErrUnscopedQuery
	}
	return bson.M{"_id": id, "createdBy": owner}, nil
}

func changesToUpdate(c models.TaskChanges, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if c.Title != nil {
		set["title"] = *c.Title
	}
	if c.Description != nil {
		set["description"] = *c.Description
	}
	if c.Status != nil {
		set["status"] = *c.Status
	}
	if c.Priority != nil {
		set["priority"] = *c.Priority
	}
	if c.DueDate != nil && !c.ClearDueDate {
		set["dueDate"] = *c.DueDate
	}
	if c.Tags != nil {
		set["tags"] = *c.Tags
	}

	update := bson.M{"$set": set}
	if c.ClearDueDate {
		update["$unset"] = bson.M{"dueDate": ""}
	}
	return update
}

// advancePipeline moves status one step along the cycle in a single update.
func advancePipeline(now time.Time) mongo.Pipeline {
	branches := bson.A{}
	for _, s := range models.TaskStatuses {
		branches = append(branches, bson.D{
			{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{"$status", s}}}},
			{Key: "then", Value: s.Next()},
		})
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$switch", Value: bson.D{
				{Key: "branches", Value: branches},
				{Key: "default", Value: models.StatusPending},
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}

func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	if task.CreatedBy.IsZero() {
		return ErrUnscopedQuery
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindOne(ctx context.Context, id, owner primitive.ObjectID) (*models.Task, error) {
	q, err := ownedBy(id, owner)
	if err != nil {
		return nil, err
	}
	var task models.Task
	if err := r.collection.FindOne(ctx, q).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// Find returns matching tasks newest first. Ties on createdAt fall back to _id
// so that pages never overlap.
func (r *TaskRepository) Find(ctx context.Context, f models.TaskFilter, skip, limit int64) ([]models.Task, error) {
	if skip < 0 {
		return nil, fmt.Errorf("find tasks: negative skip %d", skip)
	}
	q, err := filterToBSON(f)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, f models.TaskFilter) (int64, error) {
	q, err := filterToBSON(f)
	if err != nil {
		return 0, err
	}
	n, err := r.collection.CountDocuments(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// CountByStatus groups the owner's tasks by status in one aggregation so the
// snapshot reflects a single read.
func (r *TaskRepository) CountByStatus(ctx context.Context, owner primitive.ObjectID) (models.StatsSnapshot, error) {
	var stats models.StatsSnapshot
	if owner.IsZero() {
		return stats, ErrUnscopedQuery
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdBy": owner}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("aggregate task stats: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status models.TaskStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return stats, fmt.Errorf("decode task stats: %w", err)
	}
	for _, g := range groups {
		if !g.Status.Valid() {
			logging.Logger.Warnf("Event ID: TASK_STATS_UNKNOWN_STATUS, Description: Owner %s has %d tasks with unknown status %q", owner.Hex(), g.Count, g.Status)
		}
		stats.Add(g.Status, g.Count)
	}
	return stats, nil
}

func (r *TaskRepository) Update(ctx context.Context, id, owner primitive.ObjectID, c models.TaskChanges, now time.Time) (*models.Task, error) {
	q, err := ownedBy(id, owner)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, q, changesToUpdate(c, now))
}

func (r *TaskRepository) Advance(ctx context.Context, id, owner primitive.ObjectID, now time.Time) (*models.Task, error) {
	q, err := ownedBy(id, owner)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, q, advancePipeline(now))
}

func (r *TaskRepository) findOneAndUpdate(ctx context.Context, q bson.M, update any) (*models.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var task models.Task
	if err := r.collection.FindOneAndUpdate(ctx, q, update, opts).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, owner primitive.ObjectID) error {
	q, err := ownedBy(id, owner)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, q)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll counts tasks across every owner. Admin statistics only.
func (r *TaskRepository) CountAll(ctx context.Context) (int64, error) {
	n, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count all tasks: %w", err)
	}
	return n, nil
}
