package services

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"task-manager/server/apierror"
	"task-manager/server/logging"
	"task-manager/server/models"
	"task-manager/server/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var errTaskNotFound = apierror.NotFound("Task not found")

// TaskService runs every task query and mutation on behalf of one Identity.
// Tasks owned by anyone else are invisible: they are neither listed, counted
// nor reachable by id.
type TaskService struct {
	tasks TaskStore
	now   func() time.Time
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

type ListQuery struct {
	Status   string
	Priority string
	Search   string
	Page     int
	Limit    int
}

type TaskPage struct {
	Tasks      []models.Task     `json:"tasks"`
	Pagination models.Pagination `json:"pagination"`
}

type CreateTaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Tags        TagInput `json:"tags"`
}

// UpdateTaskInput is a partial update: nil fields are left as they are.
// An empty DueDate removes the due date.
type UpdateTaskInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	Tags        *TagInput `json:"tags"`
}

// ParseListQuery reads status, priority, search, page and limit from a URL
// query. Absent page and limit take their defaults; present ones must be
// integers in range.
func ParseListQuery(values url.Values) (ListQuery, error) {
	v := &validator{}
	q := ListQuery{
		Status:   values.Get("status"),
		Priority: values.Get("priority"),
		Search:   values.Get("search"),
		Page:     DefaultPage,
		Limit:    DefaultLimit,
	}
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil || n < 1:
			v.add("page", "Page must be a positive integer", raw)
		case n > MaxPage:
			v.add("page", "Page is too large", raw)
		}
		q.Page = n
	}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			v.add("limit", "Limit must be between 1 and 100", raw)
		}
		q.Limit = n
	}
	return q, v.err()
}

func (s *TaskService) buildFilter(owner primitive.ObjectID, q *ListQuery) (models.TaskFilter, error) {
	v := &validator{}
	f := models.NewTaskFilter(owner)

	if q.Status != "" {
		status := models.TaskStatus(q.Status)
		if !status.Valid() {
			v.add("status", "Invalid status", q.Status)
		}
		f = f.WithStatus(status)
	}
	if q.Priority != "" {
		priority := models.TaskPriority(q.Priority)
		if !priority.Valid() {
			v.add("priority", "Invalid priority", q.Priority)
		}
		f = f.WithPriority(priority)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		if len([]rune(search)) > MaxSearchLength {
			v.add("search", "Search query too long", nil)
		}
		f = f.WithSearch(search)
	}

	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Page < 1 {
		v.add("page", "Page must be a positive integer", q.Page)
	} else if q.Page > MaxPage {
		v.add("page", "Page is too large", q.Page)
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		v.add("limit", "Limit must be between 1 and 100", q.Limit)
	}
	return f, v.err()
}

// ListTasks returns one page of the caller's tasks, newest first, together
// with the total number of matches.
func (s *TaskService) ListTasks(ctx context.Context, identity models.Identity, q ListQuery) (*TaskPage, error) {
	filter, err := s.buildFilter(identity.ID, &q)
	if err != nil {
		return nil, err
	}
	skip := int64(q.Page-1) * int64(q.Limit)

	var (
		tasks []models.Task
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.Find(gctx, filter, skip, int64(q.Limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.tasks.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeError("list tasks", err)
	}

	return &TaskPage{
		Tasks:      tasks,
		Pagination: models.NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (s *TaskService) GetStats(ctx context.Context, identity models.Identity) (models.StatsSnapshot, error) {
	stats, err := s.tasks.CountByStatus(ctx, identity.ID)
	if err != nil {
		return models.StatsSnapshot{}, s.storeError("task stats", err)
	}
	return stats, nil
}

func (s *TaskService) GetTask(ctx context.Context, identity models.Identity, taskID string) (*models.Task, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, errTaskNotFound
	}
	task, err := s.tasks.FindOne(ctx, id, identity.ID)
	if err != nil {
		return nil, s.storeError("get task", err)
	}
	return task, nil
}

// CreateTask always stamps the caller as owner.
func (s *TaskService) CreateTask(ctx context.Context, identity models.Identity, in CreateTaskInput) (*models.Task, error) {
	v := &validator{}
	now := s.now()
	task := &models.Task{
		Title:       v.title(in.Title),
		Description: v.description(in.Description),
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
		CreatedBy:   identity.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != "" {
		task.Status = models.TaskStatus(in.Status)
		if !task.Status.Valid() {
			v.add("status", "Invalid status", in.Status)
		}
	}
	if in.Priority != "" {
		task.Priority = models.TaskPriority(in.Priority)
		if !task.Priority.Valid() {
			v.add("priority", "Invalid priority", in.Priority)
		}
	}
	if strings.TrimSpace(in.DueDate) != "" {
		due, err := parseDueDate(in.DueDate)
		if err != nil {
			v.add("dueDate", "Invalid date format", in.DueDate)
		}
		task.DueDate = &due
	}
	tags, err := in.Tags.Normalize()
	v.merge(err)
	task.Tags = tags

	if err := v.err(); err != nil {
		return nil, err
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, s.storeError("create task", err)
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), identity.ID.Hex())
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, identity models.Identity, taskID string, in UpdateTaskInput) (*models.Task, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, errTaskNotFound
	}

	v := &validator{}
	var c models.TaskChanges
	if in.Title != nil {
		title := v.title(*in.Title)
		c.Title = &title
	}
	if in.Description != nil {
		desc := v.description(*in.Description)
		c.Description = &desc
	}
	if in.Status != nil {
		status := models.TaskStatus(*in.Status)
		if !status.Valid() {
			v.add("status", "Invalid status", *in.Status)
		}
		c.Status = &status
	}
	if in.Priority != nil {
		priority := models.TaskPriority(*in.Priority)
		if !priority.Valid() {
			v.add("priority", "Invalid priority", *in.Priority)
		}
		c.Priority = &priority
	}
	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			c.ClearDueDate = true
		} else {
			due, err := parseDueDate(*in.DueDate)
			if err != nil {
				v.add("dueDate", "Invalid date format", *in.DueDate)
			}
			c.DueDate = &due
		}
	}
	if in.Tags != nil {
		tags, err := in.Tags.Normalize()
		v.merge(err)
		c.Tags = &tags
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, id, identity.ID, c, s.now())
	if err != nil {
		return nil, s.storeError("update task", err)
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, identity models.Identity, taskID string) error {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return errTaskNotFound
	}
	if err := s.tasks.Delete(ctx, id, identity.ID); err != nil {
		return s.storeError("delete task", err)
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", taskID, identity.ID.Hex())
	return nil
}

// AdvanceStatus moves the task one step along pending, in-progress, completed
// and back to pending.
func (s *TaskService) AdvanceStatus(ctx context.Context, identity models.Identity, taskID string) (*models.Task, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, errTaskNotFound
	}
	task, err := s.tasks.Advance(ctx, id, identity.ID, s.now())
	if err != nil {
		return nil, s.storeError("advance task", err)
	}
	return task, nil
}

func (s *TaskService) storeError(op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return errTaskNotFound
	}
	logging.Logger.Errorf("Event ID: TASK_STORE_ERROR, Description: %s failed: %v", op, err)
	return apierror.Internal(err)
}
