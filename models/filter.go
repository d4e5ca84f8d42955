package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskFilter describes which of one owner's tasks a query selects.
// Owner is always part of the predicate; the other fields narrow it further.
type TaskFilter struct {
	Owner    primitive.ObjectID
	Status   *TaskStatus
	Priority *TaskPriority
	Search   string
}

func NewTaskFilter(owner primitive.ObjectID) TaskFilter {
	return TaskFilter{Owner: owner}
}

func (f TaskFilter) WithStatus(s TaskStatus) TaskFilter {
	f.Status = &s
	return f
}

func (f TaskFilter) WithPriority(p TaskPriority) TaskFilter {
	f.Priority = &p
	return f
}

// WithSearch sets a case-insensitive substring matched against title,
// description and tags. An empty string means no text filter.
func (f TaskFilter) WithSearch(s string) TaskFilter {
	f.Search = s
	return f
}

func (f TaskFilter) Scoped() bool {
	return !f.Owner.IsZero()
}

// Matches reports whether t satisfies every predicate of f.
func (f TaskFilter) Matches(t *Task) bool {
	if t.CreatedBy != f.Owner {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Search == "" {
		return true
	}

	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
