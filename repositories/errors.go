package repositories

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrUnscopedQuery is returned when a task operation has no owner.
	ErrUnscopedQuery = errors.New("task query is not scoped to an owner")
)

// DuplicateKeyError reports a unique index violation on Field.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// duplicateKey converts a mongo duplicate key error into *DuplicateKeyError,
// guessing the field from the index name in the server message.
func duplicateKey(err error, fields ...string) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, f := range fields {
		if strings.Contains(msg, f+"_") || strings.Contains(msg, "{ "+f+":") {
			return &DuplicateKeyError{Field: f}
		}
	}
	return &DuplicateKeyError{Field: "field"}
}
