package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	tests := map[Kind]int{
		KindValidation:       http.StatusBadRequest,
		KindConflict:         http.StatusBadRequest,
		KindUnauthenticated:  http.StatusUnauthorized,
		KindForbidden:        http.StatusForbidden,
		KindNotFound:         http.StatusNotFound,
		KindTooManyRequests:  http.StatusTooManyRequests,
		KindMethodNotAllowed: http.StatusMethodNotAllowed,
		KindInternal:         http.StatusInternalServerError,
	}
	for kind, status := range tests {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestFromKeepsAPIErrors(t *testing.T) {
	orig := NotFound("Task not found")
	wrapped := fmt.Errorf("get task: %w", orig)

	got := From(wrapped)
	assert.Same(t, orig, got)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindForbidden))
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	got := From(cause)

	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "Internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
	assert.NotEmpty(t, got.Stack)
	assert.Nil(t, From(nil))
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation(FieldError{Field: "title", Message: "Title is required"})
	assert.Equal(t, http.StatusBadRequest, err.Status())
	assert.Len(t, err.Fields, 1)
	assert.Contains(t, err.Error(), "ValidationError")
}
