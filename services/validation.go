package services

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"task-manager/server/apierror"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxSearchLength      = 100
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt ignores anything longer
	DefaultPage          = 1
	DefaultLimit         = 10
	MaxLimit             = 100
	// MaxPage keeps (page-1)*limit inside int64 on every platform.
	MaxPage              = math.MaxInt32
)

// validator collects field errors so a request reports every problem at once.
type validator struct {
	fields []apierror.FieldError
}

func (v *validator) add(field, message string, value any) {
	v.fields = append(v.fields, apierror.FieldError{Field: field, Message: message, Value: value})
}

// merge folds a validation error from a helper into v.
func (v *validator) merge(err error) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindValidation {
		v.fields = append(v.fields, apiErr.Fields...)
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return apierror.Validation(v.fields...)
}

func (v *validator) title(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		v.add("title", "Title is required", nil)
	case utf8.RuneCountInString(s) > MaxTitleLength:
		v.add("title", fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLength), nil)
	}
	return s
}

func (v *validator) description(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		v.add("description", fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLength), nil)
	}
	return s
}

func (v *validator) username(s string) string {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n < MinUsernameLength:
		v.add("username", fmt.Sprintf("Username must be at least %d characters", MinUsernameLength), s)
	case n > MaxUsernameLength:
		v.add("username", fmt.Sprintf("Username cannot exceed %d characters", MaxUsernameLength), s)
	case !isAlphanumeric(s):
		v.add("username", "Username must contain only letters and numbers", s)
	}
	return s
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (v *validator) email(s string) string {
	s = normalizeEmail(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		v.add("email", "Please provide a valid email", s)
	}
	return s
}

func (v *validator) password(s string) {
	n := len(s)
	switch {
	case n < MinPasswordLength:
		v.add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), nil)
	case n > MaxPasswordLength:
		v.add("password", fmt.Sprintf("Password cannot exceed %d bytes", MaxPasswordLength), nil)
	}
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// parseDueDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date must be YYYY-MM-DD or RFC3339: %w", err)
	}
	return t.UTC(), nil
}
