package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"task-manager/server/apierror"
)

const (
	MaxTags      = 10
	MaxTagLength = 20
)

// TagInput accepts tags as either a comma separated string or an array of
// strings. Both forms are trimmed and stripped of empty entries on decode.
type TagInput struct {
	values  []string
	invalid bool
}

func NewTagInput(values ...string) TagInput {
	return TagInput{values: cleanTags(values)}
}

// ParseTagString splits a comma separated list, e.g. "a, b ,c".
func ParseTagString(s string) TagInput {
	return NewTagInput(strings.Split(s, ",")...)
}

func (t *TagInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = ParseTagString(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = NewTagInput(arr...)
		return nil
	}
	*t = TagInput{invalid: true}
	return nil
}

func (t TagInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Values())
}

func (t TagInput) Values() []string {
	if t.values == nil {
		return []string{}
	}
	return t.values
}

// Normalize returns the validated tag list.
func (t TagInput) Normalize() ([]string, error) {
	if t.invalid {
		return nil, apierror.Validation(apierror.FieldError{Field: "tags", Message: "Tags must be a string or an array of strings"})
	}
	if len(t.values) > MaxTags {
		return nil, apierror.Validation(apierror.FieldError{
			Field:   "tags",
			Message: fmt.Sprintf("Maximum %d tags allowed", MaxTags),
			Value:   t.values,
		})
	}
	for _, tag := range t.values {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, apierror.Validation(apierror.FieldError{
				Field:   "tags",
				Message: fmt.Sprintf("Each tag cannot exceed %d characters", MaxTagLength),
				Value:   tag,
			})
		}
	}
	return t.Values(), nil
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
