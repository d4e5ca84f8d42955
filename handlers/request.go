package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"task-manager/server/apierror"
	"task-manager/server/middleware"
	"task-manager/server/models"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.Validation(apierror.FieldError{Field: "body", Message: "Request body is required"})
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apierror.Validation(apierror.FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("Expected %s", typeErr.Type),
			})
		}
		return apierror.Validation(apierror.FieldError{Field: "body", Message: "Invalid JSON body"})
	}
	return nil
}

// identity reads the caller placed in the context by middleware.JWTAuth.
func identity(r *http.Request) (models.Identity, error) {
	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return models.Identity{}, apierror.Unauthenticated("No token provided")
	}
	return caller, nil
}
