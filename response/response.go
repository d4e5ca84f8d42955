package response

import (
	"encoding/json"
	"net/http"
	"time"

	"task-manager/server/apierror"
	"task-manager/server/logging"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool                  `json:"success"`
	StatusCode int                   `json:"statusCode"`
	Message    string                `json:"message"`
	Data       any                   `json:"data,omitempty"`
	Error      string                `json:"error,omitempty"`
	Errors     []apierror.FieldError `json:"errors,omitempty"`
	Stack      string                `json:"stack,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Writer renders envelopes. Stacks of internal errors are included only
// when ExposeStack is set, which is never the case in production.
type Writer struct {
	ExposeStack bool
	now         func() time.Time
}

func NewWriter(exposeStack bool) *Writer {
	return &Writer{ExposeStack: exposeStack, now: time.Now}
}

func (rw *Writer) JSON(w http.ResponseWriter, status int, message string, data any) {
	rw.write(w, Envelope{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func (rw *Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierror.From(err)
	status := apiErr.Status()

	env := Envelope{
		StatusCode: status,
		Message:    apiErr.Message,
		Error:      apiErr.Kind.String(),
		Errors:     apiErr.Fields,
	}
	if apiErr.Kind == apierror.KindInternal {
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %s %s failed: %v", r.Method, r.URL.Path, apiErr.Err)
		if rw.ExposeStack {
			env.Stack = string(apiErr.Stack)
		}
	}
	rw.write(w, env)
}

func (rw *Writer) write(w http.ResponseWriter, env Envelope) {
	env.Timestamp = rw.now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.Logger.Warnf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}
