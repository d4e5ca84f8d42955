package middleware

import (
	"fmt"
	"net/http"

	"task-manager/server/apierror"
	"task-manager/server/logging"
	"task-manager/server/response"
)

func Recover(out *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logging.Logger.Errorf("Event ID: HANDLER_PANIC, Description: Panic serving %s %s: %v", r.Method, r.URL.Path, v)
					out.Error(w, r, apierror.Internal(fmt.Errorf("panic: %v", v)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
