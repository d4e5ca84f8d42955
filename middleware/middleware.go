package middleware

import (
	"context"
	"net/http"

	"task-manager/server/apierror"
	"task-manager/server/logging"
	"task-manager/server/metrics"
	"task-manager/server/models"
	"task-manager/server/response"
)

type contextKey int

const identityKey contextKey = iota

// Authenticator resolves the Authorization header to an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, rawHeader string) (models.Identity, error)
	Authorize(identity models.Identity, allowed ...models.Role) error
}

// IdentityFrom returns the identity stored by JWTAuth. Handlers read it once
// and pass it on explicitly.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func JWTAuth(auth Authenticator, out *response.Writer, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if apiErr := apierror.From(err); apiErr.Kind == apierror.KindUnauthenticated {
					logging.Logger.Warnf("Event ID: JWT_AUTH_REJECTED, Description: %s for request to %s %s", apiErr.Message, r.Method, r.URL.Path)
					m.AuthFailures.WithLabelValues(apiErr.Message).Inc()
				}
				out.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRoles must run after JWTAuth.
func RequireRoles(auth Authenticator, out *response.Writer, m *metrics.Metrics, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				out.Error(w, r, apierror.Unauthenticated("No token provided"))
				return
			}
			if err := auth.Authorize(identity, roles...); err != nil {
				logging.Logger.Warnf("Event ID: ACCESS_FORBIDDEN, Description: User %s with role %s denied %s %s", identity.ID.Hex(), identity.Role, r.Method, r.URL.Path)
				m.AuthFailures.WithLabelValues("forbidden").Inc()
				out.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
