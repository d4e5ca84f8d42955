package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"task-manager/server/apierror"
	"task-manager/server/logging"
	"task-manager/server/metrics"
	"task-manager/server/ratelimit"
	"task-manager/server/response"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error)
}

// RateLimit caps requests per client IP and path. When the limiter itself
// fails the request is let through.
func RateLimit(l Limiter, limit int, window time.Duration, out *response.Writer, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			res, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				logging.Logger.Warnf("Event ID: RATE_LIMIT_UNAVAILABLE, Description: Rate limiter failed, allowing request: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed {
				retry := int(time.Until(res.ResetAt).Seconds()) + 1
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				m.RateLimited.WithLabelValues(r.URL.Path).Inc()
				out.Error(w, r, apierror.TooManyRequests("Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
