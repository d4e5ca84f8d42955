package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.RequestsTotal.WithLabelValues("/api/tasks", "GET", "200").Inc()
	m.RequestsTotal.WithLabelValues("/api/tasks", "GET", "200").Inc()
	m.AuthFailures.WithLabelValues("Token expired").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/tasks", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues("Token expired")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `taskmanager_http_requests_total{method="GET",route="/api/tasks",status="200"} 2`)
}

func TestNewUsesIsolatedRegistries(t *testing.T) {
	a, b := New(), New()
	a.RateLimited.WithLabelValues("/api/auth/login").Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RateLimited.WithLabelValues("/api/auth/login")))
}
