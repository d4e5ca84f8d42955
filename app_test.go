package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-manager/server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppWithMemoryStore(t *testing.T) {
	cfg := &config.Config{
		App:  config.App{Env: config.EnvTest, Store: "memory"},
		JWT:  config.JWT{Secret: "secret", ExpiresIn: time.Hour, Issuer: "test"},
		CORS: config.CORS{FrontendURL: "http://localhost:3000"},
	}

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, a.closers)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskmanager_http_requests_total")
}
