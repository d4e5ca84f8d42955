package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-manager/server/metrics"
	"task-manager/server/repositories"
	"task-manager/server/response"
	"task-manager/server/services"
	"task-manager/server/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testServer struct {
	handler http.Handler
	users   *repositories.MemoryUserRepository
}

type envelope struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Error      string            `json:"error"`
	Errors     []json.RawMessage `json:"errors"`
	Timestamp  time.Time         `json:"timestamp"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := repositories.NewMemoryUserRepository()
	tasks := repositories.NewMemoryTaskRepository()
	tokens := services.NewJWTService("handler-secret", time.Hour, "test")

	h := NewRouter(RouterConfig{
		Auth:        services.NewAuthGuard(tokens, users),
		Users:       services.NewUserService(users, tasks, tokens, utils.NopNotifier{}),
		Tasks:       services.NewTaskService(tasks),
		Metrics:     metrics.New(),
		Out:         response.NewWriter(true),
		FrontendURL: "http://localhost:3000",
	})
	return &testServer{handler: h, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
		assert.Equal(t, rec.Code, env.StatusCode)
		assert.Equal(t, rec.Code < 400, env.Success)
	}
	return rec, env
}

// signup registers a user and returns its token and id.
func (s *testServer) signup(t *testing.T, name, role string) (string, string) {
	t.Helper()
	rec, _ := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": name + "@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"_id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token, data.User.ID
}

type taskJSON struct {
	ID        string   `json:"_id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Priority  string   `json:"priority"`
	Tags      []string `json:"tags"`
	CreatedBy string   `json:"createdBy"`
}

func (s *testServer) createTask(t *testing.T, token string, body map[string]any) taskJSON {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data struct {
		Task taskJSON `json:"task"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Task
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running", env.Message)
	assert.False(t, env.Timestamp.IsZero())

	rec, env = s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", env.Message)

	rec, _ = s.do(t, http.MethodPatch, "/api/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice", "")

	rec, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duplicate field value entered for username", env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ValidationError", env.Error)
	assert.GreaterOrEqual(t, len(env.Errors), 3)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Message)

	assert.NotContains(t, rec.Body.String(), "password123")
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice", "")

	rec, env := s.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", env.Message)

	rec, _ = s.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{"username": "alicia"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"username":"alicia"`)
	assert.NotContains(t, string(env.Data), "password")
}

func TestDeletedUserTokenRejected(t *testing.T) {
	s := newTestServer(t)
	token, id := s.signup(t, "alice", "")
	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(t, err)
	require.NoError(t, s.users.Delete(context.Background(), oid))

	rec, env := s.do(t, http.MethodGet, "/api/tasks", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User no longer exists", env.Message)
}

func TestCreateTaskStampsOwner(t *testing.T) {
	s := newTestServer(t)
	token, id := s.signup(t, "alice", "")

	task := s.createTask(t, token, map[string]any{
		"title":     "Write tests",
		"tags":      "a, b ,c",
		"createdBy": primitive.NewObjectID().Hex(),
	})
	assert.Equal(t, id, task.CreatedBy)
	assert.Equal(t, []string{"a", "b", "c"}, task.Tags)
	assert.Equal(t, "pending", task.Status)
	assert.Equal(t, "medium", task.Priority)

	arr := s.createTask(t, token, map[string]any{"title": "Array tags", "tags": []string{" x ", "y"}})
	assert.Equal(t, []string{"x", "y"}, arr.Tags)

	rec, env := s.do(t, http.MethodPost, "/api/tasks", token, map[string]any{"title": "", "status": "done"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, env.Errors, 2)
}

func TestListTasksEndpoint(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice", "")
	for i := 1; i <= 12; i++ {
		priority := "low"
		if i%2 == 0 {
			priority = "high"
		}
		s.createTask(t, token, map[string]any{"title": fmt.Sprintf("task %d", i), "priority": priority})
	}

	rec, env := s.do(t, http.MethodGet, "/api/tasks?priority=high&limit=4&page=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Tasks      []taskJSON `json:"tasks"`
		Pagination struct {
			Page, Limit, Total, Pages int
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Tasks, 2)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 4, page.Pagination.Limit)
	assert.Equal(t, 6, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)
	for _, task := range page.Tasks {
		assert.Equal(t, "high", task.Priority)
	}

	for _, q := range []string{"status=done", "priority=urgent", "limit=500", "page=0"} {
		rec, _ := s.do(t, http.MethodGet, "/api/tasks?"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice", "")

	rec, env := s.do(t, http.MethodGet, "/api/tasks/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stats":{"total":0,"pending":0,"in-progress":0,"completed":0}}`, string(env.Data))

	s.createTask(t, token, map[string]any{"title": "a", "status": "in-progress"})
	_, env = s.do(t, http.MethodGet, "/api/tasks/stats", token, nil)
	assert.JSONEq(t, `{"stats":{"total":1,"pending":0,"in-progress":1,"completed":0}}`, string(env.Data))
}

func TestTasksAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.signup(t, "alice", "")
	bob, _ := s.signup(t, "bob", "")
	task := s.createTask(t, alice, map[string]any{"title": "mine"})
	missing := primitive.NewObjectID().Hex()

	for _, tc := range []struct {
		method string
		suffix string
		body   any
	}{
		{http.MethodGet, "", nil},
		{http.MethodPut, "", map[string]string{"title": "theirs"}},
		{http.MethodDelete, "", nil},
		{http.MethodPatch, "/advance", nil},
	} {
		recForeign, envForeign := s.do(t, tc.method, "/api/tasks/"+task.ID+tc.suffix, bob, tc.body)
		recMissing, envMissing := s.do(t, tc.method, "/api/tasks/"+missing+tc.suffix, bob, tc.body)
		assert.Equal(t, http.StatusNotFound, recForeign.Code, tc.method)
		assert.Equal(t, recMissing.Code, recForeign.Code)
		assert.Equal(t, envMissing.Message, envForeign.Message)
	}

	_, env := s.do(t, http.MethodGet, "/api/tasks", bob, nil)
	assert.Contains(t, string(env.Data), `"total":0`)

	rec, env := s.do(t, http.MethodGet, "/api/tasks/"+task.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"title":"mine"`)
}

func TestUpdateAdvanceDelete(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice", "")
	task := s.createTask(t, token, map[string]any{"title": "cycle"})

	rec, env := s.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, map[string]any{"priority": "high", "tags": "x"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"priority":"high"`)
	assert.Contains(t, string(env.Data), `"title":"cycle"`)

	for _, want := range []string{"in-progress", "completed", "pending"} {
		rec, env := s.do(t, http.MethodPatch, "/api/tasks/"+task.ID+"/advance", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(env.Data), `"status":"`+want+`"`)
	}

	rec, env = s.do(t, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted successfully", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/tasks/"+task.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", env.Message)
}

func TestAdminStatsRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	user, _ := s.signup(t, "alice", "")
	admin, _ := s.signup(t, "root", "admin")

	rec, env := s.do(t, http.MethodGet, "/api/users/stats", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to access this resource", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/users/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"totalUsers":2`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
