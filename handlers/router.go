package handlers

import (
	"net/http"
	"time"

	"task-manager/server/apierror"
	"task-manager/server/metrics"
	"task-manager/server/middleware"
	"task-manager/server/models"
	"task-manager/server/response"
	"task-manager/server/services"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth    *services.AuthGuard
	Users   *services.UserService
	Tasks   *services.TaskService
	Metrics *metrics.Metrics
	Out     *response.Writer

	FrontendURL string

	// Limiter guards register and login. Nil disables rate limiting.
	Limiter        middleware.Limiter
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	out := cfg.Out
	authHandler := NewAuthHandler(cfg.Users, out)
	taskHandler := NewTaskHandler(cfg.Tasks, out)
	userHandler := NewUserHandler(cfg.Users, out)

	requireAuth := middleware.JWTAuth(cfg.Auth, out, cfg.Metrics)
	requireAdmin := middleware.RequireRoles(cfg.Auth, out, cfg.Metrics, models.RoleAdmin)

	r := mux.NewRouter()
	r.Use(middleware.AccessLog(cfg.Metrics))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		out.Error(w, req, apierror.NotFound("Route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		out.Error(w, req, apierror.MethodNotAllowed("Method not allowed"))
	})

	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		out.JSON(w, http.StatusOK, "Server is running", nil)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	auth := r.PathPrefix("/api/auth").Subrouter()
	public := func(h http.HandlerFunc) http.Handler {
		if cfg.Limiter == nil {
			return h
		}
		return middleware.RateLimit(cfg.Limiter, cfg.AuthRateLimit, cfg.AuthRateWindow, out, cfg.Metrics)(h)
	}
	auth.Handle("/register", public(authHandler.Register)).Methods(http.MethodPost)
	auth.Handle("/login", public(authHandler.Login)).Methods(http.MethodPost)
	auth.Handle("/profile", requireAuth(http.HandlerFunc(authHandler.GetProfile))).Methods(http.MethodGet)
	auth.Handle("/profile", requireAuth(http.HandlerFunc(authHandler.UpdateProfile))).Methods(http.MethodPut)

	tasks := r.PathPrefix("/api/tasks").Subrouter()
	tasks.Use(requireAuth)
	tasks.HandleFunc("", taskHandler.GetTasks).Methods(http.MethodGet)
	tasks.HandleFunc("", taskHandler.CreateTask).Methods(http.MethodPost)
	tasks.HandleFunc("/stats", taskHandler.GetStats).Methods(http.MethodGet)
	tasks.HandleFunc("/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	tasks.HandleFunc("/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	tasks.HandleFunc("/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	tasks.HandleFunc("/{id}/advance", taskHandler.AdvanceStatus).Methods(http.MethodPatch)

	users := r.PathPrefix("/api/users").Subrouter()
	users.Use(requireAuth, requireAdmin)
	users.HandleFunc("/stats", userHandler.GetUserStats).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.CORS(cfg.FrontendURL)(h)
	h = middleware.RequestID(h)
	h = middleware.Recover(out)(h)
	return h
}
