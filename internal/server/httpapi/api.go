// Package httpapi exposes the task manager over HTTP/JSON using chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskman/internal/logging"
	"taskman/internal/server/services"
)

// API wires the services and configuration for the HTTP handlers.
type API struct {
	auth   *services.AuthService
	users  *services.UserService
	tasks  *services.TaskService
	logger logging.Logger
}

// New initialises the API layer.
func New(auth *services.AuthService, users *services.UserService, tasks *services.TaskService, logger logging.Logger) *API {
	return &API{
		auth:   auth,
		users:  users,
		tasks:  tasks,
		logger: logger.With("component", "http"),
	}
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)
		r.Post("/auth/refresh", a.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Get("/users/{id}", a.handleGetUser)
			r.Put("/users/{id}", a.handleUpdateUser)
			r.Delete("/users/{id}", a.handleDeleteUser)

			r.Post("/tasks", a.handleCreateTask)
			r.Get("/tasks", a.handleListTasks)
			r.Get("/tasks/{id}", a.handleGetTask)
			r.Put("/tasks/{id}", a.handleUpdateTask)
			r.Delete("/tasks/{id}", a.handleDeleteTask)
		})
	})

	return r
}
