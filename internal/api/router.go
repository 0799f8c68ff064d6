package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/sqrly/planner/internal/goals"
	"github.com/sqrly/planner/internal/store"
	"github.com/sqrly/planner/internal/subtasks"
	"github.com/sqrly/planner/internal/tasks"
	"github.com/sqrly/planner/internal/users"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	userSvc *users.Service,
	taskSvc *tasks.Service,
	subtaskSvc *subtasks.Service,
	goalSvc *goals.Service,
	aiEnabled bool,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	// Handlers
	healthH := NewHealthHandler(db, aiEnabled)
	userH := NewUserHandler(userSvc)
	taskH := NewTaskHandler(taskSvc)
	subtaskH := NewSubtaskHandler(subtaskSvc)
	goalH := NewGoalHandler(goalSvc)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userH.Create)
			r.Get("/{id}", userH.Get)
			r.Patch("/{id}", userH.Update)
			r.Delete("/{id}", userH.Delete)
		})

		// Planning routes act on behalf of the user named in X-User-ID.
		r.Group(func(r chi.Router) {
			r.Use(UserScope)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskH.List)
				r.Post("/", taskH.Create)
				r.Get("/{id}", taskH.Get)
				r.Patch("/{id}", taskH.Update)
				r.Delete("/{id}", taskH.Delete)
				r.Post("/{id}/start", taskH.Start)
				r.Post("/{id}/complete", taskH.Complete)
				r.Post("/{id}/cancel", taskH.Cancel)
				r.Post("/{id}/breakdown", taskH.Breakdown)
				r.Get("/{id}/subtasks", subtaskH.ListByTask)
				r.Post("/{id}/subtasks", subtaskH.Create)
			})

			r.Route("/subtasks", func(r chi.Router) {
				r.Get("/{id}", subtaskH.Get)
				r.Patch("/{id}", subtaskH.Update)
				r.Delete("/{id}", subtaskH.Delete)
				r.Post("/{id}/action", subtaskH.Act)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", goalH.List)
				r.Post("/", goalH.Create)
				r.Get("/{id}", goalH.Get)
				r.Patch("/{id}", goalH.Update)
				r.Delete("/{id}", goalH.Delete)
				r.Post("/{id}/progress", goalH.UpdateProgress)
				r.Post("/{id}/archive", goalH.Archive)
				r.Get("/{id}/milestones", goalH.ListMilestones)
				r.Post("/{id}/milestones", goalH.CreateMilestone)
			})

			r.Route("/milestones", func(r chi.Router) {
				r.Patch("/{id}", goalH.UpdateMilestone)
				r.Delete("/{id}", goalH.DeleteMilestone)
			})
		})
	})

	return r
}
