package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/taskshare/task-api/internal/api"
	apimiddleware "github.com/taskshare/task-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordHasher, app.passwordVerifier)
	taskHandler := api.NewTaskHandler(app.taskService)
	shareHandler := api.NewShareHandler(app.sharingService)
	userHandler := api.NewUserHandler(app.userService)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/tasks", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Get("/tasks/{id}", taskHandler.Get)
			r.Put("/tasks/{id}", taskHandler.Update)
			r.Patch("/tasks/{id}", taskHandler.Patch)
			r.Delete("/tasks/{id}", taskHandler.Delete)

			r.Post("/tasks/{id}/share", shareHandler.Share)
			r.Get("/tasks/{id}/shares", shareHandler.ListShares)
			r.Delete("/shares/{id}", shareHandler.Revoke)

			r.Get("/users", userHandler.Search)
			r.Get("/users/me", userHandler.Profile)
			r.Put("/users/me", userHandler.UpdateProfile)
			r.Patch("/users/me", userHandler.UpdateProfile)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
