package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/projecthub/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	if s.metrics != nil {
		r.Use(s.metricsMiddleware)
	}
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "Cannot "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleWelcome)
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleHealth)

		r.Post("/identity/sign-up", s.handleSignUp)
		r.Post("/identity/sign-in", s.handleSignIn)

		// WebSocket authenticates with a ticket, validated in the handler.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/identity/current", s.handleCurrent)
			r.Post("/identity/ws-ticket", s.handleWSTicket)

			r.With(s.require(auth.RequireElevated)).Get("/metrics", s.handleMetrics)

			r.Route("/accounts", func(r chi.Router) {
				r.With(s.require(auth.RequireElevated)).Post("/", s.handleRegisterAccount)
				r.With(s.require(auth.RequireElevated)).Get("/", s.handleListAccounts)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAccount)
					r.Patch("/", s.handleModifyAccount)
					r.With(s.require(auth.RequireElevated)).Delete("/", s.handleRemoveAccount)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Use(s.require(auth.AnyAuthenticated))
				r.Post("/", s.handleInitiateProject)
				r.Get("/", s.handleListProjects)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetProject)
					r.Patch("/", s.handleEditProject)
					r.Delete("/", s.handleTerminateProject)
				})
			})
		})
	})

	return r
}
