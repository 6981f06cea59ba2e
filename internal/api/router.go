package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsfl/cosmos-core-sub000/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Reads are open; writes need an operator token.
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)
		r.Get("/catalogue", s.handleCatalogue)
		r.Post("/equations/evaluate", s.handleEvaluate)

		r.Route("/namespace", func(r chi.Router) {
			r.Get("/", s.handleListNamespace)
			r.Get("/{name}", s.handleGetEntry)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermNamespaceWrite))
				r.Put("/", s.handleSetNamespace)
				r.Patch("/{name}/enabled", s.handleToggleEntry)
			})
		})

		r.With(s.requirePermission(auth.PermAliasManage)).Post("/aliases", s.handleAddAlias)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Get("/{id}", s.handleGetSnapshot)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.handleListNodes)
			r.Get("/{node}/namespace", s.handleRemoteNamespace)
		})

		// Live heartbeats
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"node":    s.agent.Node(),
		"entries": s.agent.Guard().Count(),
	})
}
