package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/accessories", func(r chi.Router) {
				r.Get("/", s.handleListAccessories)
				r.Get("/stats", s.handleAccessoryStats)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Get("/", s.handleGetAccessory)
					r.Delete("/", s.handleRemoveAccessory)
				})
			})

			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status. A failing bridge marks the
// platform degraded without failing the request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if s.bridge != nil {
		if err := s.bridge.Check(r.Context()); err != nil {
			body["status"] = "degraded"
			body["bridge"] = err.Error()
		} else {
			body["bridge"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}
