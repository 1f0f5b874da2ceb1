package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/metalake/ads-core/internal/observability"
)

// Router assembles the HTTP surface.
func Router(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/test-token", h.TestToken)
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.Handle("/metrics", observability.MetricsHandler())
	})

	// Batch runs hold the connection for the whole extraction, so no
	// request timeout here; the run timeout bounds them instead.
	r.Post("/run-pipeline", h.RunPipeline)

	return r
}
