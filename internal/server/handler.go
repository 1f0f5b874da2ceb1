// Package server exposes the extraction pipeline over HTTP: a synchronous
// run trigger, a token health probe, liveness and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/pipeline"
)

// Runner triggers a full extraction batch. Satisfied by pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// TokenVerifier probes the API identity endpoint. Satisfied by
// meta.Service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context) (id, name string, err error)
}

// Handlers serves the pipeline endpoints.
type Handlers struct {
	runner     Runner
	verifier   TokenVerifier
	runTimeout time.Duration
}

// NewHandlers wires the endpoint handlers. A zero runTimeout leaves batch
// runs unbounded.
func NewHandlers(runner Runner, verifier TokenVerifier, runTimeout time.Duration) *Handlers {
	return &Handlers{runner: runner, verifier: verifier, runTimeout: runTimeout}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RunPipeline executes a batch run synchronously and responds with the
// report. The connection stays open for the duration of the run.
func (h *Handlers) RunPipeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	report, err := h.runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pipeline run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// TestToken checks that the configured access token still resolves an
// identity.
func (h *Handlers) TestToken(w http.ResponseWriter, r *http.Request) {
	id, name, err := h.verifier.VerifyToken(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "id": id, "name": name})
}
