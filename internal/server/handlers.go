package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handlers serves the bot's health check and fallback routes.
type Handlers struct {
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger}
}

// Health handles GET /health. The bot process is healthy while it serves.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// NotFound answers every route other than /health and /metrics.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("route not found",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	respond(w, http.StatusNotFound, ErrorResponse{Error: "not found", Code: "NOT_FOUND"})
}

// respond writes body as JSON with the given status.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
