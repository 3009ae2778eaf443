package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates the operational router. Metrics in reg are exposed on
// GET /metrics, and the router counts its own requests there too.
func NewRouter(h *Handlers, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/", h.NotFound)

	return chain(mux,
		recoverPanics(logger),
		accessLog(logger),
		countRequests(reg),
	)
}
