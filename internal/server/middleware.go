package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// middleware wraps an http.Handler.
type middleware func(http.Handler) http.Handler

// chain applies mws so that the first one sees the request first.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// scrapePaths are hit by probes and Prometheus every few seconds.
var scrapePaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// statusRecorder remembers the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog logs every request. Successful scrapes are logged at debug
// level so they do not drown the bot's own logs.
func accessLog(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if scrapePaths[r.URL.Path] && rec.status < http.StatusBadRequest {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// countRequests counts requests by status code and method on reg.
func countRequests(reg prometheus.Registerer) middleware {
	requests := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "videonote_http_requests_total",
		Help: "Requests served by the operational endpoint, by status code and method",
	}, []string{"code", "method"})

	return func(next http.Handler) http.Handler {
		return promhttp.InstrumentHandlerCounter(requests, next)
	}
}

// recoverPanics turns a handler panic into a logged 500.
func recoverPanics(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic in http handler",
						slog.String("path", r.URL.Path),
						slog.Any("panic", v),
						slog.String("stack", string(debug.Stack())),
					)
					respond(w, http.StatusInternalServerError, ErrorResponse{
						Error: "internal server error",
						Code:  "INTERNAL_ERROR",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
