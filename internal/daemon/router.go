package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/metrics"
	"github.com/matheus3301/wppmcp/internal/store"
)

// NewRouter mounts the MCP handler at /mcp next to the operational endpoints.
func NewRouter(mcpHandler http.Handler, db *store.DB, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recordMetrics)
	r.Use(chimw.Recoverer)

	r.Handle("/mcp", mcpHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(db))

	return r
}

func healthz(db *store.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok"}
		if err := db.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "error": err.Error()}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// requestLogger logs one line per request. Health probes log at debug.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			lvl := logger.Info
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				lvl = logger.Debug
			}
			lvl("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", statusOf(ww)),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}

// recordMetrics counts requests by method, path and status. The wrapped
// writer keeps http.Flusher available to the streaming MCP handler.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, normalizePath(r.URL.Path), strconv.Itoa(statusOf(ww)),
		).Inc()
	})
}

func statusOf(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// normalizePath keeps the path label bounded.
func normalizePath(path string) string {
	switch path {
	case "/mcp", "/metrics", "/healthz":
		return path
	}
	return "other"
}
