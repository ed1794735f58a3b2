package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// 排艇相关指标，mode 为 single 或 multi
	lineupGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_generations_total",
			Help: "Total number of lineup generations",
		},
		[]string{"mode", "status"},
	)

	lineupGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_generation_duration_seconds",
			Help:    "Wall time of a best-of-N lineup generation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"mode"},
	)

	lineupBestCost = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_best_cost",
			Help:    "Cost of the best lineup found by a generation",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		},
		[]string{"mode"},
	)

	lineupEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_cost_evaluations_total",
			Help: "Total number of cost evaluations performed by the best run of each generation",
		},
		[]string{"mode"},
	)
)

func (h *Handler) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// 使用路由模板而不是实际路径，避免 id 造成标签爆炸
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.StatusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func generationMode(multiBoat bool) string {
	if multiBoat {
		return "multi"
	}
	return "single"
}
