package handlers

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/username/stationetl/src/utils"
)

// NewRouter wires the side server: the observatory id endpoint behind the rate
// limiter, /metrics and a root health check.
func NewRouter(competitors *CompetitorHandler, gatherer prometheus.Gatherer, limiter *rate.Limiter, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	limited := RateLimitMiddleware(limiter, log)

	mux.Handle("GET /updateConcorrenteOss", limited(http.HandlerFunc(competitors.HandleReplaceObservatoryID)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "Station ETL is running"}, http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Warn("Path not found", "method", r.Method, "path", r.URL.Path)
		utils.SendJSONError(w, "not found", http.StatusNotFound)
	})

	return LoggingMiddleware(log)(mux)
}
