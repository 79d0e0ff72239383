package jobs

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rms-platform/rms-access/internal/observability"
)

// NewMetricsServer exposes the worker registry at /metrics so job counters
// are scrapeable; the worker has no other HTTP surface.
func NewMetricsServer(addr string, metrics *observability.Metrics) *http.Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
