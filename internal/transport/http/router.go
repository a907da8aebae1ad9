package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consentflow/internal/platform/metrics"
	"consentflow/internal/platform/middleware"
	"consentflow/pkg/platform/middleware/requesttime"
)

// RouterConfig carries everything NewRouter wires.
type RouterConfig struct {
	Journey        *JourneyHandler
	Health         *HealthHandler
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Session        middleware.SessionConfig
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(cfg.Logger))

	if cfg.Health != nil {
		r.Method(http.MethodGet, "/healthz", cfg.Health)
	}
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(jr chi.Router) {
		jr.Use(middleware.LatencyMiddleware(cfg.Metrics))
		if cfg.RequestTimeout > 0 {
			jr.Use(middleware.Timeout(cfg.RequestTimeout + 5*time.Second))
		}
		jr.Use(middleware.ContentTypeJSON)
		jr.Use(middleware.RequireSession(cfg.Session, cfg.Logger))
		cfg.Journey.Register(jr)
	})
	return r
}
