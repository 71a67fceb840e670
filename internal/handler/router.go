package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/metrics"
)

// DatabaseChecker is implemented by both database backends and used by the
// health endpoint.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// Router assembles the HTTP surface.
type Router struct {
	authHandler *AuthHandler
	db          DatabaseChecker
	metrics     *metrics.Metrics
	metricsPath string
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler *AuthHandler
	Database    DatabaseChecker
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler: cfg.AuthHandler,
		db:          cfg.Database,
		metrics:     cfg.Metrics,
		metricsPath: cfg.MetricsPath,
		logger:      cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(rt.logger, rt.metrics))

	r.Get("/health", rt.handleHealth)

	if rt.metrics != nil && rt.metricsPath != "" {
		r.Method(http.MethodGet, rt.metricsPath,
			promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	rt.authHandler.RegisterRoutes(r)

	return r
}

// handleHealth handles liveness checks, including a database ping.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.db != nil {
		if err := rt.db.Ping(r.Context()); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
