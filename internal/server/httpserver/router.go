package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/abustosp/app-presupuesto/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the budget API.
	Handler *handler.Handler

	// Logger for request logging.
	Logger *slog.Logger

	// Observer receives per-request metrics; nil disables them.
	Observer HTTPObserver

	// MetricsHandler serves /metrics; nil leaves the route unregistered.
	MetricsHandler http.Handler

	// CORSAllowedOrigins is the list of allowed CORS origins ("*" = all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit; a zero Rate disables it.
	RateLimit RateLimitConfig

	// EnableAudit enables the access log.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// Per-route middleware runs after routing so it sees r.Pattern.
	var routeMiddlewares []Middleware
	if cfg.Observer != nil {
		routeMiddlewares = append(routeMiddlewares, Metrics(cfg.Observer))
	}
	routeMiddlewares = append(routeMiddlewares, Tracing())
	if cfg.EnableAudit {
		routeMiddlewares = append(routeMiddlewares, Audit(log))
	}
	perRoute := func(h http.Handler) http.Handler {
		return Chain(h, routeMiddlewares...)
	}

	mux := http.NewServeMux()
	cfg.Handler.Register(mux, perRoute)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", perRoute(cfg.MetricsHandler))
	}

	// Order: Recover -> RequestID -> RateLimit -> CORS -> mux
	outer := []Middleware{Recover(log), RequestID()}
	if cfg.RateLimit.Rate > 0 {
		outer = append(outer, RateLimit(cfg.RateLimit))
	}
	outer = append(outer, CORS(cfg.CORSAllowedOrigins))

	return Chain(mux, outer...)
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		EnableAudit:        true,
	}
}
