package routing

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/reddit-tools/modbot/internal/handlers"
	"github.com/reddit-tools/modbot/internal/middleware"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// The front-end is a single page; the url/id query parameters select
	// between the welcome form, a check, and an approval.
	mux.HandleFunc("GET /{$}", h.HandleIndex)

	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply logging middleware (outermost - wraps everything)
	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	return handler
}
