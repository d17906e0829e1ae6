// Package app assembles the HTTP router from the server's handlers.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpserver "github.com/fairyhunter13/techtrends/internal/adapter/httpserver"
	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
	"github.com/fairyhunter13/techtrends/internal/config"
)

const defaultRequestTimeout = 30 * time.Second

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(timeout))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	// Pages
	r.Get("/", srv.IndexHandler())
	r.Get("/about", srv.AboutHandler())
	r.Get("/create", srv.CreateFormHandler())
	r.Get("/{id:[0-9]+}", srv.PostHandler())
	r.Handle("/static/*", srv.StaticHandler())

	// Rate limit the only mutating endpoint
	r.Group(func(wr chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		}
		wr.Post("/create", srv.CreateHandler())
	})

	// Health and metrics (JSON, callable cross-origin by dashboards)
	r.Group(func(jr chi.Router) {
		jr.Use(cors.Handler(cors.Options{
			AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		jr.Get("/healthz", srv.HealthzHandler())
		jr.Get("/metrics", srv.MetricsHandler())
	})
	r.Get("/prometheus", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	r.NotFound(srv.NotFoundHandler())

	return otelhttp.NewHandler(httpserver.SecurityHeaders(r), "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
