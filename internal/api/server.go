// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the registration service.
package api

import (
	"context"
	_ "embed"
	"net/http"
	"registration/internal/api/handler/v1handler"
	"registration/internal/config"
	"registration/pkg/controller"
	"registration/pkg/logger"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// TimeoutBody is written when a request exceeds RequestTimeout.
const TimeoutBody = `{"error":"Timeout","message":"request timed out","code":"TIMEOUT"}`

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// Handler configures the v1 registration handler.
	Handler v1handler.Options

	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout is the global timeout applied via http.TimeoutHandler for handling requests.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// CORSAllowedOrigin is the origin allowed to call the API from a browser.
	CORSAllowedOrigin string
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Handler: v1handler.NewOptions(cfg),

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		CORSAllowedOrigin: cfg.HTTP.CORSAllowedOrigin,
	}
}

type Deps struct {
	v1handler.Deps
}

// NewRouter wires the routes of the service:
// - Prometheus metrics endpoint (MetricsPath)
// - Health check at /healthz
// - Embedded OpenAPI v1 spec and Swagger UI
// - v1 registration routes
// - pprof endpoints for profiling
// All routes are wrapped with logging, panic recovery and CORS middlewares.
func NewRouter(deps Deps, opts Options) http.Handler {
	r := chi.NewRouter()

	// logger first so recovered panics carry the request ID
	r.Use(controller.WithLogger, controller.WithRecover, controller.WithCORS(opts.CORSAllowedOrigin))

	// prometheus metrics server
	if opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, promhttp.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// v1 specs file
	r.Get("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	r.Handle("/v1/docs/*", v5emb.New(
		"Patron Registration Service",
		"/specs/v1.yaml",
		"/v1/docs/",
	))

	// pprof
	controller.Pprof(r)

	// v1 api
	v1handler.New(deps.Deps, opts.Handler).Register(r)

	return r
}

// NewServer returns a configured *http.Server serving NewRouter with a
// per-request timeout.
func NewServer(ctx context.Context, deps Deps, opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           http.TimeoutHandler(NewRouter(deps, opts), opts.RequestTimeout, TimeoutBody),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
		ErrorLog:          logger.StdLog(ctx),
	}
}
