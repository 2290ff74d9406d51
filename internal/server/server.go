// Package server assembles the HTTP surface: Connect services, health and
// metrics endpoints, behind chi middleware and h2c.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/honeyfile/internal/auth"
	"github.com/mmynk/honeyfile/internal/middleware"
	"github.com/mmynk/honeyfile/internal/service"
)

// Deps are the handlers and collaborators the router mounts.
type Deps struct {
	Auth   *service.AuthService
	Ledger *service.LedgerService
	Files  *service.FileService

	JWT *auth.JWTManager

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Ping reports storage health for /health. Nil means always healthy.
	Ping func(r *http.Request) error

	// CORSOrigins lists browser origins allowed to call the API.
	// Empty allows any origin.
	CORSOrigins []string

	Logger *slog.Logger
}

// NewHandler returns the root handler, wrapped with h2c so Connect clients
// can speak HTTP/2 without TLS.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(loggingMiddleware(d.Logger))
	r.Use(corsHandler(d.CORSOrigins))

	r.Get("/health", healthHandler(d.Ping))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Logging is outermost so rejected tokens are still logged.
	public := connect.WithInterceptors(middleware.LoggingInterceptor(d.Logger))
	authed := connect.WithInterceptors(
		middleware.LoggingInterceptor(d.Logger),
		middleware.RequireAuth(d.JWT),
	)
	// The catalog can be browsed anonymously; publishing and deleting
	// check for an account in the handler.
	browsable := connect.WithInterceptors(
		middleware.LoggingInterceptor(d.Logger),
		middleware.OptionalAuth(d.JWT),
	)

	authPath, authHandler := service.NewAuthServiceHandler(d.Auth, public)
	r.Handle(authPath+"*", authHandler)

	ledgerPath, ledgerHandler := service.NewLedgerServiceHandler(d.Ledger, authed)
	r.Handle(ledgerPath+"*", ledgerHandler)

	filesPath, filesHandler := service.NewFileServiceHandler(d.Files, browsable)
	r.Handle(filesPath+"*", filesHandler)

	return h2c.NewHandler(r, &http2.Server{})
}

func healthHandler(ping func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if ping != nil {
			if err := ping(r); err != nil {
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chimw.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// corsHandler adds CORS headers for browser access
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", "Honeyfile-Required-Points", "Honeyfile-Available-Points"},
		MaxAge:         300,
	})
}
