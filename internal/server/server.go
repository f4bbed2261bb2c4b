// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	Tokens       []string // bearer tokens for /api/v1; empty disables auth
	Metrics      http.Handler
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ApplyDefaults fills unset timeouts and the version string.
func (c *Config) ApplyDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return rserr.New(rserr.CodeServerConfigInvalid, "listen address is required")
	}
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return rserr.New(rserr.CodeServerConfigInvalid, "CORS origin \"*\" is not allowed, list origins explicitly")
		}
	}
	for _, tok := range c.Tokens {
		if strings.TrimSpace(tok) == "" {
			return rserr.New(rserr.CodeServerConfigInvalid, "auth tokens must not be blank")
		}
	}
	return nil
}

// Server wraps a chi router with a huma API and an HTTP server.
type Server struct {
	router   chi.Router
	api      huma.API
	cfg      Config
	services *Services
	started  time.Time

	mu      sync.Mutex
	httpSrv *http.Server
}

// New creates a Server with its middleware stack, health endpoint and, when
// svc is non-nil, the entity, entry and flow routes.
func New(cfg Config, svc *Services) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(securityHeaders)
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(authMiddleware(cfg.Tokens))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	humaConfig := huma.DefaultConfig("ringsense", cfg.Version)
	humaConfig.Info.Description = "Oura Ring scores as polled sensor entities"
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthBody{Status: "ok"}}, nil
	})

	s := &Server{
		router:   r,
		api:      api,
		cfg:      cfg,
		services: svc,
		started:  time.Now(),
	}
	if svc != nil {
		s.registerRoutes()
	}
	return s, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// API returns the huma API, e.g. for OpenAPI generation.
func (s *Server) API() huma.API { return s.api }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return rserr.Wrapf(err, rserr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return rserr.Wrap(err, rserr.CodeServerStartFailure, "serving http")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return rserr.Wrap(err, rserr.CodeServerShutdownFailure, "shutting down")
	}
	return <-errCh
}

// Close stops a running server immediately.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Close()
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows only the configured origins. With none configured
// no cross-origin request is allowed.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
