// Package server exposes the dashboard state over HTTP: the loading flag,
// the toast slot, the navigation tree and a guarded proxy to the upstream
// API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/app"
	"github.com/panelkit/panelkit/internal/config"
	apperrors "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/observability"
	"github.com/panelkit/panelkit/internal/server/handlers"
	servermw "github.com/panelkit/panelkit/internal/server/middleware"
)

// Server is the panelkit HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	app    *app.Context
	health *handlers.HealthManager
}

// New builds the router for appCtx. The listener is not opened until Start.
func New(appCtx *app.Context, cfg config.ServerConfig, version string) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(servermw.RequestID)      // correlation first so every log line carries it
	r.Use(servermw.RequestMetrics) // measures the recovered response too
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		cfg:    cfg,
		app:    appCtx,
		health: handlers.NewHealthManager(version),
	}
	s.registerChecks()
	s.registerRoutes()
	return s
}

// Health returns the manager behind the /health endpoints.
func (s *Server) Health() *handlers.HealthManager {
	return s.health
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	if logger := observability.Logger(); logger != nil {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("loader_policy", string(s.app.Loader.Policy())),
			zap.Bool("upstream_proxy", s.app.UpstreamBaseURL != ""))
	}

	s.health.MarkStarted()
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if logger := observability.Logger(); logger != nil {
		logger.Info("Shutting down HTTP server",
			zap.Int("loader_in_flight", s.app.Loader.InFlight()))
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
