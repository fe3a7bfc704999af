package server

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/panelkit/panelkit/internal/server/handlers"
)

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)
	s.router.Get("/health/startup", s.health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", handlers.MetricsHandler)

	api := handlers.NewAPI(s.app)
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/loading", api.LoadingHandler)

		r.Get("/notification", api.NotificationHandler)
		r.Post("/notification", api.ShowNotificationHandler)
		r.Delete("/notification", api.DismissNotificationHandler)

		r.Get("/menu", api.MenuHandler)
		r.Get("/menu/links", api.MenuLinksHandler)

		r.HandleFunc("/upstream/*", api.UpstreamHandler)
	})
}

func (s *Server) registerChecks() {
	s.health.RegisterChecker("menu", handlers.CheckerFunc(func(context.Context) error {
		return s.app.Menu.Validate()
	}))
}
