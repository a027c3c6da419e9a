package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"placeimages/internal/display"
	"placeimages/internal/fallback"
	"placeimages/internal/handlers"
	"placeimages/internal/handlers/api"
	"placeimages/internal/imagepath"
)

// Deps are the collaborators the routes are served by.
type Deps struct {
	Entities  api.EntitySource
	DB        handlers.Pinger
	Resolver  *imagepath.Resolver
	Generator *fallback.Generator
	Display   *display.Orchestrator
	// Gatherer backs /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(d Deps) {
	// Initialize handlers
	probeHandler := handlers.NewProbeHandler(d.DB)
	cardHandler := handlers.NewCardHandler(d.Entities, d.Display)
	imageHandler := api.NewImageHandler(d.Entities, d.Resolver, d.Generator, d.Display)

	// Probes
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	if d.Gatherer != nil {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Image API
	images := s.App.Group("/api/images")
	images.Post("/resolve", imageHandler.Resolve)
	images.Post("/prewarm", imageHandler.Prewarm)
	images.Get("/cache", imageHandler.CacheStats)
	images.Delete("/cache", imageHandler.ClearCache)
	images.Get("/:kind/:id/all", imageHandler.All)
	images.Get("/:kind/:id", imageHandler.Get)

	// HTML partials
	s.App.Get("/cards/:kind/:id", cardHandler.Show)
}
