package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"placeimages/internal/config"
	"placeimages/internal/db"
	"placeimages/internal/display"
	"placeimages/internal/fallback"
	"placeimages/internal/imagepath"
	"placeimages/internal/jobs"
	"placeimages/internal/metrics"
	"placeimages/internal/models"
	"placeimages/internal/preload"
	"placeimages/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	// Optional YAML overrides
	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}
	yamlCfg.Apply(cfg)

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.IsDev() {
		n, err := database.SeedDevEntities(ctx, seedEntities(yamlCfg.SeedEntities()))
		if err != nil {
			log.Printf("Warning: failed to seed dev entities: %v", err)
		} else if n > 0 {
			log.Printf("Seeded %d dev entities", n)
		}
	}

	// Image pipeline
	preloader := preload.NewHTTP(preload.Options{
		Timeout:      cfg.PreloadTimeout,
		AllowPrivate: cfg.PreloadAllowPrivate,
	})

	width, height := yamlCfg.ImageSize()
	opts := fallback.Options{
		Strategies: fallback.DefaultStrategies(fallback.Providers{
			KeywordURL:     cfg.KeywordProviderURL,
			CategoryURL:    cfg.CategoryProviderURL,
			PlaceholderURL: cfg.PlaceholderProviderURL,
			Width:          width,
			Height:         height,
		}),
		VerifyPlaceholder: cfg.VerifyPlaceholder,
	}
	if cfg.SharedCacheEnabled() {
		store := fallback.NewRedisStore(cfg.RedisURL)
		defer store.Close()
		opts.Shared = store
		log.Println("Shared fallback cache enabled")
	}
	generator := fallback.NewGenerator(preloader, opts)

	resolver := imagepath.New(cfg.APIBaseURL, cfg.DatasetRoot)
	orchestrator := display.New(resolver, generator, preloader, display.Options{
		MaxRetries:   cfg.RetryBudget,
		PollInterval: cfg.PollInterval,
	})

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Init(reg, generator)

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Deps{
		Entities:  database,
		DB:        database,
		Resolver:  resolver,
		Generator: generator,
		Display:   orchestrator,
		Gatherer:  reg,
	})

	// Background prewarm
	if cfg.PrewarmInterval > 0 {
		prewarmer := jobs.NewPrewarmer(database, generator, cfg.PrewarmInterval, cfg.PrewarmBatch)
		go prewarmer.Start(ctx)
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// seedEntities converts the YAML seed records, dropping those of unknown kind.
func seedEntities(seed []config.SeedEntity) []models.Entity {
	out := make([]models.Entity, 0, len(seed))
	for _, s := range seed {
		kind, ok := models.ParseKind(s.Kind)
		if !ok {
			log.Printf("Warning: skipping seed %q with unknown kind %q", s.Name, s.Kind)
			continue
		}
		out = append(out, models.Entity{
			Kind:        kind,
			Name:        s.Name,
			Type:        s.Type,
			Location:    s.Location,
			Description: s.Description,
			Tags:        models.TagList(s.Tags),
			AllImages:   models.ImageList(s.Images),
		})
	}
	return out
}
