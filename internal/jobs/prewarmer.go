package jobs

import (
	"context"
	"log"
	"time"

	"placeimages/internal/fallback"
	"placeimages/internal/models"
)

// EntityLister lists entities that have no stored image.
type EntityLister interface {
	ListEntitiesWithoutImages(ctx context.Context, kind models.Kind, limit int) ([]*models.Entity, error)
}

// Warmer generates fallbacks ahead of display.
type Warmer interface {
	Prewarm(ctx context.Context, entities []*models.Entity) (fallback.PrewarmResult, error)
}

// Prewarmer periodically generates fallback images for entities without stored images.
type Prewarmer struct {
	entities EntityLister
	warmer   Warmer
	interval time.Duration
	batch    int
}

// NewPrewarmer creates a new prewarmer. batch is the number of entities listed per kind and run.
func NewPrewarmer(entities EntityLister, warmer Warmer, interval time.Duration, batch int) *Prewarmer {
	if batch <= 0 {
		batch = 50
	}
	return &Prewarmer{
		entities: entities,
		warmer:   warmer,
		interval: interval,
		batch:    batch,
	}
}

// Start begins the background prewarm loop.
func (p *Prewarmer) Start(ctx context.Context) {
	log.Printf("Prewarmer started (interval: %v, batch: %d)", p.interval, p.batch)

	// Run immediately on start
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Prewarmer stopped")
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce prewarms one batch of every kind and returns the combined counts.
func (p *Prewarmer) RunOnce(ctx context.Context) fallback.PrewarmResult {
	var total fallback.PrewarmResult

	for _, kind := range models.Kinds {
		// Check context before each kind
		if ctx.Err() != nil {
			return total
		}

		entities, err := p.entities.ListEntitiesWithoutImages(ctx, kind, p.batch)
		if err != nil {
			log.Printf("Prewarmer: failed to list %s entities: %v", kind, err)
			continue
		}
		if len(entities) == 0 {
			continue
		}

		res, err := p.warmer.Prewarm(ctx, entities)
		total.Requested += res.Requested
		total.Resolved += res.Resolved
		total.Skipped += res.Skipped
		total.Failed += res.Failed
		if err != nil {
			log.Printf("Prewarmer: %s run interrupted: %v", kind, err)
			return total
		}
		log.Printf("Prewarmer: %s resolved=%d skipped=%d failed=%d", kind, res.Resolved, res.Skipped, res.Failed)
	}

	return total
}
