package fallback

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"placeimages/internal/models"
)

// Prewarm batching defaults.
const (
	DefaultBatchSize  = 3
	DefaultBatchPause = 500 * time.Millisecond
)

// PrewarmResult counts what a prewarm run did.
type PrewarmResult struct {
	Requested int
	Resolved  int
	Skipped   int
	Failed    int
}

// Prewarm generates fallbacks for the entities that need one, a few at a
// time with a pause between batches so providers are not flooded.
// Entities with stored images, or already being generated, count as skipped.
func (g *Generator) Prewarm(ctx context.Context, entities []*models.Entity) (PrewarmResult, error) {
	return g.prewarm(ctx, entities, DefaultBatchSize, DefaultBatchPause)
}

func (g *Generator) prewarm(ctx context.Context, entities []*models.Entity, size int, pause time.Duration) (PrewarmResult, error) {
	res := PrewarmResult{Requested: len(entities)}

	var pending []*models.Entity
	for _, e := range entities {
		if NeedsFallback(e) {
			pending = append(pending, e)
		} else {
			res.Skipped++
		}
	}

	var mu sync.Mutex
	for start := 0; start < len(pending); start += size {
		if start > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(pause):
			}
		}

		end := min(start+size, len(pending))
		var eg errgroup.Group
		for _, e := range pending[start:end] {
			eg.Go(func() error {
				r, err := g.Resolve(ctx, e)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					res.Failed++
					// provider failures are counted; only cancellation stops the run
					if ctxErr := ctx.Err(); ctxErr != nil {
						return ctxErr
					}
				case r.Pending:
					res.Skipped++
				default:
					res.Resolved++
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return res, err
		}
	}
	return res, nil
}
