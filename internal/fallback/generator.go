// Package fallback generates deterministic external image URLs for entities
// that have no stored image.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"placeimages/internal/imagepath"
	"placeimages/internal/metrics"
	"placeimages/internal/models"
	"placeimages/internal/preload"
)

// ErrExhausted means every strategy from the requested attempt onwards failed.
var ErrExhausted = errors.New("fallback: all strategies failed")

// Result is the outcome of one resolution.
type Result struct {
	URL      string
	PlaceID  string
	Strategy int
	Cached   bool
	// Pending means another caller is generating this entity right now.
	Pending bool
}

type entry struct {
	URL      string `json:"url"`
	Strategy int    `json:"strategy"`
}

// Options configures a Generator.
type Options struct {
	// Strategies in priority order. Nil uses DefaultStrategies(DefaultProviders()).
	Strategies []Strategy
	// Shared is an optional second cache tier shared between processes.
	Shared SharedStore
	// VerifyPlaceholder preloads guaranteed strategies too.
	VerifyPlaceholder bool
	Logger            *slog.Logger
}

// Generator resolves fallback images. The cache and in-flight set are
// guarded by one mutex so check-and-mark is a single critical section.
type Generator struct {
	strategies        []Strategy
	preloader         preload.Preloader
	shared            SharedStore
	verifyPlaceholder bool
	logger            *slog.Logger

	mu       sync.Mutex
	cache    map[string]entry
	inFlight map[string]struct{}
}

// NewGenerator creates a generator that checks candidates with p.
func NewGenerator(p preload.Preloader, opts Options) *Generator {
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies(DefaultProviders())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		strategies:        opts.Strategies,
		preloader:         p,
		shared:            opts.Shared,
		verifyPlaceholder: opts.VerifyPlaceholder,
		logger:            opts.Logger,
		cache:             make(map[string]entry),
		inFlight:          make(map[string]struct{}),
	}
}

// NeedsFallback reports whether the entity lacks any usable stored image.
func NeedsFallback(e *models.Entity) bool {
	return e != nil && !imagepath.HasStoredImage(e)
}

// Get returns the fallback URL for e, or "" when none is needed or another
// caller is generating it.
func (g *Generator) Get(ctx context.Context, e *models.Entity) (string, error) {
	res, err := g.Resolve(ctx, e)
	return res.URL, err
}

// Resolve runs the strategies from the first one.
func (g *Generator) Resolve(ctx context.Context, e *models.Entity) (Result, error) {
	return g.ResolveFrom(ctx, e, 0)
}

// ResolveFrom resolves e starting at strategy index attempt. A cached URL is
// returned only when it came from that strategy or a later one, so callers
// that rejected a URL move down the list. Attempts past the last strategy
// reuse the last one.
func (g *Generator) ResolveFrom(ctx context.Context, e *models.Entity, attempt int) (Result, error) {
	if !NeedsFallback(e) || len(g.strategies) == 0 {
		return Result{}, nil
	}
	if attempt < 0 {
		attempt = 0
	}
	if last := len(g.strategies) - 1; attempt > last {
		attempt = last
	}

	id := PlaceID(e)

	g.mu.Lock()
	if ent, ok := g.cache[id]; ok && ent.Strategy >= attempt {
		g.mu.Unlock()
		metrics.RecordCacheLookup("hit")
		return Result{URL: ent.URL, PlaceID: id, Strategy: ent.Strategy, Cached: true}, nil
	}
	if _, busy := g.inFlight[id]; busy {
		g.mu.Unlock()
		metrics.RecordCacheLookup("pending")
		return Result{PlaceID: id, Pending: true}, nil
	}
	g.inFlight[id] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inFlight, id)
		g.mu.Unlock()
	}()

	if ent, ok := g.loadShared(id); ok && ent.Strategy >= attempt {
		g.store(id, ent, false)
		metrics.RecordCacheLookup("shared_hit")
		return Result{URL: ent.URL, PlaceID: id, Strategy: ent.Strategy, Cached: true}, nil
	}
	metrics.RecordCacheLookup("miss")

	keywords := Keywords(e)
	for i := attempt; i < len(g.strategies); i++ {
		s := g.strategies[i]
		u, ok := s.Candidate(e, id, keywords)
		if !ok {
			metrics.RecordStrategyAttempt(s.Name(), "skipped")
			continue
		}

		if !g.verifyPlaceholder && isGuaranteed(s) {
			metrics.RecordStrategyAttempt(s.Name(), "ok")
			return g.accept(id, e, i, u), nil
		}

		if err := g.preloader.Preload(ctx, u); err != nil {
			metrics.RecordStrategyAttempt(s.Name(), "failed")
			g.logger.Debug("fallback strategy failed", "place_id", id, "strategy", s.Name(), "error", err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{PlaceID: id}, ctxErr
			}
			continue
		}
		metrics.RecordStrategyAttempt(s.Name(), "ok")
		return g.accept(id, e, i, u), nil
	}

	g.logger.Warn("all fallback strategies failed", "place_id", id, "name", e.Name, "from", attempt)
	return Result{PlaceID: id}, fmt.Errorf("%w for %q", ErrExhausted, e.Name)
}

func (g *Generator) accept(id string, e *models.Entity, strategy int, u string) Result {
	g.store(id, entry{URL: u, Strategy: strategy}, true)
	g.logger.Debug("fallback image generated", "place_id", id, "name", e.Name, "strategy", g.strategies[strategy].Name())
	return Result{URL: u, PlaceID: id, Strategy: strategy}
}

func (g *Generator) store(id string, ent entry, share bool) {
	g.mu.Lock()
	g.cache[id] = ent
	g.mu.Unlock()
	if share {
		g.saveShared(id, ent)
	}
}

func isGuaranteed(s Strategy) bool {
	gs, ok := s.(Guaranteed)
	return ok && gs.Guaranteed()
}

// Clear empties the cache and the shared tier. Generations in flight keep running.
func (g *Generator) Clear() {
	g.mu.Lock()
	g.cache = make(map[string]entry)
	g.mu.Unlock()

	if g.shared != nil {
		if err := g.shared.Reset(); err != nil {
			g.logger.Error("failed to reset shared fallback cache", "error", err)
		}
	}
}

// Stats describes the cache.
type Stats struct {
	CacheSize int
	InFlight  int
	PlaceIDs  []string
}

// Stats returns the cache size, in-flight count and the cached place ids, sorted.
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, 0, len(g.cache))
	for id := range g.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Stats{CacheSize: len(g.cache), InFlight: len(g.inFlight), PlaceIDs: ids}
}

// CacheStats implements metrics.CacheSource.
func (g *Generator) CacheStats() (size, inFlight int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache), len(g.inFlight)
}

// StrategyName returns the name of strategy i.
func (g *Generator) StrategyName(i int) string {
	if i < 0 || i >= len(g.strategies) {
		return ""
	}
	return g.strategies[i].Name()
}

// Strategies returns the number of configured strategies.
func (g *Generator) Strategies() int {
	return len(g.strategies)
}
