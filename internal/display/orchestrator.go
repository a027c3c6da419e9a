// Package display drives a rendered image slot from its stored image,
// through generated fallbacks, to a type icon.
package display

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"placeimages/internal/fallback"
	"placeimages/internal/metrics"
	"placeimages/internal/models"
	"placeimages/internal/preload"
)

// Defaults
const (
	DefaultMaxRetries   = 2
	DefaultPollInterval = 250 * time.Millisecond
	DefaultMaxPolls     = 8
)

// Resolver finds the stored image of an entity.
type Resolver interface {
	ResolveOne(e *models.Entity, index int) (string, bool)
}

// Generator produces fallback images.
type Generator interface {
	ResolveFrom(ctx context.Context, e *models.Entity, attempt int) (fallback.Result, error)
	StrategyName(i int) string
}

// Options configures an Orchestrator.
type Options struct {
	// MaxRetries is the number of retries after the first failed generated
	// image; FailedFinal follows the failure of the last one.
	MaxRetries int
	// PollInterval is the wait before re-asking for an image another caller is generating.
	PollInterval time.Duration
	// MaxPolls bounds consecutive pending answers; running out counts as one failure.
	MaxPolls int
	Logger   *slog.Logger
}

// Orchestrator holds the collaborators shared by every instance.
type Orchestrator struct {
	resolver  Resolver
	generator Generator
	preloader preload.Preloader
	opts      Options
	logger    *slog.Logger
}

// New creates an orchestrator.
func New(r Resolver, g Generator, p preload.Preloader, opts Options) *Orchestrator {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{resolver: r, generator: g, preloader: p, opts: opts, logger: opts.Logger}
}

// MaxRetries returns the configured retry budget.
func (o *Orchestrator) MaxRetries() int { return o.opts.MaxRetries }

// NewInstance creates the state for one rendered slot.
func (o *Orchestrator) NewInstance() *Instance {
	return &Instance{ID: uuid.NewString(), o: o}
}

// Render loads e into a throwaway instance and returns the settled snapshot.
func (o *Orchestrator) Render(ctx context.Context, e *models.Entity, index int) Snapshot {
	inst := o.NewInstance()
	defer inst.Close()
	return inst.Load(ctx, e, index)
}

// Instance is one rendered slot. Each Load supersedes the previous one:
// its context is cancelled and any late result it produces is discarded.
type Instance struct {
	ID string
	o  *Orchestrator

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
	snap   Snapshot
}

// Snapshot returns the current state.
func (i *Instance) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.snap
}

// Close detaches the instance. Loads still running stop mutating it.
func (i *Instance) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	i.gen++
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}
}

// Load runs the display pipeline for e and returns the snapshot it ended on.
// If the load is superseded or the instance closed, the current snapshot is
// returned instead.
func (i *Instance) Load(ctx context.Context, e *models.Entity, index int) Snapshot {
	i.mu.Lock()
	if i.closed {
		defer i.mu.Unlock()
		return i.snap
	}
	i.gen++
	token := i.gen
	if i.cancel != nil {
		i.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	i.cancel = cancel
	i.snap = Snapshot{State: Loading}
	i.mu.Unlock()

	r := run{inst: i, token: token, entity: e, index: index}
	r.execute(ctx)
	return i.Snapshot()
}

// set applies s if token is still the current load.
func (i *Instance) set(token uint64, s Snapshot) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed || token != i.gen {
		return false
	}
	i.snap = s
	return true
}

func (i *Instance) current(token uint64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return !i.closed && token == i.gen
}

// run is one pass of the pipeline for a single load token.
type run struct {
	inst   *Instance
	token  uint64
	entity *models.Entity
	index  int
}

func (r *run) execute(ctx context.Context) {
	o := r.inst.o
	log := o.logger.With("instance", r.inst.ID)

	if r.entity == nil {
		r.finish(Snapshot{State: FailedFinal, Icon: IconFor(nil)})
		return
	}

	if url, ok := o.resolver.ResolveOne(r.entity, r.index); ok {
		err := o.preloader.Preload(ctx, url)
		if !r.inst.current(r.token) {
			return
		}
		if err == nil {
			r.finish(Snapshot{State: Loaded, URL: url})
			return
		}
		if ctx.Err() != nil {
			return
		}
		// a broken stored image goes straight to the fallback without using the budget
		log.Debug("stored image failed to load", "entity", r.entity.ID, "url", url, "error", err)
	}

	subject := fallbackSubject(r.entity)
	retries, attempt, polls := 0, 0, 0
	for {
		res, err := o.generator.ResolveFrom(ctx, subject, attempt)
		if !r.inst.current(r.token) || ctx.Err() != nil {
			return
		}

		switch {
		case err == nil && res.Pending:
			polls++
			if polls <= o.opts.MaxPolls {
				if !sleep(ctx, o.opts.PollInterval) {
					return
				}
				continue
			}
			log.Debug("gave up waiting for fallback generation", "entity", r.entity.ID, "polls", polls-1)
			polls = 0

		case err == nil && res.URL != "":
			polls = 0
			perr := o.preloader.Preload(ctx, res.URL)
			if !r.inst.current(r.token) || ctx.Err() != nil {
				return
			}
			if perr == nil {
				r.finish(Snapshot{
					State:       Loaded,
					URL:         res.URL,
					IsGenerated: true,
					Retries:     retries,
					Strategy:    o.generator.StrategyName(res.Strategy),
				})
				return
			}
			log.Debug("generated image failed to load", "entity", r.entity.ID, "url", res.URL, "error", perr)
			attempt = res.Strategy + 1

		case errors.Is(err, fallback.ErrExhausted):
			log.Debug("fallback strategies exhausted", "entity", r.entity.ID, "attempt", attempt)

		case err != nil:
			log.Warn("fallback generation failed", "entity", r.entity.ID, "error", err)
		}

		// the first failure is not a retry; MaxRetries more attempts follow it
		if retries >= o.opts.MaxRetries {
			r.finish(Snapshot{State: FailedFinal, Icon: IconFor(r.entity), Retries: retries})
			return
		}
		retries++
		if !r.inst.set(r.token, Snapshot{State: Failed, Retries: retries}) ||
			!r.inst.set(r.token, Snapshot{State: Loading, Retries: retries}) {
			return
		}
	}
}

func (r *run) finish(s Snapshot) {
	if r.inst.set(r.token, s) {
		metrics.RecordDisplayOutcome(s.State.String(), s.IsGenerated)
	}
}

// fallbackSubject strips stored images so the generator treats the entity
// as imageless. Its place id is unchanged.
func fallbackSubject(e *models.Entity) *models.Entity {
	c := *e
	c.ImageURL = ""
	c.Images = nil
	c.AllImages = nil
	return &c
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
