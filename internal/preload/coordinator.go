// Package preload warms the asset cache from a priority-ordered manifest.
package preload

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/agentic-research/assetcache/api"
	"github.com/agentic-research/assetcache/internal/cache"
	"github.com/agentic-research/assetcache/internal/scene"
)

// Loader is the part of the cache engine the coordinator drives.
type Loader interface {
	Load(ctx context.Context, key string, opts cache.Options) (*scene.Asset, error)
	Info() cache.Info
}

// Failure records an asset that could not be preloaded.
type Failure struct {
	Name  string
	Path  string
	Error string
}

// State is a read-only snapshot of the coordinator.
type State struct {
	InProgress bool
	Progress   float64 // 0-100, never decreases within a run
	Preloaded  []string
	Errors     []Failure
	Cache      cache.Info // loader snapshot taken with the state
}

// Coordinator runs the manifest through a Loader one asset at a time and
// records which keys made it into the cache.
type Coordinator struct {
	loader     Loader
	manifest   api.Manifest
	log        *log.Logger
	startDelay time.Duration

	mu         sync.Mutex
	inProgress bool
	progress   float64
	preloaded  *keySet
	errors     []Failure
}

// Option configures a Coordinator built by New.
type Option func(*Coordinator)

// WithLogger routes coordinator logs to l instead of log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithStartDelay sets the delay AutoStart uses when given none.
func WithStartDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.startDelay = d }
}

// New builds a coordinator for manifest that loads through loader.
func New(loader Loader, manifest api.Manifest, opts ...Option) *Coordinator {
	c := &Coordinator{
		loader:     loader,
		manifest:   manifest,
		log:        log.Default(),
		startDelay: DefaultStartDelay,
		preloaded:  newKeySet(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start loads every manifest entry in ascending priority order and returns
// the final state. A failing asset is recorded and the run moves on. If a
// run is already in progress Start does nothing and returns the current
// state.
//
// Once ctx is done the remaining entries are recorded as failures without
// being loaded.
func (c *Coordinator) Start(ctx context.Context) State {
	c.mu.Lock()
	if c.inProgress {
		c.mu.Unlock()
		c.log.Printf("Preload: run already in progress, ignoring start")
		return c.State()
	}
	c.inProgress = true
	c.progress = 0
	c.errors = nil
	c.mu.Unlock()

	assets := c.manifest.Sorted()
	n := float64(len(assets))
	completed := 0
	c.log.Printf("Preload: starting run over %d assets", len(assets))

	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			c.fail(a, err)
			continue
		}

		base := float64(completed) / n * 100
		opts := cache.DefaultOptions()
		opts.OnProgress = func(pct float64) {
			c.advance(min(100, base+pct/n))
		}
		if _, err := c.loader.Load(ctx, a.Path, opts); err != nil {
			c.fail(a, err)
			continue
		}

		completed++
		c.mu.Lock()
		c.preloaded.Add(a.Path)
		c.mu.Unlock()
		c.advance(float64(completed) / n * 100)
		c.log.Printf("Preload: loaded %s (%s)", a.Name, a.Path)
	}

	c.mu.Lock()
	c.progress = 100
	c.inProgress = false
	failed := len(c.errors)
	c.mu.Unlock()

	info := c.loader.Info()
	c.log.Printf("Preload: finished, %d loaded, %d failed; cache holds %d records (%d hits, %d misses, ~%.2f MB)",
		completed, failed, info.Cached, info.Stats.Hits, info.Stats.Misses, info.Memory.EstimatedMB)
	return c.State()
}

func (c *Coordinator) fail(a api.Asset, err error) {
	c.mu.Lock()
	c.errors = append(c.errors, Failure{Name: a.Name, Path: a.Path, Error: err.Error()})
	c.mu.Unlock()
	c.log.Printf("Preload: failed to load %s (%s): %v", a.Name, a.Path, err)
}

// advance raises progress to p. Lower values are ignored.
func (c *Coordinator) advance(p float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p > c.progress {
		c.progress = p
	}
}

// IsPreloaded reports whether key was loaded by a run or by PreloadOne.
func (c *Coordinator) IsPreloaded(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preloaded.Contains(key)
}

// LoadOption adjusts the cache options used by PreloadOne.
type LoadOption func(*cache.Options)

func WithoutCaching() LoadOption {
	return func(o *cache.Options) { o.EnableCaching = false }
}

func WithoutOptimization() LoadOption {
	return func(o *cache.Options) { o.EnableOptimization = false }
}

func WithProgress(fn func(percent float64)) LoadOption {
	return func(o *cache.Options) { o.OnProgress = fn }
}

// PreloadOne loads a single key outside of a run. Caching and optimization
// are on unless an option turns them off. Only the preloaded set is
// updated; progress and failures belong to runs.
func (c *Coordinator) PreloadOne(ctx context.Context, key string, opts ...LoadOption) bool {
	o := cache.DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if _, err := c.loader.Load(ctx, key, o); err != nil {
		c.log.Printf("Preload: failed to load %s: %v", key, err)
		return false
	}
	c.mu.Lock()
	c.preloaded.Add(key)
	c.mu.Unlock()
	return true
}

// Clear forgets the preloaded set, failures and progress. The cache is left
// alone. A run in progress keeps its in-progress flag, so Start still refuses
// to begin a second run until it finishes.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = 0
	c.errors = nil
	c.preloaded.Clear()
}

// State returns a copy of the coordinator state together with the
// loader's cache snapshot.
func (c *Coordinator) State() State {
	info := c.loader.Info()
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Cache:      info,
		InProgress: c.inProgress,
		Progress:   c.progress,
		Preloaded:  c.preloaded.Keys(),
	}
	if len(c.errors) > 0 {
		s.Errors = make([]Failure, len(c.errors))
		copy(s.Errors, c.errors)
	}
	return s
}
