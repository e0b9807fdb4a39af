// Package cache loads 3D assets once per key and serves independent
// clones of a cache-owned canonical copy.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agentic-research/assetcache/internal/fetch"
	"github.com/agentic-research/assetcache/internal/scene"
)

// DefaultMaxAssets bounds the number of canonical records when
// Config.MaxAssets is unset.
const DefaultMaxAssets = 64

// ErrLoadPanic wraps a panic raised while fetching or decoding an asset.
var ErrLoadPanic = errors.New("load panicked")

// DecodeFunc turns a fetched payload into an asset.
type DecodeFunc func(key string, payload []byte) (*scene.Asset, error)

// Options controls a single Load.
type Options struct {
	EnableOptimization bool
	EnableCaching      bool
	// OnProgress receives fetch progress in [0,100]. It is only invoked
	// for the caller that performs the fetch.
	OnProgress func(percent float64)
}

// DefaultOptions enables optimization and caching.
func DefaultOptions() Options {
	return Options{EnableOptimization: true, EnableCaching: true}
}

// Config tunes an Engine.
type Config struct {
	MaxAssets int
	Logger    *log.Logger
}

// Engine is the asset cache. The canonical record stored for a key is
// never handed out; callers always receive their own instance.
//
// Concurrency: the cache check, ticket lookup and ticket registration for a
// key happen in one critical section, and so do storing the canonical record
// and removing the ticket. At most one fetch per key is in flight.
type Engine struct {
	src    fetch.Fetcher
	decode DecodeFunc
	log    *log.Logger

	mu      sync.Mutex
	records *lru.Cache[string, *scene.Asset]
	tickets map[string]*ticket
	stats   Stats
	gen     uint64 // bumped by Teardown; loads started earlier do not cache
}

// ticket is an in-flight load. done is closed once the load settles.
type ticket struct {
	done    chan struct{}
	waiters int
	result  *scene.Asset // private copy for waiters, never handed out
	err     error
}

// New builds an engine reading payloads from src and decoding them with
// decode.
func New(src fetch.Fetcher, decode DecodeFunc, cfg Config) (*Engine, error) {
	if src == nil || decode == nil {
		return nil, fmt.Errorf("cache: fetcher and decoder are required")
	}
	size := cfg.MaxAssets
	if size <= 0 {
		size = DefaultMaxAssets
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	e := &Engine{
		src:     src,
		decode:  decode,
		log:     logger,
		tickets: make(map[string]*ticket),
	}
	records, err := lru.NewWithEvict[string, *scene.Asset](size, e.release)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	e.records = records
	return e, nil
}

// release disposes a canonical record leaving the cache, whether through
// Evict, EvictAll, Teardown or capacity pressure. Called with e.mu held.
func (e *Engine) release(key string, rec *scene.Asset) {
	rec.Dispose()
	e.stats.Evictions++
	e.log.Printf("Cache: released %s", key)
}

// Load returns an instance of the asset stored under key, fetching and
// decoding it on first use. The first caller receives the freshly decoded
// instance; every other caller receives a clone.
func (e *Engine) Load(ctx context.Context, key string, opts Options) (*scene.Asset, error) {
	e.mu.Lock()
	if opts.EnableCaching {
		if rec, ok := e.records.Get(key); ok {
			e.stats.Hits++
			out := rec.Clone()
			e.mu.Unlock()
			return out, nil
		}
	}
	if t, ok := e.tickets[key]; ok {
		e.stats.Hits++
		e.stats.Joined++
		t.waiters++
		e.mu.Unlock()
		e.log.Printf("Cache: waiting for in-flight load of %s", key)
		return t.wait(ctx)
	}
	e.stats.Misses++
	t := &ticket{done: make(chan struct{})}
	e.tickets[key] = t
	gen := e.gen
	e.mu.Unlock()

	return e.lead(ctx, key, t, gen, opts)
}

// lead performs the fetch registered as t. The ticket is settled and removed
// on every exit path. A panic in the fetcher, the decoder or the progress
// callback becomes ErrLoadPanic for the leader and every waiter.
func (e *Engine) lead(ctx context.Context, key string, t *ticket, gen uint64, opts Options) (asset *scene.Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			asset, err = nil, fmt.Errorf("%w: %s: %v", ErrLoadPanic, key, r)
		}
		e.settle(key, t, gen, opts.EnableCaching, asset, err)
	}()

	// An in-flight load is never cancelled: waiters depend on it.
	asset, err = e.fetchAndDecode(context.WithoutCancel(ctx), key, opts.OnProgress)
	if err != nil {
		return nil, err
	}
	if opts.EnableOptimization {
		Optimize(asset)
	}
	return asset, nil
}

// settle removes t, stores the canonical record on success and wakes the
// waiters.
func (e *Engine) settle(key string, t *ticket, gen uint64, caching bool, asset *scene.Asset, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tickets[key] == t {
		delete(e.tickets, key)
	}
	if err != nil {
		t.err = err
		close(t.done)
		e.log.Printf("Cache: load %s failed: %v", key, err)
		return
	}

	if caching && gen == e.gen {
		if _, exists := e.records.Peek(key); exists {
			e.records.Remove(key)
		}
		e.records.Add(key, asset.Clone())
		e.stats.TotalCached++
	}
	e.stats.TotalLoaded++
	if t.waiters > 0 {
		t.result = asset.Clone()
	}
	close(t.done)
}

func (e *Engine) fetchAndDecode(ctx context.Context, key string, onProgress func(float64)) (*scene.Asset, error) {
	var progress fetch.ProgressFunc
	if onProgress != nil {
		progress = func(loaded, total int64) { onProgress(fetch.Percent(loaded, total)) }
	}
	payload, err := e.src.Fetch(ctx, key, progress)
	if err != nil {
		return nil, err
	}
	return e.decode(key, payload)
}

// wait blocks until the load settles or ctx is done. Each waiter gets its
// own clone of the result.
func (t *ticket) wait(ctx context.Context) (*scene.Asset, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.result.Clone(), nil
}

// Preload loads key with caching and optimization forced on. Errors are
// logged and reported as false.
func (e *Engine) Preload(ctx context.Context, key string, opts Options) bool {
	opts.EnableCaching = true
	opts.EnableOptimization = true
	if _, err := e.Load(ctx, key, opts); err != nil {
		e.log.Printf("Cache: preload %s failed: %v", key, err)
		return false
	}
	e.log.Printf("Cache: preloaded %s", key)
	return true
}

// Evict releases the canonical record for key. Missing keys are ignored.
// The next Load of key is a cache miss.
func (e *Engine) Evict(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records.Remove(key)
}

// EvictAll releases every canonical record.
func (e *Engine) EvictAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records.Purge()
	e.log.Printf("Cache: cleared all records")
}

// Teardown evicts everything, forgets in-flight tickets and zeroes the
// statistics. Loads still in flight settle for their own callers but do
// not repopulate the cache.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records.Purge()
	e.tickets = make(map[string]*ticket)
	e.stats = Stats{}
	e.gen++
}
