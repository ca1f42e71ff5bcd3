// Package cache memoizes WKT translations in two tiers: an in-process LRU in
// front of an optional shared store. Every key embeds a generation number;
// bumping the generation makes all earlier entries unreachable.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/cs-wkt/internal/cache/keys"
	"github.com/mohammed-shakir/cs-wkt/internal/core/observability"
)

// Store is a shared byte cache tier. redisstore.Client implements it.
type Store interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// GenerationStore shares the generation counter between replicas.
type GenerationStore interface {
	Incr(ctx context.Context, key string) (uint64, error)
	GetUint(ctx context.Context, key string) (uint64, error)
}

const (
	TierLRU   = "lru"
	TierRedis = "redis"
)

type Options struct {
	LRUSize   int
	OpTimeout time.Duration
	Logger    *slog.Logger
}

type Tiered struct {
	mem       *lru.Cache[string, []byte]
	store     Store
	gens      GenerationStore
	gen       atomic.Uint64
	opTimeout time.Duration
	log       *slog.Logger
	// bumpMu serializes Bump so local and shared counters move together.
	bumpMu sync.Mutex
}

// New builds a cache. store may be nil for an LRU-only cache; when it also
// implements GenerationStore the generation is shared through it.
func New(store Store, opts Options) (*Tiered, error) {
	size := opts.LRUSize
	if size <= 0 {
		size = 4096
	}
	mem, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 250 * time.Millisecond
	}
	t := &Tiered{mem: mem, store: store, opTimeout: opts.OpTimeout, log: opts.Logger}
	if g, ok := store.(GenerationStore); ok {
		t.gens = g
	}
	return t, nil
}

func (t *Tiered) Generation() uint64 { return t.gen.Load() }

// Key derives the cache key for a translation at the current generation.
func (t *Tiered) Key(direction, flavor, opts, payload string) string {
	return keys.Key(direction, flavor, t.Generation(), opts, payload)
}

// Get returns a cached value and the tier that served it. Store errors are
// logged and reported as a miss.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, string, bool) {
	if v, ok := t.mem.Get(key); ok {
		observability.IncCacheHit(TierLRU)
		return v, TierLRU, true
	}
	observability.IncCacheMiss(TierLRU)
	if t.store == nil {
		return nil, "", false
	}

	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()
	got, err := t.store.MGet(ctx, []string{key})
	if err != nil {
		t.log.WarnContext(ctx, "cache store read failed", "key", key, "err", err)
		return nil, "", false
	}
	v, ok := got[key]
	if !ok {
		return nil, "", false
	}
	t.mem.Add(key, v)
	return v, TierRedis, true
}

// Put writes both tiers. A store failure is logged and does not fail the call.
func (t *Tiered) Put(ctx context.Context, key string, val []byte, ttl time.Duration) {
	t.mem.Add(key, val)
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()
	if err := t.store.Set(ctx, key, val, ttl); err != nil {
		t.log.WarnContext(ctx, "cache store write failed", "key", key, "err", err)
	}
}

// Bump advances the generation and drops the LRU. With a shared counter the
// new generation is the shared one.
func (t *Tiered) Bump(ctx context.Context) (uint64, error) {
	t.bumpMu.Lock()
	defer t.bumpMu.Unlock()

	next := t.gen.Load() + 1
	if t.gens != nil {
		ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
		defer cancel()
		n, err := t.gens.Incr(ctx, keys.GenerationKey)
		if err != nil {
			// Still bump locally so this replica stops serving stale entries.
			t.advance(next)
			return next, err
		}
		if n > next {
			next = n
		}
	}
	t.advance(next)
	return next, nil
}

// Sync adopts a newer shared generation published by another replica.
func (t *Tiered) Sync(ctx context.Context) error {
	if t.gens == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()
	n, err := t.gens.GetUint(ctx, keys.GenerationKey)
	if err != nil {
		return err
	}
	t.bumpMu.Lock()
	defer t.bumpMu.Unlock()
	if n > t.gen.Load() {
		t.advance(n)
	}
	return nil
}

// RunSync calls Sync every interval until ctx ends.
func (t *Tiered) RunSync(ctx context.Context, interval time.Duration) {
	if t.gens == nil || interval <= 0 {
		return
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if err := t.Sync(ctx); err != nil {
				t.log.WarnContext(ctx, "cache generation sync failed", "err", err)
			}
		}
	}
}

func (t *Tiered) advance(gen uint64) {
	t.gen.Store(gen)
	t.mem.Purge()
	observability.SetCacheGeneration(gen)
}

func (t *Tiered) Len() int { return t.mem.Len() }
