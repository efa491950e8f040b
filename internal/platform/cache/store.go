package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/statforge/statengine/internal/platform/resilience"
)

// Tier selects the freshness class of a cached entry.
type Tier string

const (
	// TierLive holds entries for in-progress games, seconds-scale TTL.
	TierLive Tier = "live"
	// TierStandard holds entries for recently active games, minutes-scale TTL.
	TierStandard Tier = "standard"
	// TierHistorical holds entries for archived games with no expiry;
	// they are evicted only by explicit invalidation.
	TierHistorical Tier = "historical"
)

type Config struct {
	LiveTTL     time.Duration
	StandardTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		LiveTTL:     30 * time.Second,
		StandardTTL: 2 * time.Minute,
	}
}

type entry struct {
	value     any
	tier      Tier
	expiresAt time.Time
}

// Store is a concurrency-safe in-process cache with per-tier TTLs.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	cfg     Config
	flight  resilience.SingleFlight[any]
	now     func() time.Time

	onHit  func()
	onMiss func()
}

func NewStore(cfg Config) *Store {
	if cfg.LiveTTL <= 0 {
		cfg.LiveTTL = DefaultConfig().LiveTTL
	}
	if cfg.StandardTTL <= 0 {
		cfg.StandardTTL = DefaultConfig().StandardTTL
	}
	return &Store{
		entries: make(map[string]entry),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Instrument registers hit/miss callbacks. Nil callbacks are ignored.
func (s *Store) Instrument(onHit, onMiss func()) {
	s.onHit = onHit
	s.onMiss = onMiss
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		s.miss()
		return nil, false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		s.miss()
		return nil, false
	}

	s.hit()
	return e.value, true
}

// Peek reports whether key holds a live entry without touching the hit/miss
// instrumentation.
func (s *Store) Peek(_ context.Context, key string) bool {
	if key == "" {
		return false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return e.expiresAt.IsZero() || e.expiresAt.After(now)
}

func (s *Store) Set(_ context.Context, key string, value any, tier Tier) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if ttl := s.ttlFor(tier); ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		tier:      tier,
		expiresAt: expiresAt,
	}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value for key, loading and caching it under
// tier on a miss. Concurrent loads for the same key are collapsed.
func (s *Store) GetOrLoad(ctx context.Context, key string, tier Tier, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded, tier)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *Store) ttlFor(tier Tier) time.Duration {
	switch tier {
	case TierLive:
		return s.cfg.LiveTTL
	case TierHistorical:
		return 0
	default:
		return s.cfg.StandardTTL
	}
}

func (s *Store) hit() {
	if s.onHit != nil {
		s.onHit()
	}
}

func (s *Store) miss() {
	if s.onMiss != nil {
		s.onMiss()
	}
}
