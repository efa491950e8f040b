package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_LiveTierExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	store := NewStore(Config{LiveTTL: 30 * time.Second, StandardTTL: 2 * time.Minute})
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "stats:live", "v1", TierLive)

	now = base.Add(20 * time.Second)
	if v, ok := store.Get(context.Background(), "stats:live"); !ok || v != "v1" {
		t.Fatalf("entry should be served unchanged before TTL, got %v ok=%v", v, ok)
	}

	now = base.Add(31 * time.Second)
	if _, ok := store.Get(context.Background(), "stats:live"); ok {
		t.Fatal("entry should have expired after live TTL")
	}
}

func TestStore_HistoricalTierNeverExpires(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultConfig())
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "stats:archived", "final", TierHistorical)

	now = base.Add(365 * 24 * time.Hour)
	if v, ok := store.Get(context.Background(), "stats:archived"); !ok || v != "final" {
		t.Fatalf("historical entry should never expire, got %v ok=%v", v, ok)
	}

	store.Delete(context.Background(), "stats:archived")
	if _, ok := store.Get(context.Background(), "stats:archived"); ok {
		t.Fatal("explicit invalidation should evict historical entries")
	}
}

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultConfig())
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", TierStandard, loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_PropagatesLoaderError(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultConfig())
	wantErr := errors.New("storage down")

	_, err := store.GetOrLoad(context.Background(), "k", TierStandard, func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want loader error, got %v", err)
	}

	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatal("failed loads must not populate the cache")
	}
}

func TestStore_InstrumentCountsHitsAndMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultConfig())
	var hits, misses atomic.Int32
	store.Instrument(func() { hits.Add(1) }, func() { misses.Add(1) })

	store.Get(context.Background(), "absent")
	store.Set(context.Background(), "present", 1, TierStandard)
	store.Get(context.Background(), "present")

	if hits.Load() != 1 || misses.Load() != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", hits.Load(), misses.Load())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
