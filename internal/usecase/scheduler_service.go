package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"
	"github.com/statforge/statengine/internal/domain/game"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/statforge/statengine/internal/platform/metrics"
)

type SchedulerConfig struct {
	LiveInterval     time.Duration
	StandardInterval time.Duration
	RecentInterval   time.Duration
	TickTimeout      time.Duration
	BatchSize        int
	Workers          int
	// RecentWindow is how long a completed game stays in the recent tier.
	RecentWindow time.Duration
	// ArchiveAfter is when a completed game's state advances to archived.
	ArchiveAfter time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		LiveInterval:     30 * time.Second,
		StandardInterval: 2 * time.Minute,
		RecentInterval:   5 * time.Minute,
		TickTimeout:      90 * time.Second,
		BatchSize:        25,
		Workers:          8,
		RecentWindow:     24 * time.Hour,
		ArchiveAfter:     24 * time.Hour,
	}
}

func (c SchedulerConfig) normalized() SchedulerConfig {
	defaults := DefaultSchedulerConfig()
	if c.LiveInterval <= 0 {
		c.LiveInterval = defaults.LiveInterval
	}
	if c.StandardInterval <= 0 {
		c.StandardInterval = defaults.StandardInterval
	}
	if c.RecentInterval <= 0 {
		c.RecentInterval = defaults.RecentInterval
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = defaults.TickTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Workers <= 0 {
		c.Workers = defaults.Workers
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = defaults.RecentWindow
	}
	if c.ArchiveAfter <= 0 {
		c.ArchiveAfter = defaults.ArchiveAfter
	}
	return c
}

// SchedulerService runs one periodic refresh loop per lifecycle tier. Tiers
// tick independently and concurrently, but a tier never overlaps itself: a
// tick firing while the previous one still runs is skipped and reported as
// an overlap. Archived games are excluded; they refresh on demand only.
type SchedulerService struct {
	games    game.Repository
	pipeline *PipelineService
	metrics  *metrics.Metrics
	logger   *logging.Logger
	cfg      SchedulerConfig
	now      func() time.Time

	running map[game.Tier]*atomic.Bool
}

func NewSchedulerService(
	games game.Repository,
	pipeline *PipelineService,
	m *metrics.Metrics,
	logger *logging.Logger,
	cfg SchedulerConfig,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulerService{
		games:    games,
		pipeline: pipeline,
		metrics:  m,
		logger:   logger,
		cfg:      cfg.normalized(),
		now:      time.Now,
		running: map[game.Tier]*atomic.Bool{
			game.TierLive:     {},
			game.TierStandard: {},
			game.TierRecent:   {},
		},
	}
}

// Run blocks until ctx is cancelled, driving all tier loops.
func (s *SchedulerService) Run(ctx context.Context) {
	s.logger.Info("scheduler starting",
		"live_interval", s.cfg.LiveInterval,
		"standard_interval", s.cfg.StandardInterval,
		"recent_interval", s.cfg.RecentInterval,
		"batch_size", s.cfg.BatchSize,
		"workers", s.cfg.Workers,
	)

	var wg conc.WaitGroup
	wg.Go(func() { s.runTierLoop(ctx, game.TierLive, s.cfg.LiveInterval) })
	wg.Go(func() { s.runTierLoop(ctx, game.TierStandard, s.cfg.StandardInterval) })
	wg.Go(func() { s.runTierLoop(ctx, game.TierRecent, s.cfg.RecentInterval) })
	wg.Wait()

	s.logger.Info("scheduler stopped")
}

func (s *SchedulerService) runTierLoop(ctx context.Context, tier game.Tier, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireTick(ctx, tier)
		}
	}
}

// fireTick starts a tick for the tier unless the previous one is still
// running, in which case the tick is skipped.
func (s *SchedulerService) fireTick(ctx context.Context, tier game.Tier) {
	guard := s.running[tier]
	if !guard.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler overlap, tick skipped", "tier", string(tier))
		if s.metrics != nil {
			s.metrics.SchedulerOverlaps.WithLabelValues(string(tier)).Inc()
		}
		return
	}

	go func() {
		defer guard.Store(false)
		s.runTick(ctx, tier)
	}()
}

func (s *SchedulerService) runTick(ctx context.Context, tier game.Tier) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	started := s.now()

	batch, err := s.selectBatch(ctx, tier)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduler batch selection failed", "tier", string(tier), "error", err)
		return
	}

	processed := s.processBatch(ctx, tier, batch)

	if s.metrics != nil {
		s.metrics.SchedulerTicks.WithLabelValues(string(tier)).Inc()
	}
	s.logger.DebugContext(ctx, "scheduler tick finished",
		"tier", string(tier),
		"games", len(batch),
		"processed", processed,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// selectBatch advances due lifecycle transitions for the tier's games and
// returns a bounded batch of games still belonging to the tier.
func (s *SchedulerService) selectBatch(ctx context.Context, tier game.Tier) ([]game.Game, error) {
	states := tierStates(tier)
	items, err := s.games.ListByStates(ctx, states...)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := make([]game.Game, 0, s.cfg.BatchSize)
	for _, item := range items {
		if next := item.NextState(now, s.cfg.ArchiveAfter); next != item.State {
			if err := s.games.UpdateState(ctx, item.ID, item.State, next); err != nil {
				s.logger.WarnContext(ctx, "lifecycle transition failed",
					"game_id", item.ID, "from", string(item.State), "to", string(next), "error", err)
			} else {
				item.State = next
			}
		}
		if item.ProcessingTier(now, s.cfg.RecentWindow) != tier {
			continue
		}
		if len(batch) < s.cfg.BatchSize {
			batch = append(batch, item)
		}
	}

	return batch, nil
}

// processBatch fans the batch across a bounded worker pool, one unit per
// game. A unit failure is logged and left for the next tick.
func (s *SchedulerService) processBatch(ctx context.Context, tier game.Tier, batch []game.Game) int {
	if len(batch) == 0 {
		return 0
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduler worker pool creation failed", "tier", string(tier), "error", err)
		return 0
	}
	defer pool.Release()

	var processed atomic.Int32
	var workers sync.WaitGroup
	for _, item := range batch {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if ctx.Err() != nil {
				return
			}
			if _, err := s.pipeline.RecomputeGame(ctx, item.ID, nil, false); err != nil {
				// A game without ingested records yet is not a failure.
				if !errors.Is(err, ErrNotFound) {
					s.logger.WarnContext(ctx, "scheduled recompute failed",
						"tier", string(tier), "game_id", item.ID, "error", err)
				}
				return
			}
			processed.Add(1)
		}); err != nil {
			workers.Done()
			s.logger.WarnContext(ctx, "scheduler submit failed", "tier", string(tier), "game_id", item.ID, "error", err)
		}
	}
	workers.Wait()

	return int(processed.Load())
}

func tierStates(tier game.Tier) []game.State {
	switch tier {
	case game.TierLive:
		return []game.State{game.StateLive}
	case game.TierRecent:
		return []game.State{game.StateCompleted}
	default:
		return []game.State{game.StateScheduled}
	}
}
