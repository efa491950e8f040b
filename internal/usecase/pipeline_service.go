package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/statforge/statengine/internal/compute"
	"github.com/statforge/statengine/internal/domain/game"
	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/statforge/statengine/internal/normalize"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/statforge/statengine/internal/platform/metrics"
	"github.com/statforge/statengine/internal/platform/resilience"
)

// EventPublisher receives one event per persisted record. Implementations
// must not block the pipeline.
type EventPublisher interface {
	PublishMetricSet(ctx context.Context, set stats.MetricSet)
}

// PipelineService drives resolve → compute → persist → notify for raw record
// batches. Per-record failures degrade to batch failure entries; only an
// unknown sport aborts, since that is a configuration error.
type PipelineService struct {
	resolver  *normalize.Resolver
	registry  *compute.Registry
	records   stats.Repository
	games     game.Repository
	publisher EventPublisher
	metrics   *metrics.Metrics
	retry     resilience.RetryPolicy
	logger    *logging.Logger
	now       func() time.Time
}

func NewPipelineService(
	resolver *normalize.Resolver,
	registry *compute.Registry,
	records stats.Repository,
	games game.Repository,
	publisher EventPublisher,
	m *metrics.Metrics,
	retry resilience.RetryPolicy,
	logger *logging.Logger,
) *PipelineService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PipelineService{
		resolver:  resolver,
		registry:  registry,
		records:   records,
		games:     games,
		publisher: publisher,
		metrics:   m,
		retry:     retry,
		logger:    logger,
		now:       time.Now,
	}
}

type BatchFailure struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
	Reason   string `json:"reason"`
}

type BatchResult struct {
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Sets      []stats.MetricSet `json:"sets,omitempty"`
	Failures  []BatchFailure    `json:"failures,omitempty"`
}

// ProcessBatch runs the full pipeline over a raw batch. With force false,
// records whose input fingerprint matches the stored one are skipped. A
// persistence failure after retries leaves the batch for the next pass and
// is reported as ErrDependencyUnavailable.
func (s *PipelineService) ProcessBatch(ctx context.Context, raws []stats.RawRecord, force bool) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.ProcessBatch")
	defer span.End()

	if len(raws) == 0 {
		return BatchResult{}, fmt.Errorf("%w: records are required", ErrInvalidInput)
	}

	var result BatchResult
	computedAt := s.now().UTC()
	toPersist := make([]stats.Record, 0, len(raws))

	for _, raw := range raws {
		raw.Sport = strings.TrimSpace(raw.Sport)
		raw.PlayerID = strings.TrimSpace(raw.PlayerID)
		raw.GameID = strings.TrimSpace(raw.GameID)

		if raw.PlayerID == "" || raw.GameID == "" {
			result.Failed++
			result.Failures = append(result.Failures, BatchFailure{
				PlayerID: raw.PlayerID,
				GameID:   raw.GameID,
				Reason:   "player_id and game_id are required",
			})
			continue
		}

		normalized, warnings, err := s.resolver.Resolve(raw)
		if err != nil {
			// Unregistered sport is the one fatal configuration error.
			return result, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		if !force {
			existing, found, err := s.records.GetByKey(ctx, raw.PlayerID, raw.GameID)
			if err != nil {
				s.logger.WarnContext(ctx, "fingerprint lookup failed, recomputing",
					"player_id", raw.PlayerID, "game_id", raw.GameID, "error", err)
			} else if found && existing.InputFingerprint == normalized.Fingerprint() {
				result.Skipped++
				continue
			}
		}

		set, err := s.registry.Compute(normalized, computedAt)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		toPersist = append(toPersist, s.buildRecord(ctx, raw, normalized, set, warnings))
	}

	if len(toPersist) == 0 {
		return result, nil
	}

	if err := resilience.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.records.UpsertMany(ctx, toPersist)
	}); err != nil {
		for _, record := range toPersist {
			result.Failed++
			result.Failures = append(result.Failures, BatchFailure{
				PlayerID: record.PlayerID,
				GameID:   record.GameID,
				Reason:   "persistence failed",
			})
			s.countFailed(record.Sport)
		}
		s.logger.ErrorContext(ctx, "batch persistence failed after retries",
			"records", len(toPersist), "error", err)
		return result, fmt.Errorf("%w: persist records: %v", ErrDependencyUnavailable, err)
	}

	for _, record := range toPersist {
		result.Processed++
		result.Sets = append(result.Sets, record.MetricSet())
		s.countProcessed(record.Sport)
		if s.publisher != nil {
			s.publisher.PublishMetricSet(ctx, record.MetricSet())
		}
	}

	return result, nil
}

// RecomputeGame replays the retained raw payloads of every stored record for
// the game through the pipeline. An empty playerIDs slice means all players.
func (s *PipelineService) RecomputeGame(ctx context.Context, gameID string, playerIDs []string, force bool) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.RecomputeGame")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return BatchResult{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	stored, _, err := s.records.List(ctx, stats.Filter{GameID: gameID})
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: list records for game %s: %v", ErrDependencyUnavailable, gameID, err)
	}
	if len(stored) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no records for game %s", ErrNotFound, gameID)
	}

	raws := rawsFromRecords(stored, playerIDs)
	if len(raws) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no matching players for game %s", ErrNotFound, gameID)
	}

	return s.ProcessBatch(ctx, raws, force)
}

// RecomputePlayers replays every stored record of the given players.
func (s *PipelineService) RecomputePlayers(ctx context.Context, playerIDs []string, force bool) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.RecomputePlayers")
	defer span.End()

	if len(playerIDs) == 0 {
		return BatchResult{}, fmt.Errorf("%w: player ids are required", ErrInvalidInput)
	}

	var raws []stats.RawRecord
	for _, playerID := range playerIDs {
		playerID = strings.TrimSpace(playerID)
		if playerID == "" {
			continue
		}
		stored, _, err := s.records.List(ctx, stats.Filter{PlayerID: playerID})
		if err != nil {
			return BatchResult{}, fmt.Errorf("%w: list records for player %s: %v", ErrDependencyUnavailable, playerID, err)
		}
		raws = append(raws, rawsFromRecords(stored, nil)...)
	}
	if len(raws) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no records for requested players", ErrNotFound)
	}

	return s.ProcessBatch(ctx, raws, force)
}

func (s *PipelineService) buildRecord(
	ctx context.Context,
	raw stats.RawRecord,
	normalized stats.NormalizedRecord,
	set stats.MetricSet,
	warnings []stats.Warning,
) stats.Record {
	gameDate := set.ComputedAt
	if item, ok, err := s.games.GetByID(ctx, raw.GameID); err == nil && ok {
		gameDate = item.StartsAt
	}

	return stats.Record{
		Sport:            normalized.Sport,
		PlayerID:         normalized.PlayerID,
		GameID:           normalized.GameID,
		TeamID:           normalized.TeamID,
		GameDate:         gameDate,
		Raw:              raw.Payload,
		Canonical:        normalized.Fields,
		MinutesPlayed:    normalized.MinutesPlayed,
		Metrics:          set.Metrics,
		Warnings:         warnings,
		QualityScore:     stats.QualityScore(len(normalized.Fields), len(warnings)),
		ComputedAt:       set.ComputedAt,
		InputFingerprint: set.InputFingerprint,
	}
}

func rawsFromRecords(stored []stats.Record, playerIDs []string) []stats.RawRecord {
	wanted := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			wanted[id] = struct{}{}
		}
	}

	out := make([]stats.RawRecord, 0, len(stored))
	for _, record := range stored {
		if len(wanted) > 0 {
			if _, ok := wanted[record.PlayerID]; !ok {
				continue
			}
		}
		out = append(out, stats.RawRecord{
			Sport:    record.Sport,
			Source:   "replay",
			PlayerID: record.PlayerID,
			GameID:   record.GameID,
			TeamID:   record.TeamID,
			Payload:  record.Raw,
		})
	}
	return out
}

func (s *PipelineService) countProcessed(sport string) {
	if s.metrics != nil {
		s.metrics.RecordsProcessed.WithLabelValues(sport).Inc()
	}
}

func (s *PipelineService) countFailed(sport string) {
	if s.metrics != nil {
		s.metrics.RecordsFailed.WithLabelValues(sport).Inc()
	}
}
