package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/statforge/statengine/internal/compute"
	"github.com/statforge/statengine/internal/domain/game"
	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/statforge/statengine/internal/infrastructure/repository/memory"
	"github.com/statforge/statengine/internal/normalize"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/statforge/statengine/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	sets []stats.MetricSet
}

func (p *capturePublisher) PublishMetricSet(_ context.Context, set stats.MetricSet) {
	p.sets = append(p.sets, set)
}

type brokenStatRepo struct{}

func (brokenStatRepo) UpsertMany(context.Context, []stats.Record) error {
	return errors.New("connection refused")
}

func (brokenStatRepo) GetByKey(context.Context, string, string) (stats.Record, bool, error) {
	return stats.Record{}, false, nil
}

func (brokenStatRepo) List(context.Context, stats.Filter) ([]stats.Record, int, error) {
	return nil, 0, nil
}

func newTestPipeline(records stats.Repository, games game.Repository, publisher EventPublisher) *PipelineService {
	return NewPipelineService(
		normalize.NewResolver(),
		compute.NewRegistry(nil),
		records,
		games,
		publisher,
		nil,
		resilience.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		logging.NewNop(),
	)
}

func basketballRaw(playerID, gameID string, points float64) stats.RawRecord {
	return stats.RawRecord{
		Sport:    "basketball",
		Source:   "test-feed",
		PlayerID: playerID,
		GameID:   gameID,
		TeamID:   "t1",
		Payload: map[string]any{
			"points":                points,
			"field_goals_attempted": 20,
			"field_goals_made":      10,
			"free_throws_attempted": 8,
			"free_throws_made":      6,
			"minutes":               33.0,
		},
	}
}

func TestPipelineService_ProcessBatch_PersistsAndPublishes(t *testing.T) {
	t.Parallel()

	startsAt := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	games := memory.NewGameRepository(game.Game{
		ID: "g1", Sport: "basketball", HomeTeamID: "t1", AwayTeamID: "t2",
		StartsAt: startsAt, State: game.StateLive,
	})
	records := memory.NewStatRecordRepository()
	publisher := &capturePublisher{}
	svc := newTestPipeline(records, games, publisher)

	result, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{
		basketballRaw("p1", "g1", 30),
		basketballRaw("p2", "g1", 18),
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Sets, 2)
	require.Len(t, publisher.sets, 2)

	stored, found, err := records.GetByKey(t.Context(), "p1", "g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "basketball", stored.Sport)
	assert.Equal(t, startsAt, stored.GameDate)
	assert.NotEmpty(t, stored.InputFingerprint)
	require.NotNil(t, stored.Metrics["fantasy_points"])
}

func TestPipelineService_ProcessBatch_SkipsUnchangedInput(t *testing.T) {
	t.Parallel()

	games := memory.NewGameRepository()
	records := memory.NewStatRecordRepository()
	svc := newTestPipeline(records, games, nil)

	raw := basketballRaw("p1", "g1", 30)

	first, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{raw}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{raw}, false)
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
	assert.Equal(t, 1, second.Skipped)

	forced, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{raw}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Processed)
	assert.Zero(t, forced.Skipped)
}

func TestPipelineService_ProcessBatch_MissingIDsFailOnlyThatRecord(t *testing.T) {
	t.Parallel()

	svc := newTestPipeline(memory.NewStatRecordRepository(), memory.NewGameRepository(), nil)

	bad := basketballRaw("", "g1", 10)
	good := basketballRaw("p1", "g1", 22)

	result, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{bad, good}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "g1", result.Failures[0].GameID)
}

func TestPipelineService_ProcessBatch_UnknownSportIsFatal(t *testing.T) {
	t.Parallel()

	svc := newTestPipeline(memory.NewStatRecordRepository(), memory.NewGameRepository(), nil)

	raw := basketballRaw("p1", "g1", 10)
	raw.Sport = "cricket"

	_, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{raw}, false)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPipelineService_ProcessBatch_EmptyInput(t *testing.T) {
	t.Parallel()

	svc := newTestPipeline(memory.NewStatRecordRepository(), memory.NewGameRepository(), nil)

	_, err := svc.ProcessBatch(t.Context(), nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPipelineService_ProcessBatch_PersistenceFailureAfterRetries(t *testing.T) {
	t.Parallel()

	svc := newTestPipeline(brokenStatRepo{}, memory.NewGameRepository(), nil)

	result, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{basketballRaw("p1", "g1", 30)}, false)
	require.ErrorIs(t, err, ErrDependencyUnavailable)

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "persistence failed", result.Failures[0].Reason)
}

func TestPipelineService_RecomputeGame_ReplaysStoredPayloads(t *testing.T) {
	t.Parallel()

	records := memory.NewStatRecordRepository()
	svc := newTestPipeline(records, memory.NewGameRepository(), nil)

	_, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{
		basketballRaw("p1", "g1", 30),
		basketballRaw("p2", "g1", 12),
	}, false)
	require.NoError(t, err)

	// Unchanged inputs replay into fingerprint skips.
	replayed, err := svc.RecomputeGame(t.Context(), "g1", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, replayed.Skipped)

	forced, err := svc.RecomputeGame(t.Context(), "g1", []string{"p1"}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Processed)

	_, err = svc.RecomputeGame(t.Context(), "missing", nil, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPipelineService_RecomputePlayers(t *testing.T) {
	t.Parallel()

	svc := newTestPipeline(memory.NewStatRecordRepository(), memory.NewGameRepository(), nil)

	_, err := svc.ProcessBatch(t.Context(), []stats.RawRecord{basketballRaw("p1", "g1", 30)}, false)
	require.NoError(t, err)

	result, err := svc.RecomputePlayers(t.Context(), []string{"p1"}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	_, err = svc.RecomputePlayers(t.Context(), []string{"ghost"}, false)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RecomputePlayers(t.Context(), nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)
}
