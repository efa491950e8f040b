package memory

import (
	"testing"
	"time"

	"github.com/statforge/statengine/internal/domain/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository_UpdateStateGuardsCurrentState(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	repo := NewGameRepository(game.Game{ID: "g1", Sport: "basketball", StartsAt: day, State: game.StateScheduled})

	require.NoError(t, repo.UpdateState(t.Context(), "g1", game.StateScheduled, game.StateLive))

	// A second transition from the stale state must fail.
	require.Error(t, repo.UpdateState(t.Context(), "g1", game.StateScheduled, game.StateLive))
	require.Error(t, repo.UpdateState(t.Context(), "missing", game.StateScheduled, game.StateLive))

	updated, found, err := repo.GetByID(t.Context(), "g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, game.StateLive, updated.State)
}

func TestGameRepository_ListByStates(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	repo := NewGameRepository(
		game.Game{ID: "g-later", Sport: "basketball", StartsAt: day.Add(time.Hour), State: game.StateLive},
		game.Game{ID: "g-early", Sport: "basketball", StartsAt: day, State: game.StateLive},
		game.Game{ID: "g-done", Sport: "basketball", StartsAt: day, State: game.StateCompleted},
	)

	live, err := repo.ListByStates(t.Context(), game.StateLive)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "g-early", live[0].ID)

	both, err := repo.ListByStates(t.Context(), game.StateLive, game.StateCompleted)
	require.NoError(t, err)
	assert.Len(t, both, 3)
}
