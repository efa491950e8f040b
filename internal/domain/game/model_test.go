package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestState_TransitionsAreForwardOnly(t *testing.T) {
	t.Parallel()

	require.True(t, StateScheduled.CanTransitionTo(StateLive))
	require.True(t, StateLive.CanTransitionTo(StateCompleted))
	require.True(t, StateCompleted.CanTransitionTo(StateArchived))

	require.False(t, StateLive.CanTransitionTo(StateScheduled))
	require.False(t, StateArchived.CanTransitionTo(StateCompleted))
	require.False(t, StateScheduled.CanTransitionTo(StateCompleted))
}

func TestGame_NextState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	ended := now.Add(-5 * time.Minute)
	completed := now.Add(-25 * time.Hour)

	cases := []struct {
		name string
		game Game
		want State
	}{
		{
			name: "scheduled game starts",
			game: Game{State: StateScheduled, StartsAt: now.Add(-time.Minute)},
			want: StateLive,
		},
		{
			name: "scheduled game not yet started",
			game: Game{State: StateScheduled, StartsAt: now.Add(time.Hour)},
			want: StateScheduled,
		},
		{
			name: "live game ends",
			game: Game{State: StateLive, EndedAt: &ended},
			want: StateCompleted,
		},
		{
			name: "live game without end signal stays live",
			game: Game{State: StateLive},
			want: StateLive,
		},
		{
			name: "completed game archives after window",
			game: Game{State: StateCompleted, CompletedAt: &completed},
			want: StateArchived,
		},
		{
			name: "archived game is terminal",
			game: Game{State: StateArchived},
			want: StateArchived,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, tc.game.NextState(now, 24*time.Hour))
		})
	}
}

func TestGame_ProcessingTier(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	justCompleted := now.Add(-2 * time.Minute)
	longCompleted := now.Add(-2 * time.Hour)

	require.Equal(t, TierLive, Game{State: StateLive}.ProcessingTier(now, time.Hour))
	require.Equal(t, TierStandard, Game{State: StateScheduled}.ProcessingTier(now, time.Hour))
	require.Equal(t, TierRecent, Game{State: StateCompleted, CompletedAt: &justCompleted}.ProcessingTier(now, time.Hour))
	require.Equal(t, TierArchived, Game{State: StateCompleted, CompletedAt: &longCompleted}.ProcessingTier(now, time.Hour))
	require.Equal(t, TierArchived, Game{State: StateArchived}.ProcessingTier(now, time.Hour))
}
