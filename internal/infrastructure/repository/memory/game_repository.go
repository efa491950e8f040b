package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/statforge/statengine/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	games map[string]game.Game
}

func NewGameRepository(seed ...game.Game) *GameRepository {
	games := make(map[string]game.Game, len(seed))
	for _, item := range seed {
		games[item.ID] = item
	}
	return &GameRepository{games: games}
}

func (r *GameRepository) UpsertMany(_ context.Context, items []game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.games[item.ID] = item
	}
	return nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.games[gameID]
	return item, ok, nil
}

func (r *GameRepository) ListByStates(_ context.Context, states ...game.State) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.games))
	for _, item := range r.games {
		for _, state := range states {
			if item.State == state {
				out = append(out, item)
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *GameRepository) UpdateState(_ context.Context, gameID string, from, to game.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.games[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	if item.State != from {
		return fmt.Errorf("game %s is no longer in state %s", gameID, from)
	}

	item.State = to
	r.games[gameID] = item
	return nil
}
