package game

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Game) error
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	ListByStates(ctx context.Context, states ...State) ([]Game, error)
	UpdateState(ctx context.Context, gameID string, from, to State) error
}
