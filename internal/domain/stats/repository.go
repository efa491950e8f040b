package stats

import (
	"context"
	"time"
)

// Filter narrows record listings. Zero values mean "no constraint".
type Filter struct {
	Sport     string
	TeamID    string
	PlayerID  string
	GameID    string
	GameIDs   []string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// Repository stores per-(player, game) record containers. Upserts are
// last-write-wins by ComputedAt.
type Repository interface {
	UpsertMany(ctx context.Context, items []Record) error
	GetByKey(ctx context.Context, playerID, gameID string) (Record, bool, error)
	List(ctx context.Context, filter Filter) ([]Record, int, error)
}
