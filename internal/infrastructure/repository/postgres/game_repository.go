package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/statforge/statengine/internal/domain/game"
	qb "github.com/statforge/statengine/internal/platform/querybuilder"
)

var gameColumns = []string{
	"public_id",
	"sport",
	"home_team_id",
	"away_team_id",
	"starts_at",
	"ended_at",
	"completed_at",
	"state",
	"created_at",
	"updated_at",
}

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) UpsertMany(ctx context.Context, items []game.Game) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert games: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := gameInsertModel{
			PublicID:    item.ID,
			Sport:       item.Sport,
			HomeTeamID:  item.HomeTeamID,
			AwayTeamID:  item.AwayTeamID,
			StartsAt:    item.StartsAt,
			EndedAt:     item.EndedAt,
			CompletedAt: item.CompletedAt,
			State:       string(item.State),
		}

		query, args, err := qb.InsertModel("games", insertModel, `ON CONFLICT (public_id)
DO UPDATE SET
    sport = EXCLUDED.sport,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    starts_at = EXCLUDED.starts_at,
    ended_at = EXCLUDED.ended_at,
    completed_at = EXCLUDED.completed_at,
    state = EXCLUDED.state,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert game id=%s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert games tx: %w", err)
	}

	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).From("games").
		Where(qb.Eq("public_id", gameID)).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *GameRepository) ListByStates(ctx context.Context, states ...game.State) ([]game.Game, error) {
	values := make([]any, 0, len(states))
	for _, state := range states {
		values = append(values, string(state))
	}

	query, args, err := qb.Select(gameColumns...).From("games").
		Where(qb.In("state", values)).
		OrderBy("starts_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by state query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by state: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

// UpdateState advances a game only when it is still in the expected state,
// keeping concurrent schedulers from replaying a transition.
func (r *GameRepository) UpdateState(ctx context.Context, gameID string, from, to game.State) error {
	query := `UPDATE games SET state = $1, updated_at = NOW() WHERE public_id = $2 AND state = $3`
	if to == game.StateCompleted {
		query = `UPDATE games SET state = $1, completed_at = NOW(), updated_at = NOW() WHERE public_id = $2 AND state = $3`
	}

	result, err := r.db.ExecContext(ctx, query, string(to), gameID, string(from))
	if err != nil {
		return fmt.Errorf("update game state id=%s: %w", gameID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game state rows affected id=%s: %w", gameID, err)
	}
	if affected == 0 {
		return fmt.Errorf("game %s is no longer in state %s", gameID, from)
	}

	return nil
}
