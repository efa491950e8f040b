package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/statforge/statengine/internal/domain/stats"
	qb "github.com/statforge/statengine/internal/platform/querybuilder"
)

var statRecordColumns = []string{
	"sport",
	"player_id",
	"game_id",
	"team_id",
	"game_date",
	"raw",
	"canonical",
	"minutes_played",
	"metrics",
	"warnings",
	"quality_score",
	"computed_at",
	"input_fingerprint",
	"created_at",
	"updated_at",
}

type StatRecordRepository struct {
	db *sqlx.DB
}

func NewStatRecordRepository(db *sqlx.DB) *StatRecordRepository {
	return &StatRecordRepository{db: db}
}

// UpsertMany writes record containers keyed by (player_id, game_id).
// Last-write-wins: a stored row is only replaced by a newer computed_at.
func (r *StatRecordRepository) UpsertMany(ctx context.Context, items []stats.Record) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert stat records: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel, err := newStatRecordInsertModel(item)
		if err != nil {
			return fmt.Errorf("encode stat record player=%s game=%s: %w", item.PlayerID, item.GameID, err)
		}

		query, args, err := qb.InsertModel("stat_records", insertModel, `ON CONFLICT (player_id, game_id)
DO UPDATE SET
    sport = EXCLUDED.sport,
    team_id = EXCLUDED.team_id,
    game_date = EXCLUDED.game_date,
    raw = EXCLUDED.raw,
    canonical = EXCLUDED.canonical,
    minutes_played = EXCLUDED.minutes_played,
    metrics = EXCLUDED.metrics,
    warnings = EXCLUDED.warnings,
    quality_score = EXCLUDED.quality_score,
    computed_at = EXCLUDED.computed_at,
    input_fingerprint = EXCLUDED.input_fingerprint,
    updated_at = NOW()
WHERE stat_records.computed_at <= EXCLUDED.computed_at`)
		if err != nil {
			return fmt.Errorf("build upsert stat record query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert stat record player=%s game=%s: %w", item.PlayerID, item.GameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert stat records tx: %w", err)
	}

	return nil
}

func (r *StatRecordRepository) GetByKey(ctx context.Context, playerID, gameID string) (stats.Record, bool, error) {
	query, args, err := qb.Select(statRecordColumns...).From("stat_records").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("game_id", gameID),
		).
		ToSQL()
	if err != nil {
		return stats.Record{}, false, fmt.Errorf("build get stat record query: %w", err)
	}

	var row statRecordTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return stats.Record{}, false, nil
		}
		return stats.Record{}, false, fmt.Errorf("get stat record: %w", err)
	}

	record, err := row.toDomain()
	if err != nil {
		return stats.Record{}, false, fmt.Errorf("decode stat record player=%s game=%s: %w", playerID, gameID, err)
	}

	return record, true, nil
}

// List returns the filtered page plus the unpaginated total for the filter.
func (r *StatRecordRepository) List(ctx context.Context, filter stats.Filter) ([]stats.Record, int, error) {
	conditions := statRecordConditions(filter)

	countQuery, countArgs, err := qb.Select("COUNT(1)").From("stat_records").
		Where(conditions...).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count stat records query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count stat records: %w", err)
	}

	builder := qb.Select(statRecordColumns...).From("stat_records").
		Where(conditions...).
		OrderBy("game_date DESC", "game_id", "player_id")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list stat records query: %w", err)
	}

	var rows []statRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list stat records: %w", err)
	}

	out := make([]stats.Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("decode stat record player=%s game=%s: %w", row.PlayerID, row.GameID, err)
		}
		out = append(out, record)
	}

	return out, total, nil
}

func statRecordConditions(filter stats.Filter) []qb.Condition {
	var conditions []qb.Condition
	if filter.Sport != "" {
		conditions = append(conditions, qb.Eq("sport", filter.Sport))
	}
	if filter.TeamID != "" {
		conditions = append(conditions, qb.Eq("team_id", filter.TeamID))
	}
	if filter.PlayerID != "" {
		conditions = append(conditions, qb.Eq("player_id", filter.PlayerID))
	}
	if filter.GameID != "" {
		conditions = append(conditions, qb.Eq("game_id", filter.GameID))
	}
	if len(filter.GameIDs) > 0 {
		values := make([]any, 0, len(filter.GameIDs))
		for _, id := range filter.GameIDs {
			values = append(values, id)
		}
		conditions = append(conditions, qb.In("game_id", values))
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, qb.Gte("game_date", filter.DateFrom.UTC()))
	}
	if filter.DateTo != nil {
		conditions = append(conditions, qb.Lte("game_date", filter.DateTo.UTC()))
	}
	return conditions
}
