package querybuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelect_WithRangeAndPagination(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	query, args, err := Select("player_id", "game_id", "computed").
		From("stat_records").
		Where(
			Eq("sport", "nba"),
			Gte("game_date", from),
			Lte("game_date", to),
		).
		OrderBy("game_date DESC").
		Limit(25).
		Offset(50).
		ToSQL()

	require.NoError(t, err)
	require.Equal(t,
		"SELECT player_id, game_id, computed FROM stat_records WHERE sport = $1 AND game_date >= $2 AND game_date <= $3 ORDER BY game_date DESC LIMIT 25 OFFSET 50",
		query,
	)
	require.Equal(t, []any{"nba", from, to}, args)
}

func TestSelect_InConditionWithNoValues(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").
		From("games").
		Where(In("id", nil)).
		ToSQL()

	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM games WHERE 1=0", query)
	require.Empty(t, args)
}

func TestInsertModel_UsesDBTagsAndConflictSuffix(t *testing.T) {
	t.Parallel()

	model := struct {
		PlayerID string `db:"player_id"`
		GameID   string `db:"game_id"`
		Skipped  string `db:"-"`
	}{PlayerID: "p1", GameID: "g1", Skipped: "x"}

	query, args, err := InsertModel("stat_records", model,
		"ON CONFLICT (player_id, game_id) DO UPDATE SET computed = EXCLUDED.computed")
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO stat_records (player_id, game_id) VALUES ($1, $2) ON CONFLICT (player_id, game_id) DO UPDATE SET computed = EXCLUDED.computed",
		query,
	)
	require.Equal(t, []any{"p1", "g1"}, args)
}

func TestInsert_RowArityMismatchFails(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("games").
		Columns("id", "sport").
		Values("g1").
		ToSQL()
	require.Error(t, err)
}
