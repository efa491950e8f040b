package compute

import (
	"testing"
	"time"

	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var computedAt = time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

func nbaRecord(fields map[string]float64, minutes float64) stats.NormalizedRecord {
	return stats.NormalizedRecord{
		Sport:         "basketball",
		PlayerID:      "p1",
		GameID:        "g1",
		MinutesPlayed: minutes,
		Fields:        fields,
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)
	record := nbaRecord(map[string]float64{
		"points": 30, "fga": 20, "fgm": 10, "fta": 10, "ftm": 8,
		"rebounds": 7, "assists": 4, "turnovers": 2,
	}, 36)

	first, err := registry.Compute(record, computedAt)
	require.NoError(t, err)
	second, err := registry.Compute(record, computedAt)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, first.InputFingerprint, second.InputFingerprint)
}

func TestCompute_TrueShootingExample(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)
	record := nbaRecord(map[string]float64{
		"points": 30, "fga": 20, "fgm": 10, "fta": 10, "ftm": 8,
	}, 36)

	set, err := registry.Compute(record, computedAt)
	require.NoError(t, err)

	ts := set.Metrics["true_shooting_pct"]
	require.NotNil(t, ts)
	// 30 / (2 * (20 + 0.44*10)) = 30 / 48.8
	assert.InDelta(t, 0.6148, *ts, 0.0001)

	efg := set.Metrics["effective_fg_pct"]
	require.NotNil(t, efg)
	assert.InDelta(t, 0.5, *efg, 1e-9)
}

func TestCompute_ZeroDenominatorsYieldNull(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)

	set, err := registry.Compute(nbaRecord(map[string]float64{"points": 0, "fga": 0, "fta": 0}, 0), computedAt)
	require.NoError(t, err)
	assert.Nil(t, set.Metrics["true_shooting_pct"])
	assert.Nil(t, set.Metrics["effective_fg_pct"])
	assert.Nil(t, set.Metrics["usage_rate"])
}

func TestCompute_UsageRateNullWithoutTeamTotals(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)
	withTotals := nbaRecord(map[string]float64{
		"fga": 20, "fta": 10, "turnovers": 3,
		"team_fga": 88, "team_fta": 24, "team_turnovers": 13, "team_minutes": 240,
	}, 36)
	withoutTotals := nbaRecord(map[string]float64{
		"fga": 20, "fta": 10, "turnovers": 3,
	}, 36)

	set, err := registry.Compute(withTotals, computedAt)
	require.NoError(t, err)
	require.NotNil(t, set.Metrics["usage_rate"])
	assert.Greater(t, *set.Metrics["usage_rate"], 0.0)

	set, err = registry.Compute(withoutTotals, computedAt)
	require.NoError(t, err)
	assert.Nil(t, set.Metrics["usage_rate"])
}

func TestCompute_PasserRatingClampsComponents(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)

	perfect := stats.NormalizedRecord{
		Sport: "football", PlayerID: "qb", GameID: "g1",
		Fields: map[string]float64{
			"pass_attempts": 20, "pass_completions": 20,
			"pass_yards": 400, "pass_tds": 6, "interceptions": 0,
		},
	}
	set, err := registry.Compute(perfect, computedAt)
	require.NoError(t, err)
	rating := set.Metrics["passer_rating"]
	require.NotNil(t, rating)
	// Every component clamps at 2.375: the league maximum.
	assert.InDelta(t, 158.3, *rating, 0.05)

	worst := stats.NormalizedRecord{
		Sport: "football", PlayerID: "qb", GameID: "g1",
		Fields: map[string]float64{
			"pass_attempts": 20, "pass_completions": 0,
			"pass_yards": 0, "pass_tds": 0, "interceptions": 8,
		},
	}
	set, err = registry.Compute(worst, computedAt)
	require.NoError(t, err)
	rating = set.Metrics["passer_rating"]
	require.NotNil(t, rating)
	assert.Equal(t, 0.0, *rating)

	noAttempts := stats.NormalizedRecord{
		Sport: "football", PlayerID: "rb", GameID: "g1",
		Fields: map[string]float64{"rushing_yards": 120, "receiving_yards": 35},
	}
	set, err = registry.Compute(noAttempts, computedAt)
	require.NoError(t, err)
	assert.Nil(t, set.Metrics["passer_rating"])
	require.NotNil(t, set.Metrics["yards_from_scrimmage"])
	assert.Equal(t, 155.0, *set.Metrics["yards_from_scrimmage"])
}

func TestCompute_HockeyPointsPer60(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)

	skater := stats.NormalizedRecord{
		Sport: "hockey", PlayerID: "p1", GameID: "g1",
		MinutesPlayed: 20,
		Fields:        map[string]float64{"goals": 1, "assists": 2},
	}
	set, err := registry.Compute(skater, computedAt)
	require.NoError(t, err)
	p60 := set.Metrics["points_per_60"]
	require.NotNil(t, p60)
	assert.InDelta(t, 9.0, *p60, 1e-9)

	scratch := skater
	scratch.MinutesPlayed = 0
	set, err = registry.Compute(scratch, computedAt)
	require.NoError(t, err)
	assert.Nil(t, set.Metrics["points_per_60"])
}

func TestCompute_BaseballOPSAndWHIP(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)

	batter := stats.NormalizedRecord{
		Sport: "baseball", PlayerID: "p1", GameID: "g1",
		Fields: map[string]float64{
			"at_bats": 4, "hits": 2, "doubles": 1, "home_runs": 1,
			"walks": 1, "innings_pitched": 0,
		},
	}
	set, err := registry.Compute(batter, computedAt)
	require.NoError(t, err)

	obp := set.Metrics["obp"]
	slg := set.Metrics["slg"]
	ops := set.Metrics["ops"]
	require.NotNil(t, obp)
	require.NotNil(t, slg)
	require.NotNil(t, ops)
	assert.InDelta(t, *obp+*slg, *ops, 1e-9)
	assert.Nil(t, set.Metrics["whip"], "zero innings pitched must yield null whip")

	pitcher := stats.NormalizedRecord{
		Sport: "baseball", PlayerID: "p2", GameID: "g1",
		Fields: map[string]float64{
			"innings_pitched": 6, "hits_allowed": 5, "walks_allowed": 2, "earned_runs": 2,
		},
	}
	set, err = registry.Compute(pitcher, computedAt)
	require.NoError(t, err)
	whip := set.Metrics["whip"]
	require.NotNil(t, whip)
	assert.InDelta(t, 7.0/6.0, *whip, 1e-9)
}

func TestCompute_FantasyPointsIncludeStringCoercedStats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)

	// defensive_sacks arrived as "2" upstream and was normalized to 2.0;
	// it participates unchanged in the weighted sum.
	record := stats.NormalizedRecord{
		Sport: "football", PlayerID: "lb", GameID: "g1",
		Fields: map[string]float64{
			"defensive_sacks":         2,
			"defensive_interceptions": 1,
		},
	}
	set, err := registry.Compute(record, computedAt)
	require.NoError(t, err)

	fp := set.Metrics["fantasy_points"]
	require.NotNil(t, fp)
	assert.InDelta(t, 2*1+1*2, *fp, 1e-9)
}

func TestCompute_UnknownSportIsFatal(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)
	_, err := registry.Compute(stats.NormalizedRecord{Sport: "curling"}, computedAt)
	require.Error(t, err)
}
