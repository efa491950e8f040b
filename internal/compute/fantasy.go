package compute

import "github.com/statforge/statengine/internal/domain/stats"

// ScoringTables holds the per-sport fantasy weight tables. It is
// configuration, not code: weights can be replaced wholesale at wiring time.
// Fields without a weight contribute nothing.
type ScoringTables map[string]map[string]float64

// Points computes the weighted linear combination over the record's
// canonical fields. A sport without a table scores zero.
func (t ScoringTables) Points(n stats.NormalizedRecord) float64 {
	weights, ok := t[n.Sport]
	if !ok {
		return 0
	}

	total := 0.0
	for field, weight := range weights {
		total += weight * n.Fields[field]
	}
	return total
}

// DefaultScoringTables mirrors common season-long scoring.
func DefaultScoringTables() ScoringTables {
	return ScoringTables{
		"basketball": {
			"points":    1,
			"rebounds":  1.2,
			"assists":   1.5,
			"steals":    3,
			"blocks":    3,
			"turnovers": -1,
		},
		"football": {
			"pass_yards":              0.04,
			"pass_tds":                4,
			"interceptions":           -2,
			"rushing_yards":           0.1,
			"rushing_tds":             6,
			"receptions":              0.5,
			"receiving_yards":         0.1,
			"receiving_tds":           6,
			"fumbles":                 -2,
			"defensive_sacks":         1,
			"defensive_interceptions": 2,
		},
		"hockey": {
			"goals":           3,
			"assists":         2,
			"shots":           0.5,
			"blocked_shots":   0.5,
			"penalty_minutes": -0.5,
		},
		"baseball": {
			"hits":         1,
			"doubles":      1,
			"triples":      2,
			"home_runs":    4,
			"walks":        1,
			"runs":         1,
			"rbi":          1,
			"stolen_bases": 2,
			"strikeouts":   -0.5,
		},
	}
}
