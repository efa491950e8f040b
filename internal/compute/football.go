package compute

import "github.com/statforge/statengine/internal/domain/stats"

func footballMetrics(n stats.NormalizedRecord) map[string]*float64 {
	f := n.Fields

	yardsFromScrimmage := f["rushing_yards"] + f["receiving_yards"]

	return map[string]*float64{
		"passer_rating":        passerRating(f),
		"yards_from_scrimmage": ptr(yardsFromScrimmage),
		"yards_per_carry":      ratio(f["rushing_yards"], f["rush_attempts"]),
		"yards_per_reception":  ratio(f["receiving_yards"], f["receptions"]),
	}
}

// passerRating implements the NFL formula: four components, each clamped to
// [0, 2.375] before averaging. Undefined without a pass attempt.
func passerRating(f map[string]float64) *float64 {
	attempts := f["pass_attempts"]
	if attempts <= 0 {
		return nil
	}

	a := clamp((f["pass_completions"]/attempts-0.3)*5, 0, 2.375)
	b := clamp((f["pass_yards"]/attempts-3)*0.25, 0, 2.375)
	c := clamp(f["pass_tds"]/attempts*20, 0, 2.375)
	d := clamp(2.375-f["interceptions"]/attempts*25, 0, 2.375)

	rating := (a + b + c + d) / 6 * 100
	return ptr(rating)
}
