package compute

import "github.com/statforge/statengine/internal/domain/stats"

func baseballMetrics(n stats.NormalizedRecord) map[string]*float64 {
	f := n.Fields

	obp := onBasePct(f)
	slg := sluggingPct(f)

	return map[string]*float64{
		"batting_avg":  ratio(f["hits"], f["at_bats"]),
		"obp":          obp,
		"slg":          slg,
		"ops":          sum(obp, slg),
		"whip":         ratio(f["walks_allowed"]+f["hits_allowed"], f["innings_pitched"]),
		"era":          ratio(f["earned_runs"]*9, f["innings_pitched"]),
	}
}

func onBasePct(f map[string]float64) *float64 {
	den := f["at_bats"] + f["walks"] + f["hit_by_pitch"] + f["sacrifice_flies"]
	return ratio(f["hits"]+f["walks"]+f["hit_by_pitch"], den)
}

func sluggingPct(f map[string]float64) *float64 {
	singles := f["hits"] - f["doubles"] - f["triples"] - f["home_runs"]
	totalBases := singles + 2*f["doubles"] + 3*f["triples"] + 4*f["home_runs"]
	return ratio(totalBases, f["at_bats"])
}

// sum adds two optional metrics; nil when either side is undefined.
func sum(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return ptr(*a + *b)
}
