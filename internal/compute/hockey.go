package compute

import "github.com/statforge/statengine/internal/domain/stats"

func hockeyMetrics(n stats.NormalizedRecord) map[string]*float64 {
	f := n.Fields
	points := f["goals"] + f["assists"]

	return map[string]*float64{
		"points":        ptr(points),
		"points_per_60": ratio(points*60, n.MinutesPlayed),
		"shooting_pct":  ratio(f["goals"], f["shots"]),
	}
}
