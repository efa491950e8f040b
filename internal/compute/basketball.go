package compute

import "github.com/statforge/statengine/internal/domain/stats"

func basketballMetrics(n stats.NormalizedRecord) map[string]*float64 {
	f := n.Fields

	metrics := map[string]*float64{
		"true_shooting_pct": ratio(f["points"], 2*(f["fga"]+0.44*f["fta"])),
		"effective_fg_pct":  ratio(f["fgm"]+0.5*f["three_pm"], f["fga"]),
		"assist_to_turnover": ratio(f["assists"], f["turnovers"]),
		"usage_rate":        usageRate(n),
	}

	return metrics
}

// usageRate needs team totals; without them the metric is undefined.
//
//	100 * ((FGA + 0.44*FTA + TOV) * (teamMinutes/5)) /
//	      (minutes * (teamFGA + 0.44*teamFTA + teamTOV))
func usageRate(n stats.NormalizedRecord) *float64 {
	f := n.Fields
	teamPossessions := f["team_fga"] + 0.44*f["team_fta"] + f["team_turnovers"]
	if teamPossessions <= 0 || f["team_minutes"] <= 0 {
		return nil
	}

	playerShare := (f["fga"] + 0.44*f["fta"] + f["turnovers"]) * (f["team_minutes"] / 5)
	return ratio(100*playerShare, n.MinutesPlayed*teamPossessions)
}
