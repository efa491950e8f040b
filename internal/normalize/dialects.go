package normalize

// DialectTable maps one upstream source's field names onto the canonical
// schema for a sport. Selection is by key-probing: the first registered
// dialect with at least one matching payload key wins, and the remaining
// dialects of the sport are unioned in afterwards so a stat is never lost
// because it arrived under the alternate naming convention.
type DialectTable struct {
	Sport    string
	Name     string
	FieldMap map[string]string
}

// minutesField is the canonical name routed into MinutesPlayed instead of
// the fields map.
const minutesField = "minutes"

// canonicalFields lists every canonical field per sport. The resolver
// guarantees all of them are present in the output, defaulted to zero.
var canonicalFields = map[string][]string{
	"basketball": {
		"points", "rebounds", "assists", "steals", "blocks", "turnovers",
		"fga", "fgm", "three_pa", "three_pm", "fta", "ftm",
		"team_fga", "team_fta", "team_turnovers", "team_minutes",
	},
	"football": {
		"pass_attempts", "pass_completions", "pass_yards", "pass_tds",
		"interceptions", "rush_attempts", "rushing_yards", "rushing_tds",
		"receptions", "receiving_yards", "receiving_tds", "fumbles",
		"defensive_sacks", "defensive_interceptions", "defensive_tackles",
	},
	"hockey": {
		"goals", "assists", "shots", "hits", "blocked_shots",
		"penalty_minutes", "plus_minus",
	},
	"baseball": {
		"at_bats", "hits", "doubles", "triples", "home_runs", "walks",
		"hit_by_pitch", "sacrifice_flies", "runs", "rbi", "stolen_bases",
		"strikeouts", "innings_pitched", "hits_allowed", "walks_allowed",
		"earned_runs",
	},
}

// builtinDialects covers the upstream shapes seen so far: for each sport one
// snake_case feed and one camelCase feed. Registration order matters for
// probing.
var builtinDialects = []DialectTable{
	{
		Sport: "basketball",
		Name:  "boxfeed",
		FieldMap: map[string]string{
			"points":                "points",
			"rebounds":              "rebounds",
			"assists":               "assists",
			"steals":                "steals",
			"blocks":                "blocks",
			"turnovers":             "turnovers",
			"field_goals_attempted": "fga",
			"field_goals_made":      "fgm",
			"three_pointers_attempted": "three_pa",
			"three_pointers_made":      "three_pm",
			"free_throws_attempted":    "fta",
			"free_throws_made":         "ftm",
			"team_field_goals_attempted": "team_fga",
			"team_free_throws_attempted": "team_fta",
			"team_turnovers":             "team_turnovers",
			"team_minutes":               "team_minutes",
			"minutes":                    minutesField,
		},
	},
	{
		Sport: "basketball",
		Name:  "statsapi",
		FieldMap: map[string]string{
			"points":                 "points",
			"totalRebounds":          "rebounds",
			"assists":                "assists",
			"steals":                 "steals",
			"blocks":                 "blocks",
			"turnovers":              "turnovers",
			"fieldGoalsAttempted":    "fga",
			"fieldGoalsMade":         "fgm",
			"threePointersAttempted": "three_pa",
			"threePointersMade":      "three_pm",
			"freeThrowsAttempted":    "fta",
			"freeThrowsMade":         "ftm",
			"teamFieldGoalsAttempted": "team_fga",
			"teamFreeThrowsAttempted": "team_fta",
			"teamTurnovers":           "team_turnovers",
			"teamMinutes":             "team_minutes",
			"minutesPlayed":           minutesField,
		},
	},
	{
		Sport: "football",
		Name:  "gamebook",
		FieldMap: map[string]string{
			"pass_attempts":           "pass_attempts",
			"pass_completions":        "pass_completions",
			"passing_yards":           "pass_yards",
			"passing_touchdowns":      "pass_tds",
			"interceptions_thrown":    "interceptions",
			"rush_attempts":           "rush_attempts",
			"rushing_yards":           "rushing_yards",
			"rushing_touchdowns":      "rushing_tds",
			"receptions":              "receptions",
			"receiving_yards":         "receiving_yards",
			"receiving_touchdowns":    "receiving_tds",
			"fumbles":                 "fumbles",
			"defensive_sacks":         "defensive_sacks",
			"defensive_interceptions": "defensive_interceptions",
			"defensive_tackles":       "defensive_tackles",
			"minutes_played":          minutesField,
		},
	},
	{
		Sport: "football",
		Name:  "profeed",
		FieldMap: map[string]string{
			"passAttempts":       "pass_attempts",
			"passCompletions":    "pass_completions",
			"passYards":          "pass_yards",
			"passTouchdowns":     "pass_tds",
			"interceptions":      "interceptions",
			"rushAttempts":       "rush_attempts",
			"rushYards":          "rushing_yards",
			"rushTouchdowns":     "rushing_tds",
			"receptions":         "receptions",
			"recYards":           "receiving_yards",
			"recTouchdowns":      "receiving_tds",
			"fumbles":            "fumbles",
			"sacks":              "defensive_sacks",
			"defInterceptions":   "defensive_interceptions",
			"tackles":            "defensive_tackles",
			"minutesPlayed":      minutesField,
		},
	},
	{
		Sport: "hockey",
		Name:  "rtss",
		FieldMap: map[string]string{
			"goals":       "goals",
			"assists":     "assists",
			"shots":       "shots",
			"hits":        "hits",
			"blockedShots":   "blocked_shots",
			"penaltyMinutes": "penalty_minutes",
			"plusMinus":      "plus_minus",
			"timeOnIce":      minutesField,
		},
	},
	{
		Sport: "hockey",
		Name:  "shiftfeed",
		FieldMap: map[string]string{
			"goals":           "goals",
			"assists":         "assists",
			"shots_on_goal":   "shots",
			"hits":            "hits",
			"blocked_shots":   "blocked_shots",
			"penalty_minutes": "penalty_minutes",
			"plus_minus":      "plus_minus",
			"time_on_ice":     minutesField,
		},
	},
	{
		Sport: "baseball",
		Name:  "scorebook",
		FieldMap: map[string]string{
			"at_bats":         "at_bats",
			"hits":            "hits",
			"doubles":         "doubles",
			"triples":         "triples",
			"home_runs":       "home_runs",
			"walks":           "walks",
			"hit_by_pitch":    "hit_by_pitch",
			"sacrifice_flies": "sacrifice_flies",
			"runs":            "runs",
			"rbi":             "rbi",
			"stolen_bases":    "stolen_bases",
			"strikeouts":      "strikeouts",
			"innings_pitched": "innings_pitched",
			"hits_allowed":    "hits_allowed",
			"walks_allowed":   "walks_allowed",
			"earned_runs":     "earned_runs",
		},
	},
	{
		Sport: "baseball",
		Name:  "gamefeed",
		FieldMap: map[string]string{
			"atBats":         "at_bats",
			"hits":           "hits",
			"doubles":        "doubles",
			"triples":        "triples",
			"homeRuns":       "home_runs",
			"baseOnBalls":    "walks",
			"hitByPitch":     "hit_by_pitch",
			"sacFlies":       "sacrifice_flies",
			"runs":           "runs",
			"rbi":            "rbi",
			"stolenBases":    "stolen_bases",
			"strikeOuts":     "strikeouts",
			"inningsPitched": "innings_pitched",
			"hitsAllowed":    "hits_allowed",
			"walksAllowed":   "walks_allowed",
			"earnedRuns":     "earned_runs",
		},
	},
}
