package game

import "time"

// State is the lifecycle position of a game. Transitions are forward-only:
// scheduled → live → completed → archived.
type State string

const (
	StateScheduled State = "scheduled"
	StateLive      State = "live"
	StateCompleted State = "completed"
	StateArchived  State = "archived"
)

func (s State) Valid() bool {
	switch s {
	case StateScheduled, StateLive, StateCompleted, StateArchived:
		return true
	default:
		return false
	}
}

var nextState = map[State]State{
	StateScheduled: StateLive,
	StateLive:      StateCompleted,
	StateCompleted: StateArchived,
}

func (s State) CanTransitionTo(target State) bool {
	return nextState[s] == target
}

// Tier is the processing class a game falls into: it selects both the
// scheduler cadence and the cache freshness class for the game's records.
type Tier string

const (
	TierLive     Tier = "live"
	TierStandard Tier = "standard"
	TierRecent   Tier = "recent"
	TierArchived Tier = "archived"
)

type Game struct {
	ID          string     `json:"id"`
	Sport       string     `json:"sport"`
	HomeTeamID  string     `json:"home_team_id"`
	AwayTeamID  string     `json:"away_team_id"`
	StartsAt    time.Time  `json:"starts_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	State       State      `json:"state"`
}

// ProcessingTier classifies the game for the scheduler. Completed games stay
// in the recent tier until recentWindow has passed since completion, after
// which they belong to the archived (on-demand only) tier.
func (g Game) ProcessingTier(now time.Time, recentWindow time.Duration) Tier {
	switch g.State {
	case StateLive:
		return TierLive
	case StateCompleted:
		if g.CompletedAt != nil && now.Sub(*g.CompletedAt) > recentWindow {
			return TierArchived
		}
		return TierRecent
	case StateArchived:
		return TierArchived
	default:
		return TierStandard
	}
}

// NextState derives the state the game should advance to at now, or the
// current state when no transition applies. archiveAfter is measured from
// completion.
func (g Game) NextState(now time.Time, archiveAfter time.Duration) State {
	switch g.State {
	case StateScheduled:
		if !g.StartsAt.IsZero() && !now.Before(g.StartsAt) {
			return StateLive
		}
	case StateLive:
		if g.EndedAt != nil && !now.Before(*g.EndedAt) {
			return StateCompleted
		}
	case StateCompleted:
		if g.CompletedAt != nil && now.Sub(*g.CompletedAt) >= archiveAfter {
			return StateArchived
		}
	}
	return g.State
}
