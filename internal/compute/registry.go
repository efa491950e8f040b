package compute

import (
	"fmt"
	"math"
	"time"

	"github.com/statforge/statengine/internal/domain/stats"
)

// Strategy derives advanced metrics from a canonical record. Strategies are
// pure: no shared state, no clocks, no dialect awareness.
type Strategy func(n stats.NormalizedRecord) map[string]*float64

// Registry is a flat sport→strategy table plus the fantasy scoring
// configuration. Read-only after construction, safe for concurrent use.
type Registry struct {
	strategies map[string]Strategy
	scoring    ScoringTables
}

func NewRegistry(scoring ScoringTables) *Registry {
	if scoring == nil {
		scoring = DefaultScoringTables()
	}
	return &Registry{
		strategies: map[string]Strategy{
			"basketball": basketballMetrics,
			"football":   footballMetrics,
			"hockey":     hockeyMetrics,
			"baseball":   baseballMetrics,
		},
		scoring: scoring,
	}
}

// Compute derives the metric set for a normalized record. at becomes the
// set's ComputedAt so the result is fully determined by its arguments.
// The only error is a sport with no registered strategy, which is fatal
// configuration per the engine's error policy.
func (r *Registry) Compute(n stats.NormalizedRecord, at time.Time) (stats.MetricSet, error) {
	strategy, ok := r.strategies[n.Sport]
	if !ok {
		return stats.MetricSet{}, fmt.Errorf("no metric strategy registered for sport %q", n.Sport)
	}

	metrics := strategy(n)
	metrics["fantasy_points"] = ptr(r.scoring.Points(n))

	return stats.MetricSet{
		Sport:            n.Sport,
		PlayerID:         n.PlayerID,
		GameID:           n.GameID,
		TeamID:           n.TeamID,
		Metrics:          metrics,
		ComputedAt:       at,
		InputFingerprint: n.Fingerprint(),
	}, nil
}

// Sports lists the sports with a registered strategy.
func (r *Registry) Sports() []string {
	out := make([]string, 0, len(r.strategies))
	for sport := range r.strategies {
		out = append(out, sport)
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}

// ratio returns num/den, or nil when the denominator is not positive or the
// result would not be finite. Metrics are null in that case, never NaN/Inf.
func ratio(num, den float64) *float64 {
	if den <= 0 {
		return nil
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
