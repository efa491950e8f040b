package normalize

import (
	"testing"

	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DialectUnionProducesIdenticalRecords(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	snake := stats.RawRecord{
		Sport:    "basketball",
		PlayerID: "p1",
		GameID:   "g1",
		Payload: map[string]any{
			"points":                "30",
			"field_goals_attempted": 20,
			"field_goals_made":      10,
			"free_throws_attempted": 10,
			"free_throws_made":      8,
			"minutes":               34.5,
		},
	}
	camel := stats.RawRecord{
		Sport:    "basketball",
		PlayerID: "p1",
		GameID:   "g1",
		Payload: map[string]any{
			"points":              30,
			"fieldGoalsAttempted": 20,
			"fieldGoalsMade":      "10",
			"freeThrowsAttempted": 10,
			"freeThrowsMade":      8,
			"minutesPlayed":       34.5,
		},
	}

	a, _, err := resolver.Resolve(snake)
	require.NoError(t, err)
	b, _, err := resolver.Resolve(camel)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, 20.0, a.Fields["fga"])
	assert.Equal(t, 34.5, a.MinutesPlayed)
}

func TestResolve_MixedDialectPayloadKeepsEveryStat(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	// One upstream merged two feeds: rebounds arrive camelCase while the
	// rest is snake_case. Neither side may be dropped.
	raw := stats.RawRecord{
		Sport:    "basketball",
		PlayerID: "p1",
		GameID:   "g1",
		Payload: map[string]any{
			"points":        12,
			"totalRebounds": 9,
		},
	}

	normalized, _, err := resolver.Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, 12.0, normalized.Fields["points"])
	assert.Equal(t, 9.0, normalized.Fields["rebounds"])
}

func TestResolve_TimeOnIceClockCoercion(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	normalized, _, err := resolver.Resolve(stats.RawRecord{
		Sport:    "hockey",
		PlayerID: "p1",
		GameID:   "g1",
		Payload: map[string]any{
			"timeOnIce": "14:32",
			"goals":     1,
			"assists":   2,
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 14.533, normalized.MinutesPlayed, 0.001)
	assert.Equal(t, 1.0, normalized.Fields["goals"])
}

func TestResolve_StringEncodedDefensiveStats(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	normalized, _, err := resolver.Resolve(stats.RawRecord{
		Sport:    "football",
		PlayerID: "p1",
		GameID:   "g1",
		Payload: map[string]any{
			"defensive_sacks":   "2",
			"defensive_tackles": "7",
			"rushing_yards":     45,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, normalized.Fields["defensive_sacks"])
	assert.Equal(t, 7.0, normalized.Fields["defensive_tackles"])
	assert.Equal(t, 45.0, normalized.Fields["rushing_yards"])
}

func TestResolve_MalformedFieldsDegradeToWarnings(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	normalized, warnings, err := resolver.Resolve(stats.RawRecord{
		Sport:    "hockey",
		PlayerID: "p1",
		GameID:   "g1",
		Payload: map[string]any{
			"goals":     "not-a-number",
			"timeOnIce": "14:99",
			"assists":   []any{"garbage"},
			"shots":     3,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, normalized.MinutesPlayed)
	assert.Equal(t, 3.0, normalized.Fields["shots"])

	// Malformed fields stay in the canonical set at zero, same as absent
	// ones; a missing map key reading as zero is not enough.
	for _, field := range []string{"goals", "assists"} {
		value, present := normalized.Fields[field]
		assert.True(t, present, "canonical field %s must be present", field)
		assert.Equal(t, 0.0, value)
	}

	fields := make(map[string]bool)
	for _, w := range warnings {
		fields[w.Field] = true
	}
	assert.True(t, fields["goals"])
	assert.True(t, fields["assists"])
	assert.True(t, fields["minutes"])
}

func TestResolve_MalformedFieldNormalizesLikeAbsentField(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	malformed, _, err := resolver.Resolve(stats.RawRecord{
		Sport:    "hockey",
		PlayerID: "p1",
		GameID:   "g1",
		Payload:  map[string]any{"goals": "not-a-number", "shots": 3},
	})
	require.NoError(t, err)

	absent, _, err := resolver.Resolve(stats.RawRecord{
		Sport:    "hockey",
		PlayerID: "p1",
		GameID:   "g1",
		Payload:  map[string]any{"shots": 3},
	})
	require.NoError(t, err)

	require.Equal(t, absent.Fields, malformed.Fields)
	assert.Equal(t, absent.Fingerprint(), malformed.Fingerprint())
}

func TestResolve_MissingFieldsDefaultToZeroWithWarnings(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	normalized, warnings, err := resolver.Resolve(stats.RawRecord{
		Sport:    "baseball",
		PlayerID: "p1",
		GameID:   "g1",
		Payload:  map[string]any{"hits": 2, "at_bats": 4},
	})
	require.NoError(t, err)

	for _, field := range canonicalFields["baseball"] {
		_, present := normalized.Fields[field]
		assert.True(t, present, "canonical field %s must be present", field)
	}
	assert.Equal(t, 2.0, normalized.Fields["hits"])
	assert.Equal(t, 0.0, normalized.Fields["home_runs"])
	assert.NotEmpty(t, warnings)
}

func TestResolve_UnknownSportIsConfigurationError(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	_, _, err := resolver.Resolve(stats.RawRecord{Sport: "cricket", PlayerID: "p", GameID: "g"})
	require.Error(t, err)
}

func TestCoerceString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "5", want: 5},
		{in: " 12.75 ", want: 12.75},
		{in: "14:32", want: 14 + 32.0/60},
		{in: "0:45", want: 0.75},
		{in: "14:60", wantErr: true},
		{in: "DNP", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := coerceString(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
	}
}
