package stats

import (
	"hash/fnv"
	"sort"
	"strconv"
	"time"
)

// RawRecord is a per-player, per-game stat payload exactly as the upstream
// collector handed it in. Immutable once received; the payload shape varies
// per source dialect.
type RawRecord struct {
	Sport    string         `json:"sport"`
	Source   string         `json:"source"`
	PlayerID string         `json:"player_id"`
	GameID   string         `json:"game_id"`
	TeamID   string         `json:"team_id,omitempty"`
	Payload  map[string]any `json:"payload"`
}

// Warning records a single field that could not be parsed or mapped during
// normalization. It never aborts the record; the field defaults to zero.
type Warning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NormalizedRecord is the canonical numeric form of a RawRecord. Every field
// in the sport's canonical set is present, defaulted to zero when the
// upstream payload lacked it.
type NormalizedRecord struct {
	Sport         string             `json:"sport"`
	PlayerID      string             `json:"player_id"`
	GameID        string             `json:"game_id"`
	TeamID        string             `json:"team_id,omitempty"`
	MinutesPlayed float64            `json:"minutes_played"`
	Fields        map[string]float64 `json:"fields"`
}

// Fingerprint hashes the normalized record into a stable identity used for
// idempotence checks. Identical inputs always produce the same fingerprint.
func (r NormalizedRecord) Fingerprint() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	writeString := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}

	writeString(r.Sport)
	writeString(r.PlayerID)
	writeString(r.GameID)
	writeString(r.TeamID)
	writeString(strconv.FormatFloat(r.MinutesPlayed, 'g', -1, 64))
	for _, k := range keys {
		writeString(k)
		writeString(strconv.FormatFloat(r.Fields[k], 'g', -1, 64))
	}

	return strconv.FormatUint(h.Sum64(), 16)
}

// MetricSet is the derived-metric output for one (player, game) pair.
// A nil metric value means the formula is undefined for the inputs, never
// NaN or Inf.
type MetricSet struct {
	Sport            string              `json:"sport"`
	PlayerID         string              `json:"player_id"`
	GameID           string              `json:"game_id"`
	TeamID           string              `json:"team_id,omitempty"`
	Metrics          map[string]*float64 `json:"metrics"`
	ComputedAt       time.Time           `json:"computed_at"`
	InputFingerprint string              `json:"input_fingerprint"`
}

// Record is the persisted container for one (player, game) pair: the raw
// payload, its canonical fields, the computed metrics, game context and a
// data-quality score.
type Record struct {
	Sport            string              `json:"sport"`
	PlayerID         string              `json:"player_id"`
	GameID           string              `json:"game_id"`
	TeamID           string              `json:"team_id,omitempty"`
	GameDate         time.Time           `json:"game_date"`
	Raw              map[string]any      `json:"raw"`
	Canonical        map[string]float64  `json:"canonical"`
	MinutesPlayed    float64             `json:"minutes_played"`
	Metrics          map[string]*float64 `json:"metrics"`
	Warnings         []Warning           `json:"warnings,omitempty"`
	QualityScore     float64             `json:"quality_score"`
	ComputedAt       time.Time           `json:"computed_at"`
	InputFingerprint string              `json:"input_fingerprint"`
}

// MetricSet projects the serving/notification view out of a stored record.
func (r Record) MetricSet() MetricSet {
	return MetricSet{
		Sport:            r.Sport,
		PlayerID:         r.PlayerID,
		GameID:           r.GameID,
		TeamID:           r.TeamID,
		Metrics:          r.Metrics,
		ComputedAt:       r.ComputedAt,
		InputFingerprint: r.InputFingerprint,
	}
}

// QualityScore rates completeness of a normalization pass: 1.0 when every
// canonical field mapped cleanly, decreasing with each warning.
func QualityScore(canonicalFields int, warnings int) float64 {
	if canonicalFields <= 0 {
		return 0
	}
	if warnings >= canonicalFields {
		return 0
	}
	return 1 - float64(warnings)/float64(canonicalFields)
}
