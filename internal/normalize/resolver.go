package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/statforge/statengine/internal/domain/stats"
)

// Resolver maps raw, source-specific payloads onto the canonical schema of
// their sport. The dialect tables are read-only after construction and safe
// to share across workers.
type Resolver struct {
	dialects  map[string][]DialectTable
	canonical map[string][]string
}

func NewResolver() *Resolver {
	r := &Resolver{
		dialects:  make(map[string][]DialectTable),
		canonical: canonicalFields,
	}
	for _, table := range builtinDialects {
		r.dialects[table.Sport] = append(r.dialects[table.Sport], table)
	}
	return r
}

// Register adds a dialect table; later probes consider it after the builtin
// ones for its sport.
func (r *Resolver) Register(table DialectTable) {
	r.dialects[table.Sport] = append(r.dialects[table.Sport], table)
}

// Sports lists the sports the resolver can normalize.
func (r *Resolver) Sports() []string {
	out := make([]string, 0, len(r.canonical))
	for sport := range r.canonical {
		out = append(out, sport)
	}
	return out
}

// Resolve converts a raw record into its canonical form. Individual missing
// or malformed fields never fail the record: they default to zero and add a
// warning. The only error is an unregistered sport, which is a configuration
// problem.
func (r *Resolver) Resolve(raw stats.RawRecord) (stats.NormalizedRecord, []stats.Warning, error) {
	sport := strings.ToLower(strings.TrimSpace(raw.Sport))
	canonical, ok := r.canonical[sport]
	if !ok {
		return stats.NormalizedRecord{}, nil, fmt.Errorf("no dialect tables registered for sport %q", sport)
	}

	normalized := stats.NormalizedRecord{
		Sport:    sport,
		PlayerID: raw.PlayerID,
		GameID:   raw.GameID,
		TeamID:   raw.TeamID,
		Fields:   make(map[string]float64, len(canonical)),
	}

	var warnings []stats.Warning
	resolved := make(map[string]bool, len(canonical)+1)

	for _, table := range r.orderedDialects(sport, raw) {
		for upstream, field := range table.FieldMap {
			if resolved[field] {
				continue
			}
			value, present := raw.Payload[upstream]
			if !present {
				continue
			}

			parsed, err := coerceNumeric(value)
			if err != nil {
				// A malformed field still lands in the canonical set at
				// zero, same as an absent one.
				warnings = append(warnings, stats.Warning{Field: field, Reason: err.Error()})
				if field != minutesField {
					normalized.Fields[field] = 0
				}
				resolved[field] = true
				continue
			}

			if field == minutesField {
				normalized.MinutesPlayed = parsed
			} else {
				normalized.Fields[field] = parsed
			}
			resolved[field] = true
		}
	}

	for _, field := range canonical {
		if resolved[field] {
			continue
		}
		normalized.Fields[field] = 0
		warnings = append(warnings, stats.Warning{Field: field, Reason: "absent upstream"})
	}

	return normalized, warnings, nil
}

// orderedDialects returns the sport's tables with the probe winner first:
// the first dialect with at least one key present in the payload. The rest
// follow in registration order so alternate naming conventions still union
// in.
func (r *Resolver) orderedDialects(sport string, raw stats.RawRecord) []DialectTable {
	tables := r.dialects[sport]
	winner := -1
	for i, table := range tables {
		for upstream := range table.FieldMap {
			if _, ok := raw.Payload[upstream]; ok {
				winner = i
				break
			}
		}
		if winner >= 0 {
			break
		}
	}
	if winner <= 0 {
		return tables
	}

	ordered := make([]DialectTable, 0, len(tables))
	ordered = append(ordered, tables[winner])
	for i, table := range tables {
		if i != winner {
			ordered = append(ordered, table)
		}
	}
	return ordered
}

// coerceNumeric accepts the numeric encodings seen upstream: JSON numbers,
// numeric strings, and MM:SS clock strings (converted to decimal minutes).
func coerceNumeric(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return coerceString(v)
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}
}

func coerceString(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	if mm, ss, ok := strings.Cut(s, ":"); ok {
		minutes, err := strconv.ParseFloat(mm, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed clock value %q", raw)
		}
		seconds, err := strconv.ParseFloat(ss, 64)
		if err != nil || seconds < 0 || seconds >= 60 {
			return 0, fmt.Errorf("malformed clock value %q", raw)
		}
		return minutes + seconds/60, nil
	}

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed numeric value %q", raw)
	}
	return parsed, nil
}
