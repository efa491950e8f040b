package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/statforge/statengine/internal/domain/stats"
)

type statRecordTableModel struct {
	ID               int64     `db:"id"`
	Sport            string    `db:"sport"`
	PlayerID         string    `db:"player_id"`
	GameID           string    `db:"game_id"`
	TeamID           string    `db:"team_id"`
	GameDate         time.Time `db:"game_date"`
	Raw              string    `db:"raw"`
	Canonical        string    `db:"canonical"`
	MinutesPlayed    float64   `db:"minutes_played"`
	Metrics          string    `db:"metrics"`
	Warnings         string    `db:"warnings"`
	QualityScore     float64   `db:"quality_score"`
	ComputedAt       time.Time `db:"computed_at"`
	InputFingerprint string    `db:"input_fingerprint"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type statRecordInsertModel struct {
	Sport            string    `db:"sport"`
	PlayerID         string    `db:"player_id"`
	GameID           string    `db:"game_id"`
	TeamID           string    `db:"team_id"`
	GameDate         time.Time `db:"game_date"`
	Raw              string    `db:"raw"`
	Canonical        string    `db:"canonical"`
	MinutesPlayed    float64   `db:"minutes_played"`
	Metrics          string    `db:"metrics"`
	Warnings         string    `db:"warnings"`
	QualityScore     float64   `db:"quality_score"`
	ComputedAt       time.Time `db:"computed_at"`
	InputFingerprint string    `db:"input_fingerprint"`
}

func newStatRecordInsertModel(item stats.Record) (statRecordInsertModel, error) {
	raw, err := encodeJSONColumn(item.Raw)
	if err != nil {
		return statRecordInsertModel{}, fmt.Errorf("encode raw payload: %w", err)
	}
	canonical, err := encodeJSONColumn(item.Canonical)
	if err != nil {
		return statRecordInsertModel{}, fmt.Errorf("encode canonical fields: %w", err)
	}
	metrics, err := encodeJSONColumn(item.Metrics)
	if err != nil {
		return statRecordInsertModel{}, fmt.Errorf("encode metrics: %w", err)
	}
	warnings, err := encodeJSONColumn(item.Warnings)
	if err != nil {
		return statRecordInsertModel{}, fmt.Errorf("encode warnings: %w", err)
	}

	return statRecordInsertModel{
		Sport:            item.Sport,
		PlayerID:         item.PlayerID,
		GameID:           item.GameID,
		TeamID:           item.TeamID,
		GameDate:         item.GameDate,
		Raw:              raw,
		Canonical:        canonical,
		MinutesPlayed:    item.MinutesPlayed,
		Metrics:          metrics,
		Warnings:         warnings,
		QualityScore:     item.QualityScore,
		ComputedAt:       item.ComputedAt,
		InputFingerprint: item.InputFingerprint,
	}, nil
}

func (m statRecordTableModel) toDomain() (stats.Record, error) {
	out := stats.Record{
		Sport:            m.Sport,
		PlayerID:         m.PlayerID,
		GameID:           m.GameID,
		TeamID:           m.TeamID,
		GameDate:         m.GameDate,
		MinutesPlayed:    m.MinutesPlayed,
		QualityScore:     m.QualityScore,
		ComputedAt:       m.ComputedAt,
		InputFingerprint: m.InputFingerprint,
	}

	if err := decodeJSONColumn(m.Raw, &out.Raw); err != nil {
		return stats.Record{}, fmt.Errorf("decode raw payload: %w", err)
	}
	if err := decodeJSONColumn(m.Canonical, &out.Canonical); err != nil {
		return stats.Record{}, fmt.Errorf("decode canonical fields: %w", err)
	}
	if err := decodeJSONColumn(m.Metrics, &out.Metrics); err != nil {
		return stats.Record{}, fmt.Errorf("decode metrics: %w", err)
	}
	if err := decodeJSONColumn(m.Warnings, &out.Warnings); err != nil {
		return stats.Record{}, fmt.Errorf("decode warnings: %w", err)
	}

	return out, nil
}

func encodeJSONColumn(value any) (string, error) {
	if value == nil {
		return "null", nil
	}
	data, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSONColumn(data string, target any) error {
	if data == "" || data == "null" {
		return nil
	}
	return sonic.UnmarshalString(data, target)
}
