package postgres

import (
	"time"

	"github.com/statforge/statengine/internal/domain/game"
)

type gameTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	Sport       string     `db:"sport"`
	HomeTeamID  string     `db:"home_team_id"`
	AwayTeamID  string     `db:"away_team_id"`
	StartsAt    time.Time  `db:"starts_at"`
	EndedAt     *time.Time `db:"ended_at"`
	CompletedAt *time.Time `db:"completed_at"`
	State       string     `db:"state"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type gameInsertModel struct {
	PublicID    string     `db:"public_id"`
	Sport       string     `db:"sport"`
	HomeTeamID  string     `db:"home_team_id"`
	AwayTeamID  string     `db:"away_team_id"`
	StartsAt    time.Time  `db:"starts_at"`
	EndedAt     *time.Time `db:"ended_at"`
	CompletedAt *time.Time `db:"completed_at"`
	State       string     `db:"state"`
}

func (m gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:          m.PublicID,
		Sport:       m.Sport,
		HomeTeamID:  m.HomeTeamID,
		AwayTeamID:  m.AwayTeamID,
		StartsAt:    m.StartsAt,
		EndedAt:     m.EndedAt,
		CompletedAt: m.CompletedAt,
		State:       game.State(m.State),
	}
}
