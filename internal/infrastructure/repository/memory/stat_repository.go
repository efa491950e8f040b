package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/statforge/statengine/internal/domain/stats"
)

type statKey struct {
	playerID string
	gameID   string
}

// StatRecordRepository is the in-process fallback store used when no
// database is configured. Semantics match the postgres repository,
// including last-write-wins by ComputedAt.
type StatRecordRepository struct {
	mu      sync.RWMutex
	records map[statKey]stats.Record
}

func NewStatRecordRepository() *StatRecordRepository {
	return &StatRecordRepository{records: make(map[statKey]stats.Record)}
}

func (r *StatRecordRepository) UpsertMany(_ context.Context, items []stats.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		key := statKey{playerID: item.PlayerID, gameID: item.GameID}
		if existing, ok := r.records[key]; ok && existing.ComputedAt.After(item.ComputedAt) {
			continue
		}
		r.records[key] = item
	}

	return nil
}

func (r *StatRecordRepository) GetByKey(_ context.Context, playerID, gameID string) (stats.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[statKey{playerID: playerID, gameID: gameID}]
	return record, ok, nil
}

func (r *StatRecordRepository) List(_ context.Context, filter stats.Filter) ([]stats.Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]stats.Record, 0, len(r.records))
	for _, record := range r.records {
		if matchesFilter(record, filter) {
			matched = append(matched, record)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].GameDate.Equal(matched[j].GameDate) {
			return matched[i].GameDate.After(matched[j].GameDate)
		}
		if matched[i].GameID != matched[j].GameID {
			return matched[i].GameID < matched[j].GameID
		}
		return matched[i].PlayerID < matched[j].PlayerID
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []stats.Record{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]stats.Record, len(matched))
	copy(out, matched)
	return out, total, nil
}

func matchesFilter(record stats.Record, filter stats.Filter) bool {
	if filter.Sport != "" && record.Sport != filter.Sport {
		return false
	}
	if filter.TeamID != "" && record.TeamID != filter.TeamID {
		return false
	}
	if filter.PlayerID != "" && record.PlayerID != filter.PlayerID {
		return false
	}
	if filter.GameID != "" && record.GameID != filter.GameID {
		return false
	}
	if len(filter.GameIDs) > 0 {
		found := false
		for _, id := range filter.GameIDs {
			if record.GameID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.DateFrom != nil && record.GameDate.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && record.GameDate.After(*filter.DateTo) {
		return false
	}
	return true
}
