package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/statforge/statengine/internal/domain/game"
	"github.com/statforge/statengine/internal/domain/stats"
	basecache "github.com/statforge/statengine/internal/platform/cache"
)

// StatRecordRepository decorates a stats repository with the tiered cache.
// The freshness class of every key follows the lifecycle of the game the
// record belongs to: live games cache briefly, archived games cache until
// explicitly invalidated.
type StatRecordRepository struct {
	next         stats.Repository
	games        game.Repository
	cache        *basecache.Store
	recentWindow time.Duration
}

func NewStatRecordRepository(next stats.Repository, games game.Repository, cache *basecache.Store, recentWindow time.Duration) *StatRecordRepository {
	return &StatRecordRepository{
		next:         next,
		games:        games,
		cache:        cache,
		recentWindow: recentWindow,
	}
}

func (r *StatRecordRepository) UpsertMany(ctx context.Context, items []stats.Record) error {
	if err := r.next.UpsertMany(ctx, items); err != nil {
		return err
	}

	for _, item := range items {
		tier := r.tierForGame(ctx, item.GameID)
		r.cache.Set(ctx, recordKey(item.PlayerID, item.GameID), cachedRecord{value: item, exists: true}, tier)
	}
	r.cache.DeletePrefix(ctx, "stat:list:")

	return nil
}

func (r *StatRecordRepository) GetByKey(ctx context.Context, playerID, gameID string) (stats.Record, bool, error) {
	tier := r.tierForGame(ctx, gameID)
	v, err := r.cache.GetOrLoad(ctx, recordKey(playerID, gameID), tier, func(ctx context.Context) (any, error) {
		record, exists, err := r.next.GetByKey(ctx, playerID, gameID)
		if err != nil {
			return nil, err
		}
		return cachedRecord{value: record, exists: exists}, nil
	})
	if err != nil {
		return stats.Record{}, false, err
	}

	cached, _ := v.(cachedRecord)
	return cached.value, cached.exists, nil
}

func (r *StatRecordRepository) List(ctx context.Context, filter stats.Filter) ([]stats.Record, int, error) {
	tier := basecache.TierStandard
	if filter.GameID != "" {
		tier = r.tierForGame(ctx, filter.GameID)
	}

	v, err := r.cache.GetOrLoad(ctx, listKey(filter), tier, func(ctx context.Context) (any, error) {
		items, total, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return cachedList{items: append([]stats.Record(nil), items...), total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	cached, _ := v.(cachedList)
	return append([]stats.Record(nil), cached.items...), cached.total, nil
}

// ListCached reports whether the filter's listing is currently cached.
// Serving layers use it to mark responses as cache-served.
func (r *StatRecordRepository) ListCached(ctx context.Context, filter stats.Filter) bool {
	return r.cache.Peek(ctx, listKey(filter))
}

// InvalidateGame drops every cached entry touching the game. Forced
// refreshes call this so the next read goes back to storage.
func (r *StatRecordRepository) InvalidateGame(ctx context.Context, gameID string, playerIDs []string) {
	for _, playerID := range playerIDs {
		r.cache.Delete(ctx, recordKey(playerID, gameID))
	}
	r.cache.DeletePrefix(ctx, "stat:list:")
}

type cachedRecord struct {
	value  stats.Record
	exists bool
}

type cachedList struct {
	items []stats.Record
	total int
}

func (r *StatRecordRepository) tierForGame(ctx context.Context, gameID string) basecache.Tier {
	if gameID == "" {
		return basecache.TierStandard
	}

	item, ok, err := r.games.GetByID(ctx, gameID)
	if err != nil || !ok {
		return basecache.TierStandard
	}

	switch item.ProcessingTier(time.Now(), r.recentWindow) {
	case game.TierLive:
		return basecache.TierLive
	case game.TierArchived:
		return basecache.TierHistorical
	default:
		return basecache.TierStandard
	}
}

func recordKey(playerID, gameID string) string {
	return "stat:record:" + playerID + ":" + gameID
}

func listKey(filter stats.Filter) string {
	var b strings.Builder
	b.WriteString("stat:list:")
	b.WriteString(filter.Sport)
	b.WriteString("|")
	b.WriteString(filter.TeamID)
	b.WriteString("|")
	b.WriteString(filter.PlayerID)
	b.WriteString("|")
	b.WriteString(filter.GameID)
	b.WriteString("|")
	b.WriteString(strings.Join(filter.GameIDs, ","))
	b.WriteString("|")
	if filter.DateFrom != nil {
		b.WriteString(filter.DateFrom.UTC().Format(time.RFC3339))
	}
	b.WriteString("|")
	if filter.DateTo != nil {
		b.WriteString(filter.DateTo.UTC().Format(time.RFC3339))
	}
	b.WriteString("|")
	b.WriteString(strconv.Itoa(filter.Limit))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(filter.Offset))
	return b.String()
}
