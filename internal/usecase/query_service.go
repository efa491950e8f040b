package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/statforge/statengine/internal/compute"
	"github.com/statforge/statengine/internal/domain/game"
	"github.com/statforge/statengine/internal/domain/stats"
	basecache "github.com/statforge/statengine/internal/platform/cache"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// QueryService is the read side: filtered listings, player series with trend
// rollups, per-game boards and health. It never takes locks against the
// write path; staleness is bounded by the cache tier TTLs.
type QueryService struct {
	records  stats.Repository
	games    game.Repository
	registry *compute.Registry
	cache    *basecache.Store
}

func NewQueryService(
	records stats.Repository,
	games game.Repository,
	registry *compute.Registry,
	cache *basecache.Store,
) *QueryService {
	return &QueryService{
		records:  records,
		games:    games,
		registry: registry,
		cache:    cache,
	}
}

type ListInput struct {
	Sport    string
	TeamID   string
	PlayerID string
	DateFrom *time.Time
	DateTo   *time.Time
	LiveOnly bool
	Metrics  []string
	Limit    int
	Offset   int
}

type ListResult struct {
	Sets   []stats.MetricSet
	Total  int
	Cached bool
}

// listCacheProber is implemented by the caching repository decorator.
type listCacheProber interface {
	ListCached(ctx context.Context, filter stats.Filter) bool
}

func (s *QueryService) ListMetricSets(ctx context.Context, input ListInput) (ListResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListMetricSets")
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := input.Offset
	if offset < 0 {
		return ListResult{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}

	filter := stats.Filter{
		Sport:    strings.TrimSpace(input.Sport),
		TeamID:   strings.TrimSpace(input.TeamID),
		PlayerID: strings.TrimSpace(input.PlayerID),
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Limit:    limit,
		Offset:   offset,
	}

	if input.LiveOnly {
		liveGames, err := s.games.ListByStates(ctx, game.StateLive)
		if err != nil {
			return ListResult{}, fmt.Errorf("%w: list live games: %v", ErrDependencyUnavailable, err)
		}
		if len(liveGames) == 0 {
			return ListResult{Sets: []stats.MetricSet{}}, nil
		}
		for _, item := range liveGames {
			filter.GameIDs = append(filter.GameIDs, item.ID)
		}
	}

	cached := false
	if prober, ok := s.records.(listCacheProber); ok {
		cached = prober.ListCached(ctx, filter)
	}

	items, total, err := s.records.List(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("%w: list records: %v", ErrDependencyUnavailable, err)
	}

	sets := make([]stats.MetricSet, 0, len(items))
	for _, item := range items {
		sets = append(sets, selectMetrics(item.MetricSet(), input.Metrics))
	}

	return ListResult{Sets: sets, Total: total, Cached: cached}, nil
}

type PlayerSeriesInput struct {
	PlayerID string
	// Season narrows by season label: a calendar year ("2026") or a
	// cross-year label ("2025-26"). Mutually exclusive with the explicit
	// date bounds.
	Season   string
	DateFrom *time.Time
	DateTo   *time.Time
	LastN    int
	// HomeAway narrows to games where the player's team hosted ("home") or
	// visited ("away").
	HomeAway string
	VsTeam   string
}

type PlayerSeriesEntry struct {
	GameID   string              `json:"game_id"`
	GameDate time.Time           `json:"game_date"`
	Minutes  float64             `json:"minutes_played"`
	Metrics  map[string]*float64 `json:"metrics"`
}

type PlayerSeriesResult struct {
	PlayerID string              `json:"player_id"`
	Sport    string              `json:"sport"`
	Games    []PlayerSeriesEntry `json:"games"`
	// Rollups averages each metric over the games where it was defined.
	Rollups map[string]*float64 `json:"rollups"`
}

func (s *QueryService) PlayerSeries(ctx context.Context, input PlayerSeriesInput) (PlayerSeriesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.PlayerSeries")
	defer span.End()

	playerID := strings.TrimSpace(input.PlayerID)
	if playerID == "" {
		return PlayerSeriesResult{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if input.HomeAway != "" && input.HomeAway != "home" && input.HomeAway != "away" {
		return PlayerSeriesResult{}, fmt.Errorf("%w: home_away must be home or away", ErrInvalidInput)
	}

	if season := strings.TrimSpace(input.Season); season != "" {
		if input.DateFrom != nil || input.DateTo != nil {
			return PlayerSeriesResult{}, fmt.Errorf("%w: season cannot be combined with date_from or date_to", ErrInvalidInput)
		}
		from, to, err := seasonRange(season)
		if err != nil {
			return PlayerSeriesResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		input.DateFrom, input.DateTo = &from, &to
	}

	items, _, err := s.records.List(ctx, stats.Filter{
		PlayerID: playerID,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
	})
	if err != nil {
		return PlayerSeriesResult{}, fmt.Errorf("%w: list player records: %v", ErrDependencyUnavailable, err)
	}
	if len(items) == 0 {
		return PlayerSeriesResult{}, fmt.Errorf("%w: no records for player %s", ErrNotFound, playerID)
	}

	filtered := make([]stats.Record, 0, len(items))
	for _, item := range items {
		if input.HomeAway != "" || input.VsTeam != "" {
			g, ok, err := s.games.GetByID(ctx, item.GameID)
			if err != nil || !ok {
				continue
			}
			if input.HomeAway == "home" && g.HomeTeamID != item.TeamID {
				continue
			}
			if input.HomeAway == "away" && g.AwayTeamID != item.TeamID {
				continue
			}
			if input.VsTeam != "" && opponentOf(g, item.TeamID) != input.VsTeam {
				continue
			}
		}
		filtered = append(filtered, item)
	}

	// Newest first, then trimmed to the requested window.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].GameDate.After(filtered[j].GameDate)
	})
	if input.LastN > 0 && input.LastN < len(filtered) {
		filtered = filtered[:input.LastN]
	}

	result := PlayerSeriesResult{
		PlayerID: playerID,
		Rollups:  rollupAverages(filtered),
	}
	for _, item := range filtered {
		result.Sport = item.Sport
		result.Games = append(result.Games, PlayerSeriesEntry{
			GameID:   item.GameID,
			GameDate: item.GameDate,
			Minutes:  item.MinutesPlayed,
			Metrics:  item.Metrics,
		})
	}

	return result, nil
}

type GameBoardInput struct {
	GameID string
	// Team narrows to "home" or "away"; empty means both.
	Team       string
	Position   string
	MinMinutes float64
}

type TeamAggregate struct {
	TeamID        string             `json:"team_id"`
	Players       int                `json:"players"`
	FantasyPoints float64            `json:"fantasy_points"`
	Totals        map[string]float64 `json:"totals"`
}

type GameBoardResult struct {
	Game          game.Game         `json:"game"`
	Players       []stats.Record    `json:"players"`
	Teams         []TeamAggregate   `json:"teams"`
	KeyPerformers []stats.MetricSet `json:"key_performers"`
}

func (s *QueryService) GameBoard(ctx context.Context, input GameBoardInput) (GameBoardResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.GameBoard")
	defer span.End()

	gameID := strings.TrimSpace(input.GameID)
	if gameID == "" {
		return GameBoardResult{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if input.Team != "" && input.Team != "home" && input.Team != "away" {
		return GameBoardResult{}, fmt.Errorf("%w: team must be home or away", ErrInvalidInput)
	}

	g, found, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return GameBoardResult{}, fmt.Errorf("%w: get game: %v", ErrDependencyUnavailable, err)
	}
	if !found {
		return GameBoardResult{}, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}

	items, _, err := s.records.List(ctx, stats.Filter{GameID: gameID})
	if err != nil {
		return GameBoardResult{}, fmt.Errorf("%w: list game records: %v", ErrDependencyUnavailable, err)
	}

	result := GameBoardResult{Game: g, Players: []stats.Record{}}
	aggregates := make(map[string]*TeamAggregate)

	for _, item := range items {
		if input.Team == "home" && item.TeamID != g.HomeTeamID {
			continue
		}
		if input.Team == "away" && item.TeamID != g.AwayTeamID {
			continue
		}
		if input.MinMinutes > 0 && item.MinutesPlayed < input.MinMinutes {
			continue
		}
		if input.Position != "" && !matchesPosition(item, input.Position) {
			continue
		}

		result.Players = append(result.Players, item)

		agg, ok := aggregates[item.TeamID]
		if !ok {
			agg = &TeamAggregate{TeamID: item.TeamID, Totals: make(map[string]float64)}
			aggregates[item.TeamID] = agg
		}
		agg.Players++
		for field, value := range item.Canonical {
			agg.Totals[field] += value
		}
		if fp := item.Metrics["fantasy_points"]; fp != nil {
			agg.FantasyPoints += *fp
		}
	}

	for _, agg := range aggregates {
		result.Teams = append(result.Teams, *agg)
	}
	sort.Slice(result.Teams, func(i, j int) bool {
		return result.Teams[i].TeamID < result.Teams[j].TeamID
	})

	result.KeyPerformers = keyPerformers(result.Players, 3)

	return result, nil
}

type HealthResult struct {
	Status          string              `json:"status"`
	Checks          map[string]string   `json:"checks"`
	MetricsCoverage map[string][]string `json:"metrics_coverage"`
}

// Health probes storage with a minimal read and reports per-sport metric
// coverage from the strategy registry and dialect tables.
func (s *QueryService) Health(ctx context.Context) HealthResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Health")
	defer span.End()

	result := HealthResult{
		Status: "ok",
		Checks: map[string]string{
			"storage": "ok",
			"cache":   "ok",
		},
		MetricsCoverage: make(map[string][]string),
	}

	if _, _, err := s.records.List(ctx, stats.Filter{Limit: 1}); err != nil {
		result.Status = "degraded"
		result.Checks["storage"] = err.Error()
	}

	probeKey := "health:probe"
	s.cache.Set(ctx, probeKey, "ok", basecache.TierStandard)
	if _, ok := s.cache.Get(ctx, probeKey); !ok {
		result.Status = "degraded"
		result.Checks["cache"] = "probe write not readable"
	}

	for _, sport := range s.registry.Sports() {
		result.MetricsCoverage[sport] = s.metricNames(sport)
	}

	return result
}

func (s *QueryService) metricNames(sport string) []string {
	set, err := s.registry.Compute(stats.NormalizedRecord{
		Sport:  sport,
		Fields: map[string]float64{},
	}, time.Time{})
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(set.Metrics))
	for name := range set.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func selectMetrics(set stats.MetricSet, names []string) stats.MetricSet {
	if len(names) == 0 {
		return set
	}

	selected := make(map[string]*float64, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if value, ok := set.Metrics[name]; ok {
			selected[name] = value
		}
	}
	set.Metrics = selected
	return set
}

func rollupAverages(items []stats.Record) map[string]*float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, item := range items {
		for name, value := range item.Metrics {
			if value == nil {
				continue
			}
			sums[name] += *value
			counts[name]++
		}
	}

	out := make(map[string]*float64, len(sums))
	for name, sum := range sums {
		avg := sum / float64(counts[name])
		out[name] = &avg
	}
	return out
}

func keyPerformers(players []stats.Record, top int) []stats.MetricSet {
	ranked := make([]stats.Record, 0, len(players))
	for _, p := range players {
		if p.Metrics["fantasy_points"] != nil {
			ranked = append(ranked, p)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return *ranked[i].Metrics["fantasy_points"] > *ranked[j].Metrics["fantasy_points"]
	})
	if top < len(ranked) {
		ranked = ranked[:top]
	}

	out := make([]stats.MetricSet, 0, len(ranked))
	for _, p := range ranked {
		out = append(out, p.MetricSet())
	}
	return out
}

func matchesPosition(item stats.Record, position string) bool {
	raw, ok := item.Raw["position"]
	if !ok {
		return false
	}
	text, ok := raw.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(text), position)
}

// seasonRange maps a season label onto game-date bounds. A plain year covers
// that calendar year; a cross-year label like "2025-26" covers July 1 of the
// first year through June 30 of the second, matching how the winter leagues
// straddle the year boundary.
func seasonRange(label string) (time.Time, time.Time, error) {
	first, second, crossYear := strings.Cut(label, "-")

	startYear, err := strconv.Atoi(first)
	if err != nil || startYear < 1900 || startYear > 2200 {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed season %q", label)
	}

	if !crossYear {
		from := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0).Add(-time.Second), nil
	}

	endYear, err := strconv.Atoi(second)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed season %q", label)
	}
	if endYear < 100 {
		endYear += (startYear / 100) * 100
		if endYear < startYear {
			endYear += 100
		}
	}
	if endYear != startYear+1 {
		return time.Time{}, time.Time{}, fmt.Errorf("season %q must span consecutive years", label)
	}

	from := time.Date(startYear, time.July, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0).Add(-time.Second), nil
}

func opponentOf(g game.Game, teamID string) string {
	if g.HomeTeamID == teamID {
		return g.AwayTeamID
	}
	if g.AwayTeamID == teamID {
		return g.HomeTeamID
	}
	return ""
}
