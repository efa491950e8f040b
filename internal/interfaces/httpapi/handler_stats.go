package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/statforge/statengine/internal/usecase"
)

func (h *Handler) ListStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStats")
	defer span.End()

	values := r.URL.Query()

	dateFrom, err := queryTime(values, "date_from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	dateTo, err := queryTime(values, "date_to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	live, err := queryBool(values, "live")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := queryInt(values, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	offset, err := queryInt(values, "offset")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.queryService.ListMetricSets(ctx, usecase.ListInput{
		Sport:    values.Get("sport"),
		TeamID:   values.Get("team"),
		PlayerID: values.Get("player"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		LiveOnly: live,
		Metrics:  queryCSV(values, "metrics"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccessWithMeta(ctx, w, http.StatusOK, result.Sets, metaBody{
		Total:       result.Total,
		Cached:      result.Cached,
		GeneratedAt: time.Now().UTC(),
	})
}

func (h *Handler) GetPlayerSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerSeries")
	defer span.End()

	values := r.URL.Query()

	dateFrom, err := queryTime(values, "date_from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	dateTo, err := queryTime(values, "date_to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	lastN, err := queryInt(values, "last_n_games")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.queryService.PlayerSeries(ctx, usecase.PlayerSeriesInput{
		PlayerID: r.PathValue("id"),
		Season:   values.Get("season"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		LastN:    lastN,
		HomeAway: values.Get("home_away"),
		VsTeam:   values.Get("vs_team"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "player series failed", "player_id", r.PathValue("id"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetGameBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameBoard")
	defer span.End()

	values := r.URL.Query()

	minMinutes, err := queryFloat(values, "min_minutes")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.queryService.GameBoard(ctx, usecase.GameBoardInput{
		GameID:     r.PathValue("id"),
		Team:       values.Get("team"),
		Position:   values.Get("position"),
		MinMinutes: minMinutes,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "game board failed", "game_id", r.PathValue("id"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type refreshRequestDTO struct {
	GameID    string   `json:"game_id" validate:"required_without=PlayerIDs"`
	PlayerIDs []string `json:"player_ids" validate:"required_without=GameID,dive,min=1"`
	Force     bool     `json:"force"`
}

// RefreshStats handles POST /stats: recompute by game id or player ids.
func (h *Handler) RefreshStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshStats")
	defer span.End()

	var payload refreshRequestDTO
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	h.runRefresh(ctx, w, usecase.RefreshInput{
		GameID:    payload.GameID,
		PlayerIDs: payload.PlayerIDs,
		Force:     payload.Force,
	})
}

type gameRefreshRequestDTO struct {
	PlayerIDs []string `json:"player_ids"`
	Force     bool     `json:"force"`
}

// RefreshGame handles POST /stats/games/{id}/refresh. The body is optional;
// an empty one means "all players, not forced".
func (h *Handler) RefreshGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshGame")
	defer span.End()

	var payload gameRefreshRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON body", usecase.ErrInvalidInput))
			return
		}
	}

	h.runRefresh(ctx, w, usecase.RefreshInput{
		GameID:    r.PathValue("id"),
		PlayerIDs: payload.PlayerIDs,
		Force:     payload.Force,
	})
}

func (h *Handler) runRefresh(ctx context.Context, w http.ResponseWriter, input usecase.RefreshInput) {
	result, err := h.refreshService.Refresh(ctx, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh failed", "game_id", input.GameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
