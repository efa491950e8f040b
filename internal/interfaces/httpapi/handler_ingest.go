package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/statforge/statengine/internal/usecase"
)

type ingestRecordDTO struct {
	Sport    string         `json:"sport" validate:"required"`
	Source   string         `json:"source"`
	PlayerID string         `json:"player_id" validate:"required"`
	GameID   string         `json:"game_id" validate:"required"`
	TeamID   string         `json:"team_id"`
	Payload  map[string]any `json:"payload" validate:"required"`
}

type ingestRequestDTO struct {
	Records []ingestRecordDTO `json:"records" validate:"required,min=1,dive"`
}

// Ingest handles POST /ingest: the hand-off surface for the external
// collector. Each record runs the full normalize → compute → persist path;
// per-record failures are reported in the result, not as request errors.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Ingest")
	defer span.End()

	var payload ingestRequestDTO
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	raws := make([]stats.RawRecord, 0, len(payload.Records))
	for _, record := range payload.Records {
		raws = append(raws, stats.RawRecord{
			Sport:    record.Sport,
			Source:   record.Source,
			PlayerID: record.PlayerID,
			GameID:   record.GameID,
			TeamID:   record.TeamID,
			Payload:  record.Payload,
		})
	}

	result, err := h.pipeline.ProcessBatch(ctx, raws, false)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest failed", "records", len(raws), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, result)
}
