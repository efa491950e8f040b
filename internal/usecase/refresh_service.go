package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/statforge/statengine/internal/platform/logging"
)

// CacheInvalidator drops cached entries for a game so a forced recompute is
// observed immediately instead of after TTL expiry.
type CacheInvalidator interface {
	InvalidateGame(ctx context.Context, gameID string, playerIDs []string)
}

// RefreshService handles out-of-band recompute requests from the API. A
// forced refresh bypasses the fingerprint skip and invalidates cached reads;
// the fresh sets are returned synchronously with their new computed_at.
type RefreshService struct {
	pipeline    *PipelineService
	invalidator CacheInvalidator
	logger      *logging.Logger
}

func NewRefreshService(pipeline *PipelineService, invalidator CacheInvalidator, logger *logging.Logger) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		pipeline:    pipeline,
		invalidator: invalidator,
		logger:      logger,
	}
}

type RefreshInput struct {
	GameID    string
	PlayerIDs []string
	Force     bool
}

func (s *RefreshService) Refresh(ctx context.Context, input RefreshInput) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Refresh")
	defer span.End()

	input.GameID = strings.TrimSpace(input.GameID)
	playerIDs := make([]string, 0, len(input.PlayerIDs))
	for _, id := range input.PlayerIDs {
		if id = strings.TrimSpace(id); id != "" {
			playerIDs = append(playerIDs, id)
		}
	}

	if input.GameID == "" && len(playerIDs) == 0 {
		return BatchResult{}, fmt.Errorf("%w: game_id or player_ids is required", ErrInvalidInput)
	}

	if input.Force && s.invalidator != nil {
		s.invalidator.InvalidateGame(ctx, input.GameID, playerIDs)
	}

	var result BatchResult
	var err error
	if input.GameID != "" {
		result, err = s.pipeline.RecomputeGame(ctx, input.GameID, playerIDs, input.Force)
	} else {
		result, err = s.pipeline.RecomputePlayers(ctx, playerIDs, input.Force)
	}
	if err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "forced refresh completed",
		"game_id", input.GameID,
		"players", len(playerIDs),
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}
