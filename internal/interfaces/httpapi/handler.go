package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/statforge/statengine/internal/notifier"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/statforge/statengine/internal/usecase"
)

type Handler struct {
	queryService   *usecase.QueryService
	refreshService *usecase.RefreshService
	pipeline       *usecase.PipelineService
	hub            *notifier.Hub
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	queryService *usecase.QueryService,
	refreshService *usecase.RefreshService,
	pipeline *usecase.PipelineService,
	hub *notifier.Hub,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queryService:   queryService,
		refreshService: refreshService,
		pipeline:       pipeline,
		hub:            hub,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Health")
	defer span.End()

	result := h.queryService.Health(ctx)
	status := http.StatusOK
	if result.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, status, result)
}

func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	notifier.ServeWs(h.hub, w, r)
}

func queryInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return parsed, nil
}

func queryFloat(values url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", usecase.ErrInvalidInput, key)
	}
	return parsed, nil
}

func queryBool(values url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", usecase.ErrInvalidInput, key)
	}
	return parsed, nil
}

// queryTime accepts RFC3339 timestamps or bare dates.
func queryTime(values url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return &parsed, nil
	}
	return nil, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", usecase.ErrInvalidInput, key)
}

func queryCSV(values url.Values, key string) []string {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
