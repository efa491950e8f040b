package httpapi

import (
	"net/http"

	"github.com/statforge/statengine/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	metricsHandler http.Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /ws", handler.ServeWs)

	mux.HandleFunc("GET /stats", handler.ListStats)
	mux.HandleFunc("GET /stats/players/{id}", handler.GetPlayerSeries)
	mux.HandleFunc("GET /stats/games/{id}", handler.GetGameBoard)
	mux.HandleFunc("POST /stats", handler.RefreshStats)
	mux.HandleFunc("POST /stats/games/{id}/refresh", handler.RefreshGame)
	mux.HandleFunc("POST /ingest", handler.Ingest)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
