package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cataloghq/semsearch/application/service"
	"github.com/cataloghq/semsearch/infrastructure/api/middleware"
	"github.com/cataloghq/semsearch/infrastructure/api/v1/dto"
)

// SyncRouter handles the embedding sync endpoint.
type SyncRouter struct {
	sync   *service.Sync
	logger *slog.Logger
}

// NewSyncRouter creates a new SyncRouter.
func NewSyncRouter(sync *service.Sync, logger *slog.Logger) *SyncRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncRouter{
		sync:   sync,
		logger: logger,
	}
}

// Routes returns the chi router for sync endpoints.
func (r *SyncRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Sync)
	return router
}

// Sync handles POST /api/v1/sync. The run executes synchronously; large
// catalogs should use the CLI sync command instead.
func (r *SyncRouter) Sync(w http.ResponseWriter, req *http.Request) {
	report, err := r.sync.Run(req.Context())
	if err != nil {
		middleware.WriteError(w, req,
			middleware.NewAPIError(http.StatusServiceUnavailable, "embedding sync failed", err), r.logger)
		return
	}

	failures := report.Failures()
	body := dto.SyncResponse{
		Processed: report.Processed(),
		Skipped:   report.Skipped(),
	}
	for _, f := range failures {
		body.Failures = append(body.Failures, dto.SyncFailure{
			ProductID: f.ProductID(),
			Error:     f.Err().Error(),
		})
	}

	status := http.StatusOK
	if report.HasFailures() {
		status = http.StatusMultiStatus
	}
	middleware.WriteJSON(w, status, body)
}
