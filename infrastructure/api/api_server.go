package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cataloghq/semsearch/application/service"
	"github.com/cataloghq/semsearch/domain/search"
	apimiddleware "github.com/cataloghq/semsearch/infrastructure/api/middleware"
	v1 "github.com/cataloghq/semsearch/infrastructure/api/v1"
	"github.com/cataloghq/semsearch/infrastructure/api/v1/dto"
	"github.com/cataloghq/semsearch/internal/database"
)

// readyReporter is implemented by embedders whose model readiness can be
// observed, such as the local model cache. Remote embedders report ready.
type readyReporter interface {
	Ready() bool
}

// APIServer wires the search and sync services into an HTTP API.
type APIServer struct {
	searcher   *service.Searcher
	sync       *service.Sync
	db         database.Database
	vectors    search.VectorStore
	embedder   search.Embedder
	server     *Server
	searchOpts []v1.SearchRouterOption
	reqTimeout time.Duration
	logger     *slog.Logger
}

// APIServerOption is a functional option for APIServer.
type APIServerOption func(*APIServer)

// WithRequestTimeout bounds how long a single API request may run. It
// covers both the per-route deadline and the connection write timeout.
func WithRequestTimeout(d time.Duration) APIServerOption {
	return func(a *APIServer) {
		if d > 0 {
			a.reqTimeout = d
		}
	}
}

// WithSearchDefaults sets the limit and threshold applied to search
// requests that omit them.
func WithSearchDefaults(limit int, threshold float64) APIServerOption {
	return func(a *APIServer) {
		a.searchOpts = []v1.SearchRouterOption{
			v1.WithDefaultLimit(limit),
			v1.WithDefaultThreshold(threshold),
		}
	}
}

// NewAPIServer creates a new APIServer.
func NewAPIServer(
	searcher *service.Searcher,
	sync *service.Sync,
	db database.Database,
	vectors search.VectorStore,
	embedder search.Embedder,
	logger *slog.Logger,
	opts ...APIServerOption,
) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &APIServer{
		searcher:   searcher,
		sync:       sync,
		db:         db,
		vectors:    vectors,
		embedder:   embedder,
		reqTimeout: defaultWriteTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// mountRoutes wires up all routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(apimiddleware.Logging(a.logger))

	router.Get("/healthz", a.Health)

	searchRouter := v1.NewSearchRouter(a.searcher, a.logger, a.searchOpts...)
	syncRouter := v1.NewSyncRouter(a.sync, a.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(a.reqTimeout))
		r.Mount("/search", searchRouter.Routes())
		r.Mount("/sync", syncRouter.Routes())
	})
}

// Health handles GET /healthz. The endpoint reports degraded rather than
// failing: a dead vector store still returns 200 because keyword search
// keeps working without it.
func (a *APIServer) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbOK := a.pingDatabase(ctx)
	vectorsOK := a.vectors.Available(ctx)
	modelOK := true
	if rr, ok := a.embedder.(readyReporter); ok {
		modelOK = rr.Ready()
	}

	status := "ok"
	code := http.StatusOK
	if !dbOK {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else if !vectorsOK || !modelOK {
		status = "degraded"
	}

	apimiddleware.WriteJSON(w, code, dto.HealthResponse{
		Status:      status,
		Database:    dbOK,
		VectorStore: vectorsOK,
		ModelLoaded: modelOK,
	})
}

func (a *APIServer) pingDatabase(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	sqlDB, err := a.db.GORM().DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(pingCtx) == nil
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger, WithWriteTimeout(a.reqTimeout))
	a.server = &server
	a.mountRoutes(server.Router())
	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the full route tree as an http.Handler.
func (a *APIServer) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	a.mountRoutes(router)
	return router
}
