package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jfarrand/coursechunk/internal/config"
	"github.com/jfarrand/coursechunk/internal/pipeline"
)

// Server is the HTTP surface of the batch-upload layer. It is thin
// glue: request plumbing around the pipeline's status contract.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config

	// baseCtx parents job contexts so conversion outlives the upload
	// request. It is cancelled only on server shutdown.
	baseCtx context.Context
}

// NewServer creates and configures the HTTP server.
func NewServer(baseCtx context.Context, orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		baseCtx:      baseCtx,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/batches", s.handleCreateBatch)
		r.Get("/api/batches/{jobID}", s.handleBatchStatus)
		r.Post("/api/batches/{jobID}/cancel", s.handleCancelBatch)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
