package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/doctimeline/internal/config"
	"github.com/dgallion1/doctimeline/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for doctimeline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	project      *pipeline.Project
	metrics      http.Handler
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. metricsHandler may be
// nil, in which case /metrics is not served.
func NewServer(orch *pipeline.Orchestrator, metricsHandler http.Handler, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		project:      orch.Project(),
		metrics:      metricsHandler,
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// Authenticated endpoints. Reads accept either key.
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.cfg.APIKey, s.cfg.ReadAPIKey, s.log))

		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats/resolve", s.handleResolveStats)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}/timeline", s.handleTimeline)
		r.Get("/api/chunks/{ref}/table", s.handleChunkTable)

		r.Group(func(r chi.Router) {
			r.Use(RequireWrite)

			r.Post("/api/ingest", s.handleIngest)
			r.Post("/api/ingest/batch", s.handleBatchIngest)
			r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
