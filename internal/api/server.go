package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/tocmerge/internal/config"
	"github.com/dgallion1/tocmerge/internal/pipeline"
	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for tocmerge.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	store  *session.Store
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(runner *pipeline.Runner, store *session.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		runner: runner,
		store:  store,
		log:    log,
		cfg:    cfg,
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

	// Browser form.
	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleFormUpload)
	r.Get("/s/{sessionID}", s.handleSessionPage)

	r.Route("/api", func(r chi.Router) {
		r.Post("/merge", s.handleMerge)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/files/{index}", s.handleSessionFile)
			r.Post("/merge", s.handleSessionMerge)
		})

		r.Get("/stats/merge", s.handleMergeStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
