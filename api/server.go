// Package api exposes the hypothesis test orchestrators over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hierarchstats/internal"
	"hierarchstats/internal/config"
	"hierarchstats/ports"
)

// Server wires the chi router, the test defaults and the optional result
// repository. A nil repository disables persistence; tests still run.
type Server struct {
	router   *chi.Mux
	repo     ports.ResultRepository
	defaults config.TestDefaults
	log      *internal.Logger
}

// NewServer builds the HTTP server.
func NewServer(repo ports.ResultRepository, defaults config.TestDefaults, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   chi.NewRouter(),
		repo:     repo,
		defaults: defaults,
		log:      logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/tests", s.handleRunTest)
		r.Post("/multitests", s.handleRunMultiTest)
		r.Get("/results", s.handleListResults)
		r.Get("/results/{id}", s.handleGetResult)
		r.Get("/reports/{id}", s.handleGetReport)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
