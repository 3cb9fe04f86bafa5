// Package server exposes the curation engine as a JSON tool surface over HTTP.
//
// Every endpoint is a pure computation: callers send the tracks, rules, state and
// plans they already hold and receive plans, selections and decisions back. Nothing
// is executed against the catalog from here.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/planner"
	"github.com/toozej/curator/internal/playback"
	"github.com/toozej/curator/internal/playlist"
	"github.com/toozej/curator/internal/ports"
	"github.com/toozej/curator/internal/rules"
	"github.com/toozej/curator/internal/selection"
	"github.com/toozej/curator/pkg/config"
)

// Engine bundles the core services the handlers call.
type Engine struct {
	Builder  *playlist.Builder
	Planner  *planner.Planner
	Selector *selection.Selector
	Decider  *playback.Decider
}

// NewEngine wires the core services around one rules engine.
func NewEngine(random ports.RandomPort, clock ports.TimePort, logger *log.Logger) Engine {
	engine := rules.NewEngine(logger)
	p := planner.NewPlanner(engine, logger)
	return Engine{
		Builder:  playlist.NewBuilder(p, logger),
		Planner:  p,
		Selector: selection.NewSelector(engine, random, clock, logger),
		Decider:  playback.NewDecider(logger),
	}
}

// Server is the HTTP tool surface.
type Server struct {
	engine     Engine
	logger     *log.Logger
	metrics    *metrics
	router     chi.Router
	httpServer *http.Server
}

// New creates a server listening on cfg's address. timeout bounds each request.
func New(cfg config.ServerConfig, timeout time.Duration, engine Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &Server{
		engine:  engine,
		logger:  logger,
		metrics: newMetrics(),
	}
	s.router = s.routes(timeout)
	s.httpServer = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 5*time.Second,
	}
	return s
}

func (s *Server) routes(timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.metrics.middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/plans", s.handleCreatePlan)
		r.Post("/mutations", s.handleGenerateMutations)
		r.Post("/mutations/simulate", s.handleSimulateMutations)
		r.Post("/selections", s.handleSelectTracks)
		r.Post("/scores", s.handleScoreTracks)
		r.Post("/playback/decisions", s.handleDecidePlayback)
		r.Post("/library/diff", s.handleLibraryDiff)
	})

	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(log.Fields{
			"component": "server",
			"address":   s.httpServer.Addr,
		}).Info("Curator server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.WithField("component", "server").Info("Curator server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(log.Fields{
			"component":  "server",
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("Handled request")
	})
}
