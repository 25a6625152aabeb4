// Package server exposes the scheduler and scoring operations over a JSON
// HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/certprep/internal/cache"
	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/readiness"
	"github.com/abhisek/certprep/internal/selector"
	"github.com/abhisek/certprep/internal/store"
)

// Deps are the collaborators a Server needs. Catalog and Attempts are
// required; the rest fall back to defaults.
type Deps struct {
	Catalog   *catalog.Catalog
	Concepts  passprob.ConceptResolver
	Attempts  store.AttemptRepo
	Cache     cache.Store
	Readiness *readiness.Aggregator
	PassProb  *passprob.Estimator
	Selector  *selector.Selector
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server serves the certprep API.
type Server struct {
	deps Deps
	opts Options

	// selMu guards deps.Selector, whose random source is not goroutine safe.
	selMu sync.Mutex

	router chi.Router
}

// New wires the router.
func New(deps Deps, opts Options) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if deps.Attempts == nil {
		return nil, errors.New("server: attempt repository is required")
	}
	if deps.Concepts == nil {
		deps.Concepts = deps.Catalog
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Readiness == nil {
		deps.Readiness = readiness.New(readiness.Config{ModuleOrder: deps.Catalog.ModuleOrder()})
	}
	if deps.PassProb == nil {
		deps.PassProb = passprob.New(passprob.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Selector == nil {
		deps.Selector = selector.New(selector.Config{Now: deps.Now})
	}
	if deps.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		deps.Logger = l
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	s := &Server{deps: deps, opts: opts}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.deps.Logger), middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/modules", s.handleModules)
		r.Get("/modules/{moduleID}/questions", s.handleModuleQuestions)
		r.Get("/strength", s.handleStrength)
		r.Post("/drill/next", s.handleDrillNext)

		r.Route("/learners/{learnerID}", func(r chi.Router) {
			r.Get("/readiness", s.handleReadiness)
			r.Get("/pass-probability", s.handlePassProbability)
			r.Post("/practice", s.handleRecordPractice)
			r.Post("/tests", s.handleRecordTest)
			r.Post("/lessons", s.handleRecordLesson)
			r.Post("/concepts", s.handleRecordConcepts)
		})
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.deps.Logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
