// Package server exposes live diagram sessions over HTTP.
//
// Each session owns a size registry and a relayout orchestrator. Clients
// post a schema, report the rendered size of every table box and read back
// the positioned diagram:
//
//	POST   /sessions                   create a session, body: schema JSON
//	GET    /sessions/{id}/diagram      current diagram (?format=svg|png|dot|json)
//	PUT    /sessions/{id}/schema       replace the schema
//	POST   /sessions/{id}/sizes        {"nodeId","width","height"} or a list of them
//	POST   /sessions/{id}/highlights   {"edges":[...]} or {"field":"<fieldId>"}
//	DELETE /sessions/{id}/highlights   clear, or remove {"edges":[...]}
//	DELETE /sessions/{id}              close the session
//
// Requests that change the diagram answer with the diagram after the
// relayout they caused. All sizes of one request join a single build.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/session"
)

// Defaults of Config.
const (
	DefaultAddr            = ":8080"
	DefaultCleanupInterval = time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr            string
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration

	// Options are used by every session.
	Options pipeline.Options

	// Snapshots, when set, restores sessions on start and saves them on
	// shutdown.
	Snapshots *session.FileStore

	Logger *log.Logger
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	store  *session.MemoryStore
	logger *log.Logger
	router chi.Router
}

// New creates a server. Options are validated once here so that session
// creation cannot fail on configuration.
func New(runner *pipeline.Runner, cfg Config) (*Server, error) {
	cfg.setDefaults()
	if cfg.Options.Logger == nil {
		cfg.Options.Logger = cfg.Logger
	}
	if err := cfg.Options.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  session.NewMemoryStore(cfg.IdleTTL),
		logger: cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Store returns the live sessions.
func (s *Server) Store() *session.MemoryStore { return s.store }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDelete)
			r.Get("/diagram", s.handleDiagram)
			r.Put("/schema", s.handleSchema)
			r.Post("/sizes", s.handleSizes)
			r.Post("/highlights", s.handleHighlight)
			r.Delete("/highlights", s.handleUnhighlight)
		})
	})
	return r
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
// Idle sessions are evicted every cleanup interval.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.restore(ctx); err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.cleanupLoop(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if serr := s.save(context.Background()); serr != nil && err == nil {
		err = serr
	}
	s.store.Close()
	return err
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info("evicted idle sessions", "count", n, "remaining", s.store.Len())
			}
		}
	}
}

// restore loads every snapshot into the live store.
func (s *Server) restore(ctx context.Context) error {
	if s.cfg.Snapshots == nil {
		return nil
	}
	snaps, err := s.cfg.Snapshots.List(ctx)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		sess, err := session.Restore(snap, s.runner, s.cfg.Options)
		if err != nil {
			s.logger.Warn("skipping session snapshot", "session", snap.ID, "err", err)
			continue
		}
		_ = s.store.Set(ctx, sess)
	}
	if len(snaps) > 0 {
		s.logger.Info("restored sessions", "count", s.store.Len(), "dir", s.cfg.Snapshots.Path())
	}
	return nil
}

// save writes a snapshot of every live session and removes the snapshots
// of sessions that were deleted or evicted.
func (s *Server) save(ctx context.Context) error {
	if s.cfg.Snapshots == nil {
		return nil
	}
	live := make(map[string]bool)
	var errs []error
	for _, sess := range s.store.All() {
		live[sess.ID] = true
		if err := s.cfg.Snapshots.Save(ctx, sess.Snapshot()); err != nil {
			errs = append(errs, err)
		}
	}
	stale, err := s.cfg.Snapshots.List(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, snap := range stale {
		if !live[snap.ID] {
			if err := s.cfg.Snapshots.Delete(ctx, snap.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(errors.ErrCodeInternal, stderrors.Join(errs...), "save session snapshots")
	}
	s.logger.Debug("saved sessions", "count", s.store.Len())
	return nil
}
