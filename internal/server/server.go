// Package server exposes the responder over HTTP and WebSocket, serves
// the embedded chat page, and keeps the corpus fresh via the configured
// source watcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/config"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/respond"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/source"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/websearch"
)

const shutdownTimeout = 10 * time.Second

// Options carries the server's dependencies. Store, Responder, Metrics
// and Config are required; the rest disable their feature when nil.
type Options struct {
	Store     *store.Store
	Responder *respond.Responder
	Metrics   *metrics.Collector
	Config    config.Config

	// Source backs /api/reload and, when Config.Watch is set, the
	// change watcher.
	Source source.Source

	// Search backs /api/search and /api/page.
	Search *websearch.Client

	// History backs /api/history and the transcript part of /api/stats.
	History *transcript.Store

	// Static is the embedded chat page. Nil disables the / routes.
	Static fs.FS

	Logger *slog.Logger
}

// Server wires the HTTP surface to the response pipeline.
type Server struct {
	store     *store.Store
	responder *respond.Responder
	metrics   *metrics.Collector
	cfg       config.Config
	source    source.Source
	search    *websearch.Client
	history   *transcript.Store
	static    fs.FS
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// New creates a server from its dependencies.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:     opts.Store,
		responder: opts.Responder,
		metrics:   opts.Metrics,
		cfg:       opts.Config,
		source:    opts.Source,
		search:    opts.Search,
		history:   opts.History,
		static:    opts.Static,
		logger:    logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(s.cfg.AllowedOrigins, origin)
		},
	}
	return s
}

// Handler builds the full route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/intents", s.handleIntents)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/page", s.handlePage)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /ws", s.handleWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	if s.static != nil {
		mux.HandleFunc("/", s.handleStatic())
	}

	var h http.Handler = mux
	h = RateLimitMiddleware(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)(h)
	h = CORSMiddleware(s.cfg.AllowedOrigins)(h)
	h = LoggingMiddleware(s.logger)(h)
	h = RequestIDMiddleware(h)
	return h
}

// handleStatic serves the embedded chat page, falling back to
// index.html for unknown paths so client-side routes keep working.
func (s *Server) handleStatic() http.HandlerFunc {
	fileServer := http.FileServer(http.FS(s.static))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			f, err := s.static.Open(r.URL.Path[1:])
			if errors.Is(err, fs.ErrNotExist) {
				r.URL.Path = "/"
			} else if err != nil {
				s.logger.Warn("unexpected error opening embedded file", "path", r.URL.Path, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			} else {
				f.Close()
			}
		}
		fileServer.ServeHTTP(w, r)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. When
// watching is enabled the corpus source watcher shares the lifetime.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", "addr", s.cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if s.cfg.Watch && s.source != nil {
		g.Go(func() error {
			return s.source.Watch(ctx, func() {
				s.reloadFromSource(ctx)
			})
		})
	}

	return g.Wait()
}

// reloadFromSource loads the corpus and swaps it in. Failures keep the
// previous snapshot live.
func (s *Server) reloadFromSource(ctx context.Context) {
	start := time.Now()

	data, err := s.source.Load(ctx)
	if err != nil {
		s.metrics.RecordError(metrics.OpReload)
		s.logger.Warn("corpus load failed, keeping previous snapshot",
			"source", s.source.Describe(), "error", err)
		return
	}
	if err := s.store.Reload(data); err != nil {
		s.metrics.RecordError(metrics.OpReload)
		s.logger.Warn("corpus reload failed, keeping previous snapshot",
			"source", s.source.Describe(), "error", err)
		return
	}

	s.metrics.RecordTiming(metrics.OpReload, time.Since(start))
	info := s.store.Info()
	s.logger.Info("corpus reloaded",
		"source", s.source.Describe(),
		"intents", info.Intents,
		"transitions", info.Transitions)
}
