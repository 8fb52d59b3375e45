// Package main provides the standalone cube response daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/config"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/respond"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/server"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/source"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/websearch"
	"github.com/AdiBot-max/Cube-AI-Trained/web"
)

func main() {
	// Parse flags
	corpusPath := flag.String("corpus", "", "corpus file path (overrides CUBE_CORPUS_PATH and selects the file source)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.CorpusSource = config.SourceFile
		cfg.CorpusPath = *corpusPath
	}

	// Initialize logging
	logger, logClose := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		if err := logClose(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	slog.Info("starting cube-server", "addr", cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New()

	src, err := source.FromConfig(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to init corpus source", "error", err)
		os.Exit(1)
	}

	// An empty store still serves; the watcher or /api/reload can bring
	// the corpus in later.
	if data, err := src.Load(ctx); err != nil {
		slog.Error("initial corpus load failed, serving empty corpus",
			"source", src.Describe(), "error", err)
	} else if err := st.Reload(data); err != nil {
		slog.Error("initial corpus rejected, serving empty corpus",
			"source", src.Describe(), "error", err)
	} else {
		info := st.Info()
		slog.Info("corpus loaded",
			"source", src.Describe(),
			"intents", info.Intents,
			"transitions", info.Transitions)
	}

	collector := metrics.NewCollector()

	var history *transcript.Store
	if cfg.TranscriptDB != "" {
		history, err = transcript.Open(cfg.TranscriptDB)
		if err != nil {
			slog.Warn("transcript disabled", "path", cfg.TranscriptDB, "error", err)
			history = nil
		} else {
			defer func() {
				if err := history.Close(); err != nil {
					slog.Error("failed to close transcript", "error", err)
				}
			}()
		}
	}

	responder := respond.New(st, respond.Config{
		DefaultMaxTokens: cfg.DefaultMaxTokens,
		TokenCap:         cfg.TokenCap,
		Metrics:          collector,
		History:          history,
		Logger:           logger,
	})

	// Serve the embedded chat page from web/static
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		slog.Error("failed to load embedded assets", "error", err)
		os.Exit(1)
	}

	srv := server.New(server.Options{
		Store:     st,
		Responder: responder,
		Metrics:   collector,
		Config:    cfg,
		Source:    src,
		Search: websearch.New(websearch.Options{
			UserAgent:  cfg.SearchUserAgent,
			MaxResults: cfg.SearchResults,
			Logger:     logger,
		}),
		History: history,
		Static:  static,
		Logger:  logger,
	})

	slog.Info("Web UI available", "url", fmt.Sprintf("http://localhost%s/", cfg.ListenAddr))

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
