package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/respond"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/server"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/source"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/websearch"
	"github.com/AdiBot-max/Cube-AI-Trained/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cube server",
	Long: `Start the HTTP/WebSocket server: the chat page, the JSON API and the
corpus watcher. Configuration comes from CUBE_* environment variables
or the YAML file named by CUBE_CONFIG.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New()

	src, err := source.FromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init corpus source: %w", err)
	}

	// An empty store still serves; the watcher or /api/reload can bring
	// the corpus in later.
	if data, err := src.Load(ctx); err != nil {
		logger.Error("initial corpus load failed, serving empty corpus",
			"source", src.Describe(), "error", err)
	} else if err := st.Reload(data); err != nil {
		logger.Error("initial corpus rejected, serving empty corpus",
			"source", src.Describe(), "error", err)
	} else {
		info := st.Info()
		logger.Info("corpus loaded",
			"source", src.Describe(),
			"intents", info.Intents,
			"transitions", info.Transitions)
	}

	collector := metrics.NewCollector()

	var history *transcript.Store
	if cfg.TranscriptDB != "" {
		history, err = transcript.Open(cfg.TranscriptDB)
		if err != nil {
			logger.Warn("transcript disabled", "path", cfg.TranscriptDB, "error", err)
			history = nil
		} else {
			defer history.Close()
		}
	}

	responder := respond.New(st, respond.Config{
		DefaultMaxTokens: cfg.DefaultMaxTokens,
		TokenCap:         cfg.TokenCap,
		Metrics:          collector,
		History:          history,
		Logger:           logger,
	})

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("embedded assets: %w", err)
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

	return srv.Run(ctx)
}
