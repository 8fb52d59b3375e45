// Package source loads corpus bytes from a backing location and signals
// when that location changes.
package source

import (
	"context"
	"log/slog"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/config"
)

// Source is a corpus location.
type Source interface {
	// Load fetches the current corpus bytes.
	Load(ctx context.Context) ([]byte, error)

	// Watch blocks until ctx is done, invoking onChange after the
	// backing corpus changes. Implementations coalesce bursts of
	// changes into a single call.
	Watch(ctx context.Context, onChange func()) error

	// Describe names the source for logs.
	Describe() string
}

// FromConfig builds the corpus source the configuration selects.
func FromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (Source, error) {
	switch cfg.CorpusSource {
	case config.SourceS3:
		return NewS3(ctx, S3Options{
			Bucket:       cfg.S3Bucket,
			Key:          cfg.S3Key,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PollInterval: cfg.PollInterval,
			Logger:       logger,
		})
	default:
		return NewFile(cfg.CorpusPath, logger), nil
	}
}
