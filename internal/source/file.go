package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// defaultDebounce batches the event bursts editors produce on save.
	defaultDebounce = 500 * time.Millisecond
	// debounceTick is how often settled events are flushed.
	debounceTick = 100 * time.Millisecond
)

// FileSource reads the corpus from a local file and watches it with
// fsnotify.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewFile creates a file-backed source.
func NewFile(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		debounce: defaultDebounce,
		logger:   logger,
	}
}

// WithDebounce overrides the settle window. Tests use this to shorten
// waits.
func (f *FileSource) WithDebounce(d time.Duration) *FileSource {
	f.debounce = d
	return f
}

// Load reads the whole corpus file.
func (f *FileSource) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return data, nil
}

// Watch blocks until ctx is done, invoking onChange once per settled
// burst of writes. The parent directory is watched rather than the file
// itself: editors usually replace files by rename, which would
// otherwise detach the watch.
func (f *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	f.logger.Debug("watching corpus file", "path", f.path)

	base := filepath.Base(f.path)

	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()

	var pending bool
	var last time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = true
			last = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("corpus watcher error", "error", err)

		case <-ticker.C:
			if !pending || time.Since(last) < f.debounce {
				continue
			}
			pending = false
			// Remove/rename may leave no file behind; a replacement
			// will raise its own create event.
			if _, err := os.Stat(f.path); err != nil {
				continue
			}
			onChange()
		}
	}
}

// Describe names the source for logs.
func (f *FileSource) Describe() string {
	return "file:" + f.path
}
