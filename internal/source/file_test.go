package source

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startWatch runs Watch in the background and returns a change counter
// plus the Watch error once ctx ends.
func startWatch(ctx context.Context, src *FileSource) (*atomic.Int64, chan error) {
	var changes atomic.Int64
	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Watch(ctx, func() { changes.Add(1) })
	}()
	return &changes, errCh
}

func waitForChanges(t *testing.T, changes *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if changes.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("saw %d changes, want at least %d", changes.Load(), want)
}

func TestFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intents": {}}`), 0644))

	src := NewFile(path, discardLogger())
	data, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"intents": {}}`, string(data))
}

func TestFileLoadMissing(t *testing.T) {
	src := NewFile(filepath.Join(t.TempDir(), "absent.json"), discardLogger())
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestFileWatchDetectsWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	src := NewFile(path, discardLogger()).WithDebounce(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	changes, errCh := startWatch(ctx, src)

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"intents": {}}`), 0644))

	waitForChanges(t, changes, 1)
	cancel()
	require.NoError(t, <-errCh)
}

func TestFileWatchSurvivesRenameReplace(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	src := NewFile(path, discardLogger()).WithDebounce(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	changes, errCh := startWatch(ctx, src)

	time.Sleep(100 * time.Millisecond)

	// Atomic replace, the way editors and deploy scripts update files.
	tmp := filepath.Join(dir, "corpus.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"intents": {}}`), 0644))
	require.NoError(t, os.Rename(tmp, path))

	waitForChanges(t, changes, 1)
	cancel()
	require.NoError(t, <-errCh)
}

func TestFileWatchCoalescesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	src := NewFile(path, discardLogger()).WithDebounce(150 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	changes, errCh := startWatch(ctx, src)

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"intents": {}}`), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	waitForChanges(t, changes, 1)
	// The burst settles into a single notification.
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int64(1), changes.Load())

	cancel()
	require.NoError(t, <-errCh)
}

func TestFileWatchIgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	src := NewFile(path, discardLogger()).WithDebounce(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	changes, errCh := startWatch(ctx, src)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, int64(0), changes.Load())
	cancel()
	require.NoError(t, <-errCh)
}

func TestFileDescribe(t *testing.T) {
	src := NewFile("/tmp/corpus.json", discardLogger())
	assert.Equal(t, "file:/tmp/corpus.json", src.Describe())
}
