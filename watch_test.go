package haystack_solr

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"
)

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "buildout.yml")
	other := filepath.Join(dir, "unrelated.txt")
	writeFile(t, config, "buildout: {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var changes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{config}, pslog.NoopLogger(), func() { changes.Add(1) })
	}()

	// Unrelated files in the watched directory don't trigger an update.
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
	time.Sleep(2 * watchDebounce)
	assert.Equal(t, int32(0), changes.Load())

	// The watcher may not be registered yet, so keep writing until it fires.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(config, []byte("buildout: {parts: solr}\n"), 0644)
		return changes.Load() > 0
	}, 5*time.Second, 2*watchDebounce)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFiles did not return after cancel")
	}
}

func TestWatchFiles_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "buildout.yml")

	err := watchFiles(context.Background(), []string{missing}, pslog.NoopLogger(), func() {})

	assert.ErrorContains(t, err, "watch")
}
