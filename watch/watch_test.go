package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	calls := map[string]int{}
	seen := make(chan struct{}, 8)

	done := make(chan Stats, 1)
	go func() {
		stats, err := Run(ctx, dir, Options{
			Debounce: 50 * time.Millisecond,
			Filter:   func(p string) bool { return strings.HasSuffix(p, ".yaml") },
		}, func(_ context.Context, path string) {
			mu.Lock()
			calls[filepath.Base(path)]++
			mu.Unlock()
			seen <- struct{}{}
		})
		assert.NoError(t, err)
		done <- stats
	}()

	// 等待监听器就绪
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(dir, "git.yaml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("filename: git\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}
	// give a second (unwanted) run the chance to happen
	time.Sleep(200 * time.Millisecond)
	cancel()
	stats := <-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"git.yaml": 1}, calls)
	assert.Equal(t, 1, stats.Runs)
	assert.GreaterOrEqual(t, stats.Events, 1)
}

func TestRunRequiresCallback(t *testing.T) {
	_, err := Run(context.Background(), t.TempDir(), Options{}, nil)
	require.Error(t, err)
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{}, func(context.Context, string) {})
	require.Error(t, err)
}
