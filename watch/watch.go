// Package watch re-runs generation for definition files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of editor writes into one run.
const DefaultDebounce = 250 * time.Millisecond

// Options configures Run.
type Options struct {
	Debounce time.Duration
	// Filter selects the paths that trigger fn; nil accepts every file.
	Filter func(path string) bool
	Logger *zap.Logger
}

// Stats counts watcher activity.
type Stats struct {
	Events int
	Runs   int
	Errors int
}

// Run watches dir and calls fn for every created or modified file once it
// has been quiet for the debounce interval. It blocks until ctx is cancelled
// and returns the collected stats.
func Run(ctx context.Context, dir string, opts Options, fn func(ctx context.Context, path string)) (Stats, error) {
	var stats Stats
	if fn == nil {
		return stats, fmt.Errorf("watch: 回调不能为空")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return stats, fmt.Errorf("watch: 创建监听器失败: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return stats, fmt.Errorf("watch: 监听目录 %s 失败: %w", dir, err)
	}
	log.Info("watching", zap.String("dir", dir), zap.Duration("debounce", debounce))

	pending := map[string]time.Time{}
	tick := debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return stats, nil

		case event, ok := <-w.Events:
			if !ok {
				return stats, nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if opts.Filter != nil && !opts.Filter(path) {
				continue
			}
			stats.Events++
			pending[path] = time.Now()
			log.Debug("change detected", zap.String("file", path), zap.String("op", event.Op.String()))

		case err, ok := <-w.Errors:
			if !ok {
				return stats, nil
			}
			stats.Errors++
			log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= debounce {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				stats.Runs++
				fn(ctx, path)
			}
		}
	}
}
