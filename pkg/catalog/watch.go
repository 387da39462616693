package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/watcher"
)

// ReloadFunc receives a freshly loaded catalog, or the error that stopped
// the reload. On error the previous catalog should stay in use.
type ReloadFunc func(c *Catalog, err error)

// WatchOptions tunes Watch.
type WatchOptions struct {
	Debounce     time.Duration
	PollInterval time.Duration
	ForcePoll    bool
}

// Watch reloads the catalog at path whenever it changes and hands the
// result to onReload. Callbacks run on the watcher's goroutine. Stop the
// returned watcher to end watching.
func Watch(ctx context.Context, path string, opts WatchOptions, onReload ReloadFunc) (*watcher.Watcher, error) {
	wopts := []watcher.WatcherOption{
		watcher.WithExtensions(Extensions...),
		watcher.WithForcePoll(opts.ForcePoll),
		watcher.WithOnChange(func() {
			c, err := Load(ctx, path)
			if err != nil {
				debug.Log("catalog: reload of %s failed: %v", path, err)
			} else {
				debug.Log("catalog: reloaded %s (%d pages)", path, c.Len())
			}
			onReload(c, err)
		}),
		watcher.WithOnError(func(err error) {
			debug.Log("catalog: watch %s: %v", path, err)
			if errors.Is(err, watcher.ErrFileRemoved) {
				onReload(nil, err)
			}
		}),
	}
	if opts.Debounce > 0 {
		wopts = append(wopts, watcher.WithDebounceDuration(opts.Debounce))
	}
	if opts.PollInterval > 0 {
		wopts = append(wopts, watcher.WithPollInterval(opts.PollInterval))
	}

	w, err := watcher.NewWatcher(path, wopts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
