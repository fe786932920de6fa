// Package watch re-cleans a changelog whenever it changes on disk.
//
// Release tooling usually regenerates CHANGELOG.md from commit history; with
// a watcher running, the internal entries it adds are stripped again right
// after each write.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bimmerbailey/chlog/internal/changelog"
	"github.com/bimmerbailey/chlog/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultReappearTimeout bounds the wait for a replaced file to come back.
const DefaultReappearTimeout = 10 * time.Second

// Cleaner is the part of changelog.Cleaner the watcher needs.
type Cleaner interface {
	Clean(ctx context.Context, path string) (changelog.Result, error)
}

// Options configures the watcher behavior.
type Options struct {
	FilePath        string                       // Path to the changelog
	ReappearTimeout time.Duration                // Wait for a removed/renamed file to reappear
	OnResult        func(changelog.Result) error // Called after every clean pass
	OnError         func(path string, err error) // Called for non-fatal clean errors; nil ignores them
}

// Watcher re-runs a Cleaner on every change to a file.
type Watcher struct {
	opts    Options
	cleaner Cleaner
	watcher *fsnotify.Watcher
}

// New creates a new Watcher.
func New(cleaner Cleaner, opts Options) *Watcher {
	if opts.ReappearTimeout <= 0 {
		opts.ReappearTimeout = DefaultReappearTimeout
	}
	return &Watcher{opts: opts, cleaner: cleaner}
}

// Run cleans the file once, then watches it. It blocks until ctx is
// cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.clean(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	w.watcher = watcher
	defer watcher.Close()

	if err := watcher.Add(w.opts.FilePath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.FilePath, err)
	}

	logging.Get(ctx).Info().Str("path", w.opts.FilePath).Msg("watching changelog")

	return w.watch(ctx)
}

// watch monitors the file for changes.
func (w *Watcher) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}

			if err := w.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a file system event.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) error {
	logging.Get(ctx).Debug().Str("event", event.Op.String()).Str("path", event.Name).Msg("file event")

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		return w.cleanSoft(ctx)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// Editors and generators often replace the file instead of writing in place
		if err := w.waitForFile(ctx); err != nil {
			return err
		}
		return w.cleanSoft(ctx)
	}

	// Chmod
	return nil
}

// waitForFile polls until the file reappears, then re-adds the watch.
func (w *Watcher) waitForFile(ctx context.Context) error {
	timeout := time.After(w.opts.ReappearTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for %s to reappear", w.opts.FilePath)
		case <-ticker.C:
			if _, err := os.Stat(w.opts.FilePath); err != nil {
				continue
			}
			// Removing the old inode already dropped the watch; a no-op otherwise.
			_ = w.watcher.Remove(w.opts.FilePath)
			if err := w.watcher.Add(w.opts.FilePath); err != nil {
				return fmt.Errorf("failed to watch %s: %w", w.opts.FilePath, err)
			}
			logging.Get(ctx).Info().Str("path", filepath.Clean(w.opts.FilePath)).Msg("file replaced, watching new file")
			return nil
		}
	}
}

// clean runs one pass and reports it.
func (w *Watcher) clean(ctx context.Context) error {
	res, err := w.cleaner.Clean(ctx, w.opts.FilePath)
	if err != nil {
		return err
	}
	if w.opts.OnResult != nil {
		return w.opts.OnResult(res)
	}
	return nil
}

// cleanSoft runs a pass but keeps watching on read/write errors, which can
// happen while another process is mid-write.
func (w *Watcher) cleanSoft(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	err := w.clean(ctx)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		logging.Get(ctx).Warn().Err(err).Msg("clean failed, waiting for next change")
		if w.opts.OnError != nil {
			w.opts.OnError(w.opts.FilePath, err)
		}
		return nil
	}
	return err
}
