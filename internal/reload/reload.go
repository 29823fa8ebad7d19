package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/tripcheck/internal/config"
)

const debounceDelay = 500 * time.Millisecond

// Watcher holds the current configuration and swaps it when the file on
// disk changes. Readers call Current; a failed reload keeps the last good
// configuration.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	current atomic.Pointer[config.Config]
	mu      sync.Mutex
	hash    string

	// OnReload, if set, runs after every successful swap.
	OnReload func(cfg *config.Config, hash string)
}

// New loads path and prepares a watcher on its directory, so editors that
// replace the file by rename are still seen.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("reload: config path must not be empty")
	}
	cfg, hash, err := config.LoadConfigWithHash(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		logger:  logger.With("component", "reload"),
		hash:    hash,
	}
	w.current.Store(cfg)
	return w, nil
}

// Current returns the active configuration.
func (w *Watcher) Current() *config.Config {
	return w.current.Load()
}

// Hash returns the hash of the active configuration file.
func (w *Watcher) Hash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hash
}

// Reload re-reads the file now. Unchanged content is a no-op.
func (w *Watcher) Reload() error {
	cfg, hash, err := config.LoadConfigWithHash(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if hash == w.hash {
		w.mu.Unlock()
		return nil
	}
	w.hash = hash
	w.current.Store(cfg)
	w.mu.Unlock()

	if w.OnReload != nil {
		w.OnReload(cfg, hash)
	}
	return nil
}

// Run watches for changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if err := w.Reload(); err != nil {
					w.logger.Warn("hot-reload failed, keeping previous config", "path", w.path, "error", err)
					return
				}
				w.logger.Info("config reloaded", "path", w.path, "hash", w.Hash())
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
