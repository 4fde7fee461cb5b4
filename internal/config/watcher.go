package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// defaultPollInterval is how often the watcher re-checks the config file.
const defaultPollInterval = 5 * time.Second

// Watcher polls a config file and reports content changes through a
// callback. Polling keeps the dependency surface flat (no fsnotify), and a
// few seconds of latency is irrelevant for tuning knobs like the log level.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	current *Config
	seen    fileState
}

// fileState identifies one observed version of the file. The mtime filters
// out no-op polls cheaply; the hash decides whether content really changed.
type fileState struct {
	mtime time.Time
	sum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path and starts polling it in a background
// goroutine. onChange runs outside the watcher lock with the previous and
// the newly loaded config whenever the file's content changes to something
// valid.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: defaultPollInterval,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, state, err := w.snapshot()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.seen = state

	go w.run()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends the polling goroutine. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) run() {
	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-tick.C:
			w.reload()
		}
	}
}

// reload re-reads the file when its mtime moved. A file that fails to parse
// or validate leaves the current config in place.
func (w *Watcher) reload() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config file unreadable, keeping current config", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.seen.mtime)
	w.mu.Unlock()
	if unchanged {
		return
	}

	cfg, state, err := w.snapshot()
	if err != nil {
		slog.Warn("config reload failed, keeping current config", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if state.sum == w.seen.sum {
		// Touched but identical content.
		w.seen.mtime = state.mtime
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = cfg
	w.seen = state
	w.mu.Unlock()

	slog.Info("config reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// snapshot reads, parses, and validates the file, returning the config
// together with the file state it was read from.
func (w *Watcher) snapshot() (*Config, fileState, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fileState{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fileState{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fileState{}, err
	}
	return cfg, fileState{mtime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}
