package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/config/watcher"
)

// Subscriber receives every successfully reloaded Config.
type Subscriber func(cfg Config)

// Reloader keeps a Config in sync with its file.
type Reloader struct {
	path    string
	watcher *watcher.Watcher
	logger  *slog.Logger

	mu      sync.RWMutex
	current Config
	subs    []Subscriber
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*reloaderOptions)

type reloaderOptions struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WithReloadDebounce sets how long the file must be quiet before reloading.
func WithReloadDebounce(d time.Duration) ReloaderOption {
	return func(o *reloaderOptions) {
		o.debounce = d
	}
}

// WithReloadLogger sets the reloader's logger.
func WithReloadLogger(l *slog.Logger) ReloaderOption {
	return func(o *reloaderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewReloader watches path, starting from initial.
func NewReloader(path string, initial Config, opts ...ReloaderOption) (*Reloader, error) {
	o := reloaderOptions{
		debounce: 100 * time.Millisecond,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Reloader{
		path:    path,
		logger:  o.logger,
		current: initial,
	}

	w, err := watcher.New(
		watcher.WithDebounce(o.debounce),
		watcher.WithErrorHandler(func(err error) {
			r.logger.Warn("config watcher error", slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, errors.Join(err, w.Close()))
	}
	w.OnChange(r.onChange)
	r.watcher = w

	return r, nil
}

// Current returns the last good Config.
func (r *Reloader) Current() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Subscribe registers fn for future reloads.
func (r *Reloader) Subscribe(fn Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// Reload loads the file now. On failure the current Config is kept and the
// error returned.
func (r *Reloader) Reload() error {
	cfg, err := Load(r.path)
	if err != nil {
		r.logger.Warn("config reload failed, keeping previous settings",
			slog.String("path", r.path),
			slog.String("error", err.Error()))
		return err
	}

	r.mu.Lock()
	r.current = cfg
	subs := make([]Subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	r.logger.Info("config reloaded", slog.String("path", r.path))
	for _, fn := range subs {
		fn(cfg)
	}
	return nil
}

func (r *Reloader) onChange(ev watcher.Event) {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		r.logger.Debug("config file went away, keeping settings",
			slog.String("path", ev.Path),
			slog.String("op", ev.Op.String()))
		return
	}
	// Errors are logged by Reload.
	_ = r.Reload()
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}
