// Package app wires an editing session: one surface, its history, the
// command executor, keyboard shortcuts, notifications and live config.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/command"
	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/input/shortcut"
	"github.com/dshills/inkwell/internal/logging"
	"github.com/dshills/inkwell/internal/notify"
	"github.com/dshills/inkwell/internal/plugin/lua"
	"github.com/dshills/inkwell/internal/surface"
)

// Options configures a Session.
type Options struct {
	// ConfigPath is the TOML or YAML config file. Empty uses defaults and
	// the environment only.
	ConfigPath string

	// Watch reloads ConfigPath when it changes.
	Watch bool

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Path is the HTML file to edit. Empty starts from Content.
	Path string

	// Content is the initial markup when Path is empty.
	Content string

	// LogOutput receives logs. Nil discards them.
	LogOutput io.Writer

	// Clock drives history and command timers. Nil uses the system clock.
	Clock history.Clock
}

// Session is one editing session.
type Session struct {
	mu   sync.RWMutex
	cfg  config.Config
	path string

	logger   *slog.Logger
	notifier *notify.Notifier

	doc      *surface.Document
	history  *history.History
	executor *command.Executor
	router   *shortcut.Router
	reloader *config.Reloader

	// scripts registered from config, so reloads can drop removed ones
	scripts map[string]bool

	unsubscribe func()
	closed      atomic.Bool
}

// New creates a session.
func New(opts Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			return nil, err
		}
		cfg.Logging.Level = opts.LogLevel
	}

	content := opts.Content
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil && !os.IsNotExist(err) {
			return nil, &FileError{Op: "open", Path: opts.Path, Err: err}
		}
		content = string(data)
	}

	logCfg := cfg.LogConfig()
	logCfg.Component = "inkwell"
	logger := logging.New(logCfg, opts.LogOutput)

	doc, err := surface.NewDocument(content)
	if err != nil {
		return nil, &FileError{Op: "parse", Path: opts.Path, Err: err}
	}

	clock := opts.Clock
	if clock == nil {
		clock = history.SystemClock()
	}

	notifier := notify.New()
	h := history.New(doc,
		history.WithSettings(cfg.HistorySettings()),
		history.WithClock(clock),
		history.WithLogger(logger.With(slog.String("subsystem", "history"))),
		history.WithNotifier(notifier),
		history.WithSource(doc.ID().String()),
	)

	s := &Session{
		cfg:      cfg,
		path:     opts.Path,
		logger:   logger,
		notifier: notifier,
		doc:      doc,
		history:  h,
		executor: command.NewExecutor(doc, h,
			command.WithClock(clock),
			command.WithLogger(logger.With(slog.String("subsystem", "command")))),
		router:  shortcut.NewRouter(h, shortcut.WithLogger(logger)),
		scripts: make(map[string]bool),
	}

	// Free-form edits are coalesced. Restores are suppressed by History.
	s.unsubscribe = doc.OnChange(func() { h.Record() })

	for _, cmd := range command.Builtins() {
		s.executor.Register(cmd)
	}
	s.applyEditor(cfg)

	if opts.Watch && opts.ConfigPath != "" {
		r, err := config.NewReloader(opts.ConfigPath, cfg, config.WithReloadLogger(logger))
		if err != nil {
			s.Close()
			return nil, err
		}
		r.Subscribe(s.ApplyConfig)
		s.reloader = r
	}

	logger.Info("session started",
		slog.String("document", doc.ID().String()),
		slog.Int("capacity", cfg.History.Capacity))

	return s, nil
}

// Document returns the editing surface.
func (s *Session) Document() *surface.Document { return s.doc }

// History returns the session history.
func (s *Session) History() *history.History { return s.history }

// Executor returns the command executor.
func (s *Session) Executor() *command.Executor { return s.executor }

// Router returns the shortcut router.
func (s *Session) Router() *shortcut.Router { return s.router }

// Notifier returns the session notifier.
func (s *Session) Notifier() *notify.Notifier { return s.notifier }

// Path returns the file the document is saved to.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Config returns the active configuration.
func (s *Session) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Type inserts text at the selection as free-form typing. The change is
// recorded by the coalescing recorder.
func (s *Session) Type(text string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	command.Insert(s.doc, text)
	return nil
}

// Run executes a registered command and waits for its "after" record.
func (s *Session) Run(ctx context.Context, name string) (history.Outcome, error) {
	if s.closed.Load() {
		return history.Closed, ErrClosed
	}
	res, err := s.executor.Run(ctx, name)
	if err != nil {
		return res.Before, err
	}
	select {
	case out, ok := <-res.After:
		if !ok {
			return history.Noop, nil
		}
		return out, nil
	case <-ctx.Done():
		return history.Pending, ctx.Err()
	}
}

// Undo restores the previous version.
func (s *Session) Undo() history.Outcome { return s.history.Undo() }

// Redo restores the next version.
func (s *Session) Redo() history.Outcome { return s.history.Redo() }

// HandleKey routes a key event; it reports false for ordinary input.
func (s *Session) HandleKey(ev *tcell.EventKey) (history.Outcome, bool) {
	return s.router.HandleEvent(ev)
}

// OnRestored calls fn after every undo, redo or jump.
func (s *Session) OnRestored(fn func(history.RestoredEvent)) *notify.Subscription {
	return s.notifier.SubscribeTopic(history.TopicRestored, func(ev notify.Event) {
		if re, ok := ev.Payload.(history.RestoredEvent); ok {
			fn(re)
		}
	})
}

// ApplyConfig applies a new configuration to the running session.
func (s *Session) ApplyConfig(cfg config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.history.Apply(cfg.HistorySettings())
	s.applyEditor(cfg)
	s.logger.Info("settings applied",
		slog.Int("capacity", cfg.History.Capacity),
		slog.String("debounce", cfg.History.Debounce.String()))
}

// applyEditor binds shortcuts and registers scripted commands.
func (s *Session) applyEditor(cfg config.Config) {
	for spec, name := range cfg.Editor.Shortcuts {
		action := shortcut.None
		if name != "none" {
			// Validated by config.Load.
			action, _ = shortcut.ParseAction(name)
		}
		if err := s.router.Bind(spec, action); err != nil {
			s.logger.Warn("ignoring shortcut", slog.String("spec", spec), slog.String("error", err.Error()))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.scripts {
		if _, ok := cfg.Editor.Scripts[name]; !ok {
			s.executor.Unregister(name)
			delete(s.scripts, name)
		}
	}
	for name, src := range cfg.Editor.Scripts {
		s.executor.Register(command.NewLuaCommand(name, src,
			lua.WithExecutionTimeout(cfg.Editor.ScriptTimeout.Std())))
		s.scripts[name] = true
	}
}

// Save writes the document to path, or to the path it was opened from.
func (s *Session) Save(path string) error {
	if path == "" {
		path = s.Path()
	}
	if path == "" {
		return ErrNoFilePath
	}

	// Pending typing belongs to the saved version.
	s.history.Flush()

	if err := os.WriteFile(path, []byte(s.doc.Content()), 0o644); err != nil {
		return &FileError{Op: "save", Path: path, Err: err}
	}
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	s.logger.Info("document saved", slog.String("path", path))
	return nil
}

// Close stops timers and watchers. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	if s.reloader != nil {
		if err := s.reloader.Close(); err != nil {
			s.logger.Warn("closing config watcher", slog.String("error", err.Error()))
		}
	}
	s.unsubscribe()
	s.executor.Close()
	s.history.Close()
	s.notifier.Close()
}
