package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/surface"
)

// Recorder is the part of History the executor needs.
type Recorder interface {
	RecordImmediate() history.Outcome
	Settings() history.Settings
}

// Result describes one command run.
type Result struct {
	// Before is the outcome of the snapshot taken before Apply.
	Before history.Outcome

	// After receives the outcome of the snapshot taken once the command has
	// settled. It is closed without a value when Apply failed.
	After <-chan history.Outcome
}

// Executor runs commands against one surface, bracketing each with
// immediate history records.
type Executor struct {
	surface  surface.Editable
	recorder Recorder
	clock    history.Clock
	logger   *slog.Logger

	mu       sync.RWMutex
	commands map[string]Command
	closed   bool

	wg sync.WaitGroup
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used for the settle-delay fallback.
func WithClock(c history.Clock) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the executor's logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates an executor for s that records into r.
func NewExecutor(s surface.Editable, r Recorder, opts ...ExecutorOption) *Executor {
	e := &Executor{
		surface:  s,
		recorder: r,
		clock:    history.SystemClock(),
		logger:   slog.New(slog.DiscardHandler),
		commands: make(map[string]Command),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds cmd, replacing any command with the same name.
func (e *Executor) Register(cmd Command) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands[cmd.Name()] = cmd
}

// Unregister removes the command registered under name.
func (e *Executor) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.commands, name)
}

// Lookup returns the command registered under name.
func (e *Executor) Lookup(name string) (Command, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cmd, ok := e.commands[name]
	return cmd, ok
}

// Names returns the registered command names, sorted.
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the command registered under name.
func (e *Executor) Run(ctx context.Context, name string) (Result, error) {
	cmd, ok := e.Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return e.Execute(ctx, cmd)
}

// Execute records the current state, applies cmd, and schedules the
// "after" record for when cmd's completion signal fires. A command that
// fails gets no "after" record.
func (e *Executor) Execute(ctx context.Context, cmd Command) (Result, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return Result{}, ErrExecutorClosed
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	after := make(chan history.Outcome, 1)
	res := Result{After: after}

	res.Before = e.recorder.RecordImmediate()

	done, err := e.apply(ctx, cmd)
	if err != nil {
		close(after)
		e.wg.Done()
		e.logger.Warn("command failed",
			slog.String("command", cmd.Name()),
			slog.String("error", err.Error()))
		return res, err
	}

	e.logger.Debug("command applied",
		slog.String("command", cmd.Name()),
		slog.String("before", res.Before.String()))

	finish := func() {
		defer e.wg.Done()
		out := e.recorder.RecordImmediate()
		after <- out
		close(after)
		e.logger.Debug("command settled",
			slog.String("command", cmd.Name()),
			slog.String("after", out.String()))
	}

	switch {
	case done == nil:
		e.clock.AfterFunc(e.recorder.Settings().SettleDelay, finish)
	case isClosed(done):
		finish()
	default:
		go func() {
			<-done
			finish()
		}()
	}

	return res, nil
}

// apply runs cmd, turning a panic into an error.
func (e *Executor) apply(ctx context.Context, cmd Command) (done <-chan struct{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, cmd.Name(), r)
		}
	}()
	return cmd.Apply(ctx, e.surface)
}

// Wait blocks until every scheduled "after" record has run.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// Close rejects further commands and waits for pending "after" records.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
