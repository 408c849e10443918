package command

import (
	"context"

	"github.com/dshills/inkwell/internal/surface"
)

// Command is a named edit against an editing surface.
type Command interface {
	// Name returns the name the command is registered under.
	Name() string

	// Apply mutates s. The returned channel, if non-nil, is closed once the
	// surface has settled after the mutation.
	Apply(ctx context.Context, s surface.Editable) (<-chan struct{}, error)
}

// Func adapts a function to the Command interface.
type Func struct {
	name string
	fn   func(ctx context.Context, s surface.Editable) (<-chan struct{}, error)
}

// NewFunc creates a command from fn.
func NewFunc(name string, fn func(ctx context.Context, s surface.Editable) (<-chan struct{}, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name implements Command.
func (f *Func) Name() string { return f.name }

// Apply implements Command.
func (f *Func) Apply(ctx context.Context, s surface.Editable) (<-chan struct{}, error) {
	return f.fn(ctx, s)
}

// settled returns an already-closed completion channel.
func settled() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
