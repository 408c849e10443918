package command

import "errors"

// Command errors.
var (
	// ErrUnknownCommand indicates no command is registered under a name.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrExecutorClosed indicates the executor has been closed.
	ErrExecutorClosed = errors.New("command: executor is closed")

	// ErrUnsupportedTag indicates a wrap tag that is not inline formatting.
	ErrUnsupportedTag = errors.New("command: unsupported tag")

	// ErrPanic indicates a command panicked while applying.
	ErrPanic = errors.New("command: command panic")
)
