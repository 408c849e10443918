package app

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrQuit signals that the session should end normally.
	ErrQuit = errors.New("quit requested")

	// ErrClosed indicates the session has been closed.
	ErrClosed = errors.New("session closed")

	// ErrNoFilePath indicates a save without a path.
	ErrNoFilePath = errors.New("no file path")
)

// FileError wraps a document load or save failure.
type FileError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}
