package avstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing resource: an unreadable path, a stream
	// index outside the container, or an unknown target.
	ErrNotFound = errors.New("resource not found")

	// ErrNoImageData is returned by ReadImage when the container ends before
	// any packet of the requested stream.
	ErrNoImageData = errors.New("no image data before end of file")

	ErrLibraryUnavailable = errors.New("codec library not available")
	ErrLibraryInUse       = errors.New("codec library already initialized")
	ErrClosed             = errors.New("stream closed")
	ErrNoSink             = errors.New("no sink for output")

	// ErrStalled is returned when every upstream stage is exhausted but the
	// encoder still asks for input.
	ErrStalled = errors.New("pipeline stalled")
)

// LibraryError is a failure reported by the codec library.
type LibraryError struct {
	Op  string // library function that failed
	Err error  // library diagnostic
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LibraryError) Unwrap() error { return e.Err }

// notFound wraps err so that it matches both ErrNotFound and err.
func notFound(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrNotFound, what, err)
}
