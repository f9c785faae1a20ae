package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady signals a query before any successful index build.
	ErrNotReady = errors.New("index not ready")
	// ErrNoChunks signals an index build over an empty chunk set.
	ErrNoChunks = errors.New("no chunks to index")
	// ErrInvalidChunking signals degenerate chunking parameters (overlap >= size).
	ErrInvalidChunking = errors.New("invalid chunking parameters")
	// ErrUnreadable signals a source document that cannot be read or decoded.
	ErrUnreadable = errors.New("document unreadable")
	// ErrInvalidRequest signals a malformed question request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSnapshotNotFound signals that no cached index exists.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrSnapshotCorrupt signals a cached index that cannot be decoded.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// UnreadableError wraps ErrUnreadable with the source that failed.
type UnreadableError struct {
	Source string
	Err    error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnreadable.Error(), e.Source, e.Err)
}

func (e *UnreadableError) Unwrap() []error { return []error{ErrUnreadable, e.Err} }

// NewUnreadable creates an input-unreadable error for the given source.
func NewUnreadable(source string, err error) error {
	return &UnreadableError{Source: source, Err: err}
}
