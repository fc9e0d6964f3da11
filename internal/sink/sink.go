// Package sink delivers finished records to their destinations as
// newline-delimited JSON.
package sink

import (
	"context"
	"errors"

	"github.com/jt828/runner/internal/record"
)

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("sink closed")
	// ErrCircuitOpen is returned by a Guarded sink while it rejects writes.
	ErrCircuitOpen = errors.New("sink circuit open")
)

// Sink receives records from every stream reader concurrently. Each record
// must reach the destination as one whole line.
type Sink interface {
	Write(ctx context.Context, rec record.Record) error
	Close() error
}

// Retryable reports whether a failed write is worth another attempt.
func Retryable(err error) bool {
	return !errors.Is(err, ErrClosed) && !errors.Is(err, context.Canceled)
}
