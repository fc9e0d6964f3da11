package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jt828/runner/internal/record"
)

// Writer emits one record per line to an io.Writer. Each line is handed to
// the underlying writer in a single call so lines from concurrent writers
// never interleave.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	buf    []byte
	closed bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewStdout writes to the process's standard output.
func NewStdout() *Writer {
	return NewWriter(os.Stdout)
}

func (s *Writer) Write(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.buf = append(append(s.buf[:0], rec...), '\n')
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("writer sink: %w", err)
	}
	return nil
}

// Close stops further writes. The underlying writer is left open.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
