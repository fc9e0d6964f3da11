package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jt828/runner/internal/record"
)

const (
	defaultBufSize = 64 * 1024
	maxBackups     = 9
)

type FileOption func(*File)

// WithMaxSize rotates the file once it would grow past n bytes. 0 disables
// rotation.
func WithMaxSize(n int64) FileOption {
	return func(f *File) { f.maxSize = n }
}

func WithBufSize(n int) FileOption {
	return func(f *File) { f.bufSize = n }
}

// File appends records to a file through a buffer. Rotated files are kept
// as path.1 (newest) through path.9.
type File struct {
	mu      sync.Mutex
	path    string
	f       *os.File
	w       *bufio.Writer
	maxSize int64
	written int64
	bufSize int
	broken  bool
	closed  bool
}

func NewFile(path string, opts ...FileOption) (*File, error) {
	s := &File{path: path, bufSize: defaultBufSize}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *File) Write(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.broken {
		if err := s.reopen(); err != nil {
			return fmt.Errorf("file sink: reopen: %w", err)
		}
	}

	size := int64(len(rec)) + 1
	if s.maxSize > 0 && s.written > 0 && s.written+size > s.maxSize {
		if err := s.rotate(); err != nil {
			s.broken = true
			return fmt.Errorf("file sink: rotate: %w", err)
		}
	}

	if _, err := s.w.Write(rec); err != nil {
		s.broken = true
		return fmt.Errorf("file sink: write: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		s.broken = true
		return fmt.Errorf("file sink: write: %w", err)
	}
	s.written += size
	return nil
}

// Flush pushes buffered records to the file.
func (s *File) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.w.Flush(); err != nil {
		s.broken = true
		return fmt.Errorf("file sink: flush: %w", err)
	}
	return nil
}

func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("file sink: flush: %w", err)
	}
	return s.f.Close()
}

func (s *File) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file sink: open %s: %w", s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file sink: stat %s: %w", s.path, err)
	}

	s.f = f
	s.w = bufio.NewWriterSize(f, s.bufSize)
	s.written = info.Size()
	s.broken = false
	return nil
}

// reopen drops whatever the failed buffer held and starts over on a fresh
// handle.
func (s *File) reopen() error {
	if s.f != nil {
		s.f.Close()
	}
	return s.open()
}

func (s *File) rotate() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if err := s.f.Close(); err != nil {
		return err
	}

	for i := maxBackups - 1; i >= 1; i-- {
		// missing backups are expected
		_ = os.Rename(fmt.Sprintf("%s.%d", s.path, i), fmt.Sprintf("%s.%d", s.path, i+1))
	}
	if err := os.Rename(s.path, s.path+".1"); err != nil {
		return err
	}
	return s.open()
}
