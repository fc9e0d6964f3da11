// Package stream turns one of the child's output pipes into records.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jt828/runner/internal/record"
	"github.com/jt828/runner/internal/sink"
	"github.com/jt828/runner/pkg/observability"
)

const readBufSize = 64 * 1024

// ErrInvalidUTF8 stops a reader. The rest of its stream is discarded.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 in child output")

// Handler decides what, if anything, a line becomes.
type Handler interface {
	Process(ctx context.Context, line string, stream record.Stream) (record.Record, bool)
}

type Option func(*Reader)

func WithLogger(l observability.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// WithMetrics shares one set of counters between the readers of a run.
func WithMetrics(m *Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

type Reader struct {
	stream  record.Stream
	src     io.Reader
	handler Handler
	sink    sink.Sink
	log     observability.Logger
	metrics *Metrics
}

func NewReader(stream record.Stream, src io.Reader, h Handler, out sink.Sink, opts ...Option) *Reader {
	r := &Reader{
		stream:  stream,
		src:     src,
		handler: h,
		sink:    out,
		log:     observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(observability.NopMeter())
	}
	r.log = r.log.With(observability.String("stream", string(stream)))
	return r
}

// Run consumes src line by line until EOF. A final line without a newline
// is still processed. Sink failures are logged and do not stop the reader.
//
// On a decode or read failure Run keeps draining src so the child never
// blocks on a full pipe, then returns the failure.
func (r *Reader) Run(ctx context.Context) error {
	buf := bufio.NewReaderSize(r.src, readBufSize)

	for {
		line, err := buf.ReadString('\n')
		if line != "" {
			if herr := r.handle(ctx, line); herr != nil {
				return r.abort(buf, herr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return r.abort(buf, fmt.Errorf("read %s: %w", r.stream, err))
		}
	}
}

func (r *Reader) handle(ctx context.Context, line string) error {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if !utf8.ValidString(line) {
		return fmt.Errorf("%s: %w", r.stream, ErrInvalidUTF8)
	}

	rec, ok := r.handler.Process(ctx, line, r.stream)
	if !ok {
		return nil
	}

	if err := r.sink.Write(ctx, rec); err != nil {
		r.metrics.sinkErrors.Inc(1)
		r.log.Warn("dropped record", observability.Err(err))
	}
	return nil
}

func (r *Reader) abort(buf *bufio.Reader, cause error) error {
	r.metrics.readErrors.Inc(1, observability.L("stream", string(r.stream)))
	r.log.Error("stream reader stopped, discarding the rest of the stream", observability.Err(cause))

	n, err := io.Copy(io.Discard, buf)
	if err != nil {
		r.log.Debug("discard failed", observability.Err(err))
	}
	r.log.Debug("discarded child output", observability.Int64("bytes", n))
	return cause
}
