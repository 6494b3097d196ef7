package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// pipeline is the record queue shared by an AsyncHandler and every handler
// derived from it via WithAttrs/WithGroup. Closing it once stops all of them.
type pipeline struct {
	ch        chan slog.Record
	workers   sync.WaitGroup
	dropped   atomic.Int64
	closeOnce sync.Once
}

// AsyncHandler decouples logging call sites from the sink. Records are
// queued on a bounded channel and written by background workers; when the
// queue is full the record is counted and dropped rather than blocking a
// broadcast or request path.
type AsyncHandler struct {
	inner slog.Handler
	pipe  *pipeline
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	p := &pipeline{ch: make(chan slog.Record, chanSize)}
	h := &AsyncHandler{inner: inner, pipe: p}
	for range workers {
		p.workers.Add(1)
		go func() {
			defer p.workers.Done()
			for rec := range p.ch {
				_ = h.inner.Handle(context.Background(), rec)
			}
		}()
	}
	return h
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.pipe.ch <- rec:
	default:
		h.pipe.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler on the same pipeline with a decorated sink.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), pipe: h.pipe}
}

// WithGroup returns a handler on the same pipeline with a grouped sink.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), pipe: h.pipe}
}

// DroppedCount returns the number of records dropped under backpressure.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.pipe.dropped.Load()
}

// Close drains the queue and stops the workers. Safe to call more than once.
func (h *AsyncHandler) Close() {
	h.pipe.closeOnce.Do(func() {
		close(h.pipe.ch)
		h.pipe.workers.Wait()
	})
}
