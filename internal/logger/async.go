package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Strob0t/ServicePulse/internal/metrics"
)

// Closer flushes and releases log outputs.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// queue is shared by an AsyncHandler and every handler derived from it.
type queue struct {
	ch      chan entry
	wg      sync.WaitGroup
	dropped atomic.Int64
	once    sync.Once
}

type entry struct {
	h   slog.Handler
	rec slog.Record
}

// AsyncHandler moves formatting and output off the request path. Info and
// debug records are dropped when the buffer is full; warnings and errors
// wait for room.
type AsyncHandler struct {
	inner slog.Handler
	q     *queue
}

// NewAsyncHandler starts workers draining a buffer of size records.
func NewAsyncHandler(inner slog.Handler, size, workers int) *AsyncHandler {
	q := &queue{ch: make(chan entry, size)}
	for range max(workers, 1) {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for e := range q.ch {
				_ = e.h.Handle(context.Background(), e.rec)
			}
		}()
	}
	return &AsyncHandler{inner: inner, q: q}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	e := entry{h: h.inner, rec: rec.Clone()}
	if rec.Level >= slog.LevelWarn {
		h.q.ch <- e
		return nil
	}
	select {
	case h.q.ch <- e:
	default:
		h.q.dropped.Add(1)
		metrics.RecordLogDropped()
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// Dropped returns how many records were discarded under back pressure.
func (h *AsyncHandler) Dropped() int64 {
	return h.q.dropped.Load()
}

// Close stops accepting records and waits until the buffer is written.
// Records logged after Close panic, so call it last.
func (h *AsyncHandler) Close() {
	h.q.once.Do(func() {
		close(h.q.ch)
		h.q.wg.Wait()
	})
}
