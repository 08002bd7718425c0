package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// sink stores records; gate, when set, holds every write until closed.
type sink struct {
	mu    sync.Mutex
	recs  []slog.Record
	attrs []slog.Attr
	gate  chan struct{}
}

func (s *sink) Enabled(context.Context, slog.Level) bool { return true }

func (s *sink) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *sink) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sinkView{parent: s, attrs: attrs}
}
func (s *sink) WithGroup(string) slog.Handler { return s }

func (s *sink) count(level slog.Level) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.recs {
		if r.Level == level {
			n++
		}
	}
	return n
}

// sinkView writes into its parent with extra attributes.
type sinkView struct {
	parent *sink
	attrs  []slog.Attr
}

func (v *sinkView) Enabled(context.Context, slog.Level) bool { return true }
func (v *sinkView) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	rec.AddAttrs(v.attrs...)
	return v.parent.Handle(ctx, rec)
}
func (v *sinkView) WithAttrs(attrs []slog.Attr) slog.Handler { return v }
func (v *sinkView) WithGroup(string) slog.Handler           { return v }

func record(level slog.Level, msg string) slog.Record {
	return slog.NewRecord(time.Now(), level, msg, 0)
}

func TestAsyncHandlerFlushesOnClose(t *testing.T) {
	s := &sink{}
	h := NewAsyncHandler(s, 512, 3)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = h.Handle(context.Background(), record(slog.LevelInfo, "tenant resolved"))
			}
		}()
	}
	wg.Wait()
	h.Close()

	if got := s.count(slog.LevelInfo); got+int(h.Dropped()) != 400 {
		t.Fatalf("written %d + dropped %d, want 400", got, h.Dropped())
	}
}

func TestAsyncHandlerDropsInfoButKeepsWarnings(t *testing.T) {
	s := &sink{gate: make(chan struct{})}
	h := NewAsyncHandler(s, 1, 1)

	for range 20 {
		_ = h.Handle(context.Background(), record(slog.LevelInfo, "request"))
	}
	if h.Dropped() == 0 {
		t.Fatal("expected info records to be dropped while the sink is blocked")
	}

	done := make(chan struct{})
	go func() {
		_ = h.Handle(context.Background(), record(slog.LevelError, "upload failed"))
		close(done)
	}()
	close(s.gate)
	<-done
	h.Close()

	if got := s.count(slog.LevelError); got != 1 {
		t.Errorf("error records written = %d, want 1", got)
	}
}

func TestAsyncHandlerDerivedHandlersShareQueue(t *testing.T) {
	s := &sink{}
	h := NewAsyncHandler(s, 16, 1)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "resolver")})

	_ = child.Handle(context.Background(), record(slog.LevelInfo, "cache miss"))
	h.Close()
	h.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recs) != 1 {
		t.Fatalf("records = %d, want 1", len(s.recs))
	}
	found := false
	s.recs[0].Attrs(func(a slog.Attr) bool {
		found = found || a.Key == "component"
		return true
	})
	if !found {
		t.Error("attribute of derived handler missing")
	}
}
