// Package logger provides structured logging setup for ServicePulse.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Strob0t/ServicePulse/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout, mirrored to a rotating file when cfg.File is set,
// with a "service" attribute on every record. The returned Closer flushes the
// async queue and closes the log file.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	var (
		out    io.Writer = os.Stdout
		closer Closer    = nopCloser{}
		file   *lumberjack.Logger
	)
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50,
			MaxBackups: 7,
			MaxAge:     14,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	if cfg.Async {
		ah := NewAsyncHandler(handler, 4096, 2)
		handler = ah
		closer = ah
	}
	// Context attributes are copied onto the record before it is queued.
	handler = contextHandler{inner: handler}
	if file != nil {
		closer = closers{closer, fileCloser{file}}
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

type fileCloser struct{ f *lumberjack.Logger }

func (c fileCloser) Close() { _ = c.f.Close() }

type closers []Closer

func (cs closers) Close() {
	for _, c := range cs {
		c.Close()
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
