// Package telemetry builds the structured loggers and the shared stdout
// writer the pipeline's stages use for diagnostics and for the logger and
// typewriter transforms' fixed-format output.
//
// Logging follows log/slog, one *slog.Logger per stage carrying a "stage"
// field. pipeline.Feed additionally assigns a "trace_id" to each line as
// it enters the pipeline and logs it at ingress, the same per-item
// correlation-ID idiom modules/stream-capture/internal/rtsp/callbacks.go
// uses for frame tracing, generalized from frames to lines. The ID is
// not threaded onto the wire between stages: place_work's documented
// contract carries only the line.
package telemetry

import (
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// NewTraceID returns a fresh correlation ID for one line entering the
// pipeline at stage zero.
func NewTraceID() string {
	return uuid.New().String()
}

// Root builds the process-wide logger. debug selects slog.LevelDebug;
// otherwise the logger reports slog.LevelInfo and above.
func Root(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// ForStage derives a stage-scoped logger carrying a "stage" field.
func ForStage(root *slog.Logger, name string) *slog.Logger {
	return root.With("stage", name)
}

// LineWriter is a shared, mutex-guarded stdout wrapper. The logger and
// typewriter transforms write their fixed-format payload through it, and
// each WriteString call is written as one uninterrupted unit. The logger
// emits its whole line in one call; the typewriter emits its prefix, each
// byte and the newline in separate calls, so another stage's output can
// land inside a typewriter line. Line atomicity is best-effort only.
type LineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineWriter wraps w for shared, serialized access.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// WriteString writes s as-is and flushes if w implements an explicit
// Flush method (os.File writes are unbuffered already; the flush hook
// exists for writers that buffer, matching the C plugins' fflush calls).
func (lw *LineWriter) WriteString(s string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := io.WriteString(lw.w, s); err != nil {
		return err
	}
	if f, ok := lw.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

type flusher interface {
	Flush() error
}
