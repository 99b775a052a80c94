package transform

import (
	"time"

	"github.com/itayaharoni2/lineflow/internal/telemetry"
)

// typewriterDelay is the per-character delay, matching
// original_source/plugins/typewriter.c's usleep(100000).
const typewriterDelay = 100 * time.Millisecond

// NewTypewriter returns a transform that writes "[typewriter] " followed
// by each byte of line with a delay between them, then a trailing
// newline, and passes line through unchanged. An empty line produces no
// output at all, matching the C original's guard on *input_str.
func NewTypewriter(w *telemetry.LineWriter) Func {
	return func(line string) (string, error) {
		if line == "" {
			return line, nil
		}
		if err := w.WriteString("[typewriter] "); err != nil {
			return "", err
		}
		for i := 0; i < len(line); i++ {
			if err := w.WriteString(string(line[i])); err != nil {
				return "", err
			}
			time.Sleep(typewriterDelay)
		}
		if err := w.WriteString("\n"); err != nil {
			return "", err
		}
		return line, nil
	}
}
