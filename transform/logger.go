package transform

import "github.com/itayaharoni2/lineflow/internal/telemetry"

// NewLogger returns a transform that writes "[logger] "+line+"\n" to w and
// passes the line through unchanged, ported from
// original_source/plugins/logger.c's plugin_transform. The transform
// prints whatever line it is given; stage.Stage never passes it the
// terminator, so the terminator is forwarded without being printed.
func NewLogger(w *telemetry.LineWriter) Func {
	return func(line string) (string, error) {
		if err := w.WriteString("[logger] " + line + "\n"); err != nil {
			return "", err
		}
		return line, nil
	}
}
