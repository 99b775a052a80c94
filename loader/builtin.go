package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/internal/stats"
	"github.com/itayaharoni2/lineflow/internal/telemetry"
	"github.com/itayaharoni2/lineflow/stage"
	"github.com/itayaharoni2/lineflow/transform"
)

// builtinFactory constructs a stage.Stage wired to one in-process
// transform.Func that needs no shared stdout writer.
type builtinFactory func(name string, logger *slog.Logger) *stage.Stage

// Builtin is the registry of the six transforms that ship in-process
// rather than as separate plugin files. It is the loader selected
// whenever a stage name matches a built-in, populated at package init
// time, matching original_source/plugins/plugin_common.c's one-context-
// per-shared-object model collapsed into one process-wide registry table.
type Builtin struct {
	Root *slog.Logger
	Line *telemetry.LineWriter
}

// pureBuiltins holds the four transforms with no stdout side effect.
// logger and typewriter are built directly in Load, since both need
// access to the shared telemetry.LineWriter that every stage using this
// Builtin serializes its output through.
var pureBuiltins = map[string]builtinFactory{
	"uppercaser": func(name string, logger *slog.Logger) *stage.Stage {
		return stage.New(name, transform.Uppercaser, logger, &stats.Stage{})
	},
	"rotator": func(name string, logger *slog.Logger) *stage.Stage {
		return stage.New(name, transform.Rotator, logger, &stats.Stage{})
	},
	"flipper": func(name string, logger *slog.Logger) *stage.Stage {
		return stage.New(name, transform.Flipper, logger, &stats.Stage{})
	},
	"expander": func(name string, logger *slog.Logger) *stage.Stage {
		return stage.New(name, transform.Expander, logger, &stats.Stage{})
	},
}

// IsBuiltin reports whether name matches one of the six built-in
// transforms.
func IsBuiltin(name string) bool {
	switch name {
	case "logger", "typewriter":
		return true
	}
	_, ok := pureBuiltins[name]
	return ok
}

// Load constructs a fresh stage.Stage for name.
func (b *Builtin) Load(_ context.Context, name string) (StageModule, error) {
	switch name {
	case "logger":
		return stage.New(name, transform.NewLogger(b.Line), telemetry.ForStage(b.Root, name), &stats.Stage{}), nil
	case "typewriter":
		return stage.New(name, transform.NewTypewriter(b.Line), telemetry.ForStage(b.Root, name), &stats.Stage{}), nil
	}
	factory, ok := pureBuiltins[name]
	if !ok {
		return nil, fmt.Errorf("builtin %q: %w", name, errs.ErrLoad)
	}
	return factory(name, telemetry.ForStage(b.Root, name)), nil
}

// Close is a no-op: built-in stages hold no external resources beyond
// what their own Fini already releases.
func (b *Builtin) Close() error {
	return nil
}
