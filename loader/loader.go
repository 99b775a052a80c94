// Package loader resolves a stage name to a runnable stage module,
// either one of the six built-in transforms or a dynamically loaded Go
// plugin, mirroring the dlopen/dlsym boundary
// original_source/main.c's init_plugin function walks for each
// configured stage name.
package loader

import (
	"context"

	"github.com/itayaharoni2/lineflow/stage"
)

// StageModule is the five-operation contract every loaded stage
// exposes, matching stage.Stage's own method set so that a built-in and
// a dynamically loaded stage are interchangeable to pipeline.Pipeline.
type StageModule interface {
	Init(queueSize int) error
	Attach(next PlaceWorkFunc) error
	PlaceWork(line string) error
	WaitFinished() error
	Fini() error
	Name() string
}

// PlaceWorkFunc is an alias for stage.PlaceWorkFunc: loader already
// depends on stage for the built-in loader implementation, and an alias
// (rather than a second named type) keeps *stage.Stage assignable to
// StageModule without a manual adapter.
type PlaceWorkFunc = stage.PlaceWorkFunc

// Loader resolves stage names to StageModules.
type Loader interface {
	// Load resolves name to a freshly constructed, uninitialized
	// StageModule. Load does not call Init.
	Load(ctx context.Context, name string) (StageModule, error)

	// Close releases any resources the Loader itself holds (open plugin
	// handles). Close does not touch StageModules it has already
	// returned; callers are responsible for calling Fini on those.
	Close() error
}
