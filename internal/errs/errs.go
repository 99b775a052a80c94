// Package errs defines the sentinel error kinds the pipeline surfaces to
// callers. Each kind maps to exactly one exit code in cmd/analyzer; wrap a
// sentinel with fmt.Errorf("...: %w", ErrX) at the call site to add context
// without losing errors.Is compatibility.
package errs

import "errors"

var (
	// ErrInvalidArgument is returned by Channel construction when capacity
	// is less than 1.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfMemory is returned when a ring allocation fails. Go practically
	// never returns from an allocation failure (the runtime panics instead),
	// but the kind is kept for parity with the other construction errors even
	// though it is unreachable in normal operation.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrPrimitiveInit is returned when a Gate or mutex fails to initialize.
	ErrPrimitiveInit = errors.New("primitive initialization failed")

	// ErrShutdownDuringWait is returned by Channel.Get when the Channel is
	// torn down while a consumer is blocked waiting for an item.
	ErrShutdownDuringWait = errors.New("shutdown during wait")

	// ErrUsage marks a usage error: missing or malformed arguments.
	ErrUsage = errors.New("usage error")

	// ErrLoad marks a stage-module load failure (missing file or symbol).
	ErrLoad = errors.New("load error")

	// ErrInit marks a stage init failure during pipeline construction.
	ErrInit = errors.New("init error")

	// ErrWire marks a defensive wiring failure (a stage lacked a required
	// entry point at wire time; should not occur after a successful load).
	ErrWire = errors.New("wire error")

	// ErrFeed marks a failure to enqueue into the head stage, or a stdin
	// read error.
	ErrFeed = errors.New("feed error")

	// ErrShutdown marks a failure reported by wait_finished or fini during
	// teardown.
	ErrShutdown = errors.New("shutdown error")

	// ErrTransient marks a transform's transient failure: log and continue,
	// never halts the owning stage.
	ErrTransient = errors.New("transient transform failure")
)
