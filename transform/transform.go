// Package transform implements the built-in line transforms: small, pure
// functions that take one line of text and return its transformed form.
//
// Every transform is ported byte-for-byte from the corresponding plugin in
// original_source/plugins/ (logger.c, uppercase.c, rotator.c, flipper.c,
// expander.c, typewriter.c), generalized from C's strdup/malloc ownership
// dance into plain Go string values: a transform either returns a new
// string or an error, never a borrowed pointer that outlives the call.
package transform

import "github.com/itayaharoni2/lineflow/queue"

// Terminator is the pipeline's shutdown sentinel. The transforms in this
// package do not check for it themselves: stage.Stage forwards it without
// calling its transform, so in a pipeline it is never logged or changed.
// Called directly on it, a transform treats it as ordinary data.
const Terminator = queue.Terminator

// Func is the shape every built-in and every dynamically loaded stage
// module exposes as its processing step. A Func receives one line
// (already known not to be the terminator; stage.Stage handles the
// terminator itself) and returns the transformed line or an error.
//
// An error from Func is a transient failure: the owning Stage logs it
// and continues to the next line rather than halting the pipeline.
type Func func(line string) (string, error)

// IsTerminator reports whether line is the pipeline's shutdown sentinel.
func IsTerminator(line string) bool {
	return line == Terminator
}
