// Package stats tracks per-stage processed and transient-failure counters.
//
// This is a supplemented feature, not part of the distilled line-count
// contract: the underlying pipeline gives no visibility into per-stage
// throughput on its own, so cmd/analyzer's -stats flag surfaces it the
// same way modules/framebus/bus.go's Stats method surfaces per-subscriber
// sent/dropped counts. Atomic counters behind a snapshot struct, safe to
// read concurrently with the stage that is still updating them.
package stats

import "sync/atomic"

// Stage holds one stage's live counters. The zero value is ready to use.
type Stage struct {
	processed atomic.Uint64
	transient atomic.Uint64
}

// Processed increments the processed-line counter.
func (s *Stage) Processed() {
	s.processed.Add(1)
}

// TransientFailure increments the transient-failure counter.
func (s *Stage) TransientFailure() {
	s.transient.Add(1)
}

// Snapshot is a point-in-time copy of a Stage's counters.
type Snapshot struct {
	Processed        uint64
	TransientFailure uint64
}

// Snapshot returns the current counter values. Concurrent increments may
// land after the snapshot is taken.
func (s *Stage) Snapshot() Snapshot {
	return Snapshot{
		Processed:        s.processed.Load(),
		TransientFailure: s.transient.Load(),
	}
}
