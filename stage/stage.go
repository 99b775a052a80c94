// Package stage implements the Go-native pipeline stage: a queue, a
// transform, and a worker goroutine that drains the queue, applies the
// transform, and forwards the result to the next stage.
//
// Stage is the concrete implementation of the five-operation contract
// (Init/Attach/PlaceWork/WaitFinished/Fini) that loader.StageModule
// names; it is what the built-in loader wraps every built-in transform in,
// grounded on original_source/plugins/plugin_common.c's
// plugin_consumer_thread and common_plugin_init, and on the
// goroutine-per-consumer shape in modules/framesupplier/internal/worker_slot.go.
package stage

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/internal/stats"
	"github.com/itayaharoni2/lineflow/queue"
	"github.com/itayaharoni2/lineflow/transform"
)

// PlaceWorkFunc matches the next stage's PlaceWork method, the
// forwarding hook a Stage calls once it has transformed a line.
type PlaceWorkFunc func(line string) error

// Stage owns one input Channel, one transform, and the goroutine that
// drains the Channel. The zero value is not ready to use; call New.
type Stage struct {
	name      string
	transform transform.Func
	logger    *slog.Logger
	stats     *stats.Stage

	mu       sync.Mutex
	in       *queue.Channel
	forward  PlaceWorkFunc
	attached bool
	started  bool
	done     chan struct{}
}

// New constructs a Stage named name around fn. The Stage is not running
// until Init is called.
func New(name string, fn transform.Func, logger *slog.Logger, st *stats.Stage) *Stage {
	return &Stage{
		name:      name,
		transform: fn,
		logger:    logger,
		stats:     st,
	}
}

// Name reports the stage's name, as given to the loader.
func (s *Stage) Name() string {
	return s.name
}

// Stats returns a snapshot of this Stage's processed/transient-failure
// counters. pipeline.Pipeline surfaces this through an optional
// interface check, since a dynamically loaded plugin stage has no
// obligation to expose counters of its own.
func (s *Stage) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// Init allocates the Stage's input Channel at the given capacity and
// starts its consumer goroutine. Init may be called at most once.
func (s *Stage) Init(queueSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("stage %q: %w", s.name, errs.ErrInit)
	}
	in, err := queue.New(queueSize)
	if err != nil {
		return fmt.Errorf("stage %q: %w", s.name, err)
	}
	s.in = in
	s.done = make(chan struct{})
	s.started = true
	go s.run()
	return nil
}

// Attach wires next as the destination for every line this Stage
// transforms. Attach may be called at most once; a nil next marks this
// Stage as the terminal stage of the pipeline.
func (s *Stage) Attach(next PlaceWorkFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return fmt.Errorf("stage %q: %w", s.name, errs.ErrWire)
	}
	s.forward = next
	s.attached = true
	return nil
}

// PlaceWork enqueues line for this Stage to process. PlaceWork blocks
// while the Stage's input Channel is full.
func (s *Stage) PlaceWork(line string) error {
	if err := s.in.Put(line); err != nil {
		return fmt.Errorf("stage %q: %w", s.name, errs.ErrFeed)
	}
	return nil
}

// WaitFinished blocks until this Stage's consumer goroutine has observed
// the terminator and exited.
func (s *Stage) WaitFinished() error {
	s.in.WaitFinished()
	<-s.done
	return nil
}

// Fini releases this Stage's input Channel. Fini must be called only
// after WaitFinished has returned. Calling Fini on a Stage whose Init
// never completed successfully (the construction-rollback path in
// pipeline.Build) is a safe no-op, matching
// plugin_fini's own "plugin not initialized" guard.
func (s *Stage) Fini() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.in.Close()
	return nil
}

// forwardFunc reads s.forward under s.mu. Init starts run's goroutine
// before Attach has necessarily been called, so every read of s.forward
// from inside run must go through the same lock Attach writes it under.
func (s *Stage) forwardFunc() PlaceWorkFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forward
}

// run is the consumer goroutine: get, transform, forward, loop. Matches
// plugin_consumer_thread's four-step cycle exactly, translated from C's
// out != in double-free guard (unnecessary under Go's garbage collector)
// into a plain (string, error) return.
func (s *Stage) run() {
	defer close(s.done)
	for {
		in, err := s.in.Get()
		if err != nil {
			s.in.SignalFinished()
			return
		}

		if transform.IsTerminator(in) {
			if forward := s.forwardFunc(); forward != nil {
				if err := forward(queue.Terminator); err != nil {
					s.logger.Error("forward terminator failed", "error", err)
				}
			}
			s.in.SignalFinished()
			return
		}

		out, err := s.transform(in)
		if err != nil {
			s.stats.TransientFailure()
			s.logger.Warn("transform transient failure", "error", err)
			continue
		}

		if forward := s.forwardFunc(); forward != nil {
			if err := forward(out); err != nil {
				s.logger.Error("forward failed", "error", err)
			}
		}
		s.stats.Processed()
	}
}
