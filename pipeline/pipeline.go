// Package pipeline builds and drives a linear chain of stages: load each
// stage's module, initialize it with the configured queue size, wire each
// stage to the next, feed it lines from a reader, and shut it down in
// reverse order once the terminator has propagated through.
//
// The four construction phases and the rollback-on-failure behavior
// during Initialize are a direct translation of
// original_source/main.c's load_plugin/init_plugin/wire_plugins
// sequence and init_plugin's own rollback loop.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/internal/stats"
	"github.com/itayaharoni2/lineflow/internal/telemetry"
	"github.com/itayaharoni2/lineflow/loader"
	"github.com/itayaharoni2/lineflow/queue"
)

// maxLineLength mirrors original_source/main.c's MAX_LINE_LEN: Feed
// accepts lines of up to this many bytes (newline excluded); a longer
// line stops Feed with errs.ErrFeed, since Go's bufio.Scanner has no
// silent-truncation mode (see DESIGN.md for the resolved Open Question).
const maxLineLength = 1024

// Pipeline is an ordered chain of loaded, initialized, and wired stage
// modules.
type Pipeline struct {
	loader loader.Loader
	stages []loader.StageModule
	logger *slog.Logger
}

// Build runs the four construction phases (Parse is the caller's
// responsibility, via internal/config) for the given stage names: Load
// each name through ld, Init each loaded module with queueSize, and wire
// each stage's Attach to the next stage's PlaceWork.
//
// On any Load or Init failure, Build rolls back every already-loaded
// stage (Fini in reverse order, then ld.Close) before returning; an Init
// failure is reported wrapped with errs.ErrInit. This matches
// original_source/main.c's init_plugin rollback loop.
//
// logger is used by Feed to assign and log a trace ID as each line
// enters the pipeline; it is not threaded onto the wire itself, since
// place_work's documented contract is a bare string with no metadata.
func Build(ctx context.Context, ld loader.Loader, names []string, queueSize int, logger *slog.Logger) (*Pipeline, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("pipeline: no stages configured: %w", errs.ErrInit)
	}

	modules := make([]loader.StageModule, 0, len(names))
	for _, name := range names {
		mod, err := ld.Load(ctx, name)
		if err != nil {
			for i := len(modules) - 1; i >= 0; i-- {
				_ = modules[i].Fini()
			}
			_ = ld.Close()
			return nil, fmt.Errorf("pipeline: load %q: %w", name, err)
		}
		modules = append(modules, mod)
	}

	for i, mod := range modules {
		if err := mod.Init(queueSize); err != nil {
			for j := i; j >= 0; j-- {
				_ = modules[j].Fini()
			}
			_ = ld.Close()
			return nil, fmt.Errorf("pipeline: init %q: %w: %w", mod.Name(), errs.ErrInit, err)
		}
	}

	for i := 0; i+1 < len(modules); i++ {
		if err := modules[i].Attach(modules[i+1].PlaceWork); err != nil {
			return nil, fmt.Errorf("pipeline: wire %q -> %q: %w", modules[i].Name(), modules[i+1].Name(), err)
		}
	}
	if err := modules[len(modules)-1].Attach(nil); err != nil {
		return nil, fmt.Errorf("pipeline: wire terminal stage %q: %w", modules[len(modules)-1].Name(), err)
	}

	return &Pipeline{loader: ld, stages: modules, logger: logger}, nil
}

// Feed reads newline-delimited lines from r, strips the trailing
// newline, and places each one on the head stage. Feed stops reading as
// soon as it places queue.Terminator; if r reaches EOF without ever
// producing that line, Feed returns normally having sent nothing of the
// sort. Shutdown will then block in WaitFinished, matching the source
// contract that orderly completion is conditioned on the terminator
// actually reaching the head stage. On a read error (including a line
// longer than maxLineLength) Feed places queue.Terminator on the head
// stage before returning errs.ErrFeed, so a following Shutdown completes.
//
// Each line is assigned a fresh trace ID and logged at ingress; this is
// the correlation point for that line across the run's logs, since
// place_work itself carries only the line.
func (p *Pipeline) Feed(r io.Reader) error {
	head := p.stages[0]
	scanner := bufio.NewScanner(r)
	// One extra byte so a line of exactly maxLineLength bytes still fits
	// alongside its newline.
	scanner.Buffer(make([]byte, maxLineLength+1), maxLineLength+1)

	for scanner.Scan() {
		line := scanner.Text()
		p.logger.Debug("line entered pipeline", "trace_id", telemetry.NewTraceID(), "line", line)
		if err := head.PlaceWork(line); err != nil {
			return fmt.Errorf("pipeline: feed: %w", err)
		}
		if line == queue.Terminator {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		_ = head.PlaceWork(queue.Terminator)
		return fmt.Errorf("pipeline: feed: stdin read error: %w", errs.ErrFeed)
	}
	return nil
}

// Shutdown waits for every stage to finish (in order, matching
// original_source/main.c's teardown loop) and then finalizes every
// stage in reverse order, closing the loader last.
func (p *Pipeline) Shutdown() error {
	for _, mod := range p.stages {
		if err := mod.WaitFinished(); err != nil {
			return fmt.Errorf("pipeline: wait_finished %q: %w", mod.Name(), err)
		}
	}

	var firstErr error
	for i := len(p.stages) - 1; i >= 0; i-- {
		if err := p.stages[i].Fini(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pipeline: fini %q: %w", p.stages[i].Name(), err)
		}
	}
	if err := p.loader.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("pipeline: loader close: %w", err)
	}
	if firstErr != nil {
		return firstErr
	}
	return nil
}

// StageNames returns the names of every stage in pipeline order,
// intended for diagnostics.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, mod := range p.stages {
		names[i] = mod.Name()
	}
	return names
}

type statsReporter interface {
	Stats() stats.Snapshot
}

// Stats returns a processed/transient-failure snapshot for every stage
// that exposes one. A dynamically loaded plugin stage with no Stats
// method of its own is simply absent from the result.
func (p *Pipeline) Stats() map[string]stats.Snapshot {
	out := make(map[string]stats.Snapshot)
	for _, mod := range p.stages {
		if r, ok := mod.(statsReporter); ok {
			out[mod.Name()] = r.Stats()
		}
	}
	return out
}
