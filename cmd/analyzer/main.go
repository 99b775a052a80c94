// Command analyzer drives a linear text-transform pipeline: it parses a
// queue size and an ordered list of stage names, builds the pipeline,
// feeds it stdin line by line, and shuts it down once the terminator has
// propagated through every stage.
//
// Exit codes: 0 success, 1 usage/load/wire/feed/shutdown error, 2 a
// stage's Init failed during construction.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/itayaharoni2/lineflow/internal/config"
	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/internal/stats"
	"github.com/itayaharoni2/lineflow/internal/telemetry"
	"github.com/itayaharoni2/lineflow/loader"
	"github.com/itayaharoni2/lineflow/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:], os.Environ, os.Stdin, os.Stdout, os.Stderr))
}

func run(argv []string, environ func() []string, stdin *os.File, stdout, stderr *os.File) int {
	cfg, err := config.Parse(argv, envLookup(environ))
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stdout, config.Usage(progName()))
		return 1
	}

	root := telemetry.Root(stderr, cfg.Debug)
	line := telemetry.NewLineWriter(stdout)
	ld := loader.NewSelect(cfg.Mode, root, line, cfg.PluginDir)

	ctx := context.Background()
	p, err := pipeline.Build(ctx, ld, cfg.Stages, cfg.QueueSize, root)
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errs.ErrInit) {
			return 2
		}
		return 1
	}

	if err := p.Feed(stdin); err != nil {
		fmt.Fprintln(stderr, err)
		_ = p.Shutdown()
		return 1
	}

	if err := p.Shutdown(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if cfg.StatsFlag {
		printStats(stderr, p.StageNames(), p.Stats())
	}

	fmt.Fprint(stdout, "Pipeline shutdown complete\n")
	return 0
}

func printStats(stderr *os.File, names []string, snapshots map[string]stats.Snapshot) {
	for _, name := range names {
		snap, ok := snapshots[name]
		if !ok {
			continue
		}
		fmt.Fprintf(stderr, "[stats] %s: processed=%d transient_failures=%d\n",
			name, snap.Processed, snap.TransientFailure)
	}
}

func progName() string {
	if len(os.Args) == 0 {
		return "analyzer"
	}
	return os.Args[0]
}

func envLookup(environ func() []string) func(string) string {
	vars := make(map[string]string)
	for _, kv := range environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[k] = v
		}
	}
	return func(key string) string { return vars[key] }
}
