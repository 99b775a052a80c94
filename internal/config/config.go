// Package config parses the driver's positional argument form, its
// environment-variable switches, and its optional YAML manifest file.
// These are the three inputs original_source/main.c's
// pipeline_configuration_t covers via argv and
// print_error_and_exit(1, /*print_usage=*/1, ...).
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/loader"
)

// Config is the fully resolved runtime configuration for one pipeline
// run.
type Config struct {
	QueueSize int
	Stages    []string
	Mode      loader.Mode
	PluginDir string
	Debug     bool
	StatsFlag bool
}

// Manifest is the optional -manifest YAML file shape: `queue_size:` and
// `stages: [...]`, grounded on References/orion-prototipe/internal/config's
// YAML-tagged Config struct, trimmed to the two fields this pipeline
// actually needs.
type Manifest struct {
	QueueSize int      `yaml:"queue_size"`
	Stages    []string `yaml:"stages"`
}

// Parse interprets argv (excluding the program name, i.e. os.Args[1:])
// together with the process environment. On a usage error it returns
// errs.ErrUsage wrapped with a message describing the problem; callers
// are expected to print Usage() and exit 1 in that case.
func Parse(argv []string, env func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	manifestPath := fs.String("manifest", "", "read queue size and stage list from a YAML manifest instead of positional arguments")
	pluginDir := fs.String("plugin-dir", ".", "directory searched for bare stage names under classic/fallback plugin loading")
	debug := fs.Bool("debug", false, "enable debug-level logging")
	statsFlag := fs.Bool("stats", false, "print per-stage processed/transient-failure counters on shutdown")

	if err := fs.Parse(argv); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUsage, err)
	}

	cfg := &Config{
		Mode:      resolveMode(env("ANALYZER_NAMESPACE_ISOLATION")),
		PluginDir: *pluginDir,
		Debug:     *debug || env("ANALYZER_DEBUG") != "",
		StatsFlag: *statsFlag,
	}

	if *manifestPath != "" {
		m, err := loadManifest(*manifestPath)
		if err != nil {
			return nil, err
		}
		cfg.QueueSize = m.QueueSize
		cfg.Stages = m.Stages
	} else {
		args := fs.Args()
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: expected <queue_size> <stage...>", errs.ErrUsage)
		}
		size, err := strconv.Atoi(args[0])
		if err != nil || size < 1 {
			return nil, fmt.Errorf("%w: queue_size must be a positive integer, got %q", errs.ErrUsage, args[0])
		}
		cfg.QueueSize = size
		cfg.Stages = args[1:]
	}

	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("%w: queue_size must be a positive integer, got %d", errs.ErrUsage, cfg.QueueSize)
	}
	if len(cfg.Stages) == 0 {
		return nil, fmt.Errorf("%w: at least one stage name is required", errs.ErrUsage)
	}

	return cfg, nil
}

// resolveMode maps ANALYZER_NAMESPACE_ISOLATION to a loader.Mode.
// Unset (or any value other than "0") selects loader.ModeIsolated;
// exactly "0" selects loader.ModeClassic.
func resolveMode(raw string) loader.Mode {
	if raw == "0" {
		return loader.ModeClassic
	}
	return loader.ModeIsolated
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest %s: %v", errs.ErrUsage, path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest %s: %v", errs.ErrUsage, path, err)
	}
	return &m, nil
}

// Usage returns the driver's usage text, listing every built-in stage
// with a one-line summary and two example invocations.
func Usage(prog string) string {
	return fmt.Sprintf(`Usage: %s [flags] <queue_size> <stage...>
       %s -manifest <file.yaml> [flags]

Built-in stages:
  logger       logs each line to stdout as "[logger] <line>"
  uppercaser   converts ASCII lowercase letters to uppercase
  rotator      rotates the line one byte to the right
  flipper      reverses the byte order of the line
  expander     inserts a space between every byte of the line
  typewriter   prints the line one byte at a time with a 100ms delay

Flags:
  -manifest <file>    read queue size and stage list from a YAML file
  -plugin-dir <dir>   directory searched for stage names resolved by the plugin loader (default ".")
  -debug              enable debug-level logging
  -stats              print per-stage counters on shutdown

Environment:
  ANALYZER_NAMESPACE_ISOLATION=0   force every stage through the plugin loader
  ANALYZER_DEBUG=1                 equivalent to -debug

Examples:
  %s 4 uppercaser logger
  %s 1 flipper rotator expander logger
`, prog, prog, prog, prog)
}
