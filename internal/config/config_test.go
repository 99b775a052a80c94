package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itayaharoni2/lineflow/internal/errs"
	"github.com/itayaharoni2/lineflow/loader"
)

func noEnv(string) string { return "" }

func TestParsePositionalArgs(t *testing.T) {
	cfg, err := Parse([]string{"4", "uppercaser", "logger"}, noEnv)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.QueueSize != 4 {
		t.Fatalf("QueueSize = %d, want 4", cfg.QueueSize)
	}
	if len(cfg.Stages) != 2 || cfg.Stages[0] != "uppercaser" || cfg.Stages[1] != "logger" {
		t.Fatalf("Stages = %v, want [uppercaser logger]", cfg.Stages)
	}
	if cfg.Mode != loader.ModeIsolated {
		t.Fatalf("Mode = %v, want ModeIsolated (default)", cfg.Mode)
	}
}

func TestParseRejectsMissingArguments(t *testing.T) {
	if _, err := Parse(nil, noEnv); !errors.Is(err, errs.ErrUsage) {
		t.Fatalf("Parse(nil) error = %v, want ErrUsage", err)
	}
	if _, err := Parse([]string{"4"}, noEnv); !errors.Is(err, errs.ErrUsage) {
		t.Fatalf("Parse([4]) error = %v, want ErrUsage", err)
	}
}

func TestParseRejectsNonPositiveQueueSize(t *testing.T) {
	if _, err := Parse([]string{"0", "logger"}, noEnv); !errors.Is(err, errs.ErrUsage) {
		t.Fatalf("Parse error = %v, want ErrUsage", err)
	}
	if _, err := Parse([]string{"not-a-number", "logger"}, noEnv); !errors.Is(err, errs.ErrUsage) {
		t.Fatalf("Parse error = %v, want ErrUsage", err)
	}
}

func TestParseNamespaceIsolationEnvSelectsMode(t *testing.T) {
	classic := func(k string) string {
		if k == "ANALYZER_NAMESPACE_ISOLATION" {
			return "0"
		}
		return ""
	}
	cfg, err := Parse([]string{"4", "logger"}, classic)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Mode != loader.ModeClassic {
		t.Fatalf("Mode = %v, want ModeClassic", cfg.Mode)
	}
}

func TestParseDebugEnvEnablesDebug(t *testing.T) {
	env := func(k string) string {
		if k == "ANALYZER_DEBUG" {
			return "1"
		}
		return ""
	}
	cfg, err := Parse([]string{"4", "logger"}, env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Debug {
		t.Fatal("Debug = false, want true when ANALYZER_DEBUG is set")
	}
}

func TestParseManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	content := "queue_size: 8\nstages:\n  - uppercaser\n  - rotator\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Parse([]string{"-manifest", path}, noEnv)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.QueueSize != 8 {
		t.Fatalf("QueueSize = %d, want 8", cfg.QueueSize)
	}
	if len(cfg.Stages) != 2 || cfg.Stages[0] != "uppercaser" || cfg.Stages[1] != "rotator" {
		t.Fatalf("Stages = %v, want [uppercaser rotator]", cfg.Stages)
	}
}

func TestUsageListsAllSixBuiltins(t *testing.T) {
	text := Usage("analyzer")
	for _, name := range []string{"logger", "uppercaser", "rotator", "flipper", "expander", "typewriter"} {
		if !strings.Contains(text, name) {
			t.Fatalf("Usage() missing built-in %q", name)
		}
	}
}
