package config

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() config should validate cleanly, got %v", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
}

func TestValidateRejectsNonPositiveParallelism(t *testing.T) {
	cfg := Default()
	cfg.Optimizer.DefaultParallelism = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a non-positive default parallelism")
	}
}

func TestValidateRejectsOutOfRangeMemoryFraction(t *testing.T) {
	cfg := Default()
	cfg.Optimizer.MemoryFraction = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a memory fraction above 1")
	}
}

func TestLoadFallsBackToDefaultsWithoutAConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") with no config file present should still succeed via defaults, got %v", err)
	}
	if cfg.Optimizer.DefaultParallelism != Default().Optimizer.DefaultParallelism {
		t.Errorf("expected default parallelism to survive an empty config file, got %d", cfg.Optimizer.DefaultParallelism)
	}
}

func TestYAMLRendersOptimizerBlock(t *testing.T) {
	cfg := Default()
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if !strings.Contains(out, "defaultParallelism:") {
		t.Errorf("expected the rendered YAML to contain the optimizer block, got:\n%s", out)
	}
}

func TestClusterTimeoutDerivesFromSeconds(t *testing.T) {
	cfg := Default()
	cfg.Optimizer.ClusterTimeoutSecs = 5
	if got := cfg.ClusterTimeout().Seconds(); got != 5 {
		t.Errorf("expected a 5 second cluster timeout, got %v", got)
	}
}
