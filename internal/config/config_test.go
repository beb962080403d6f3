package config

import "testing"

func TestDefaultIsUsableStandalone(t *testing.T) {
	c := Default()
	if c.DefaultHeuristic == "" || c.DefaultInit == "" {
		t.Fatal("defaults must set a heuristic and init policy")
	}
	if c.RunTimeoutMs <= 0 {
		t.Fatal("default run timeout must be positive")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != Default().Port {
		t.Fatalf("expected default port, got %s", c.Port)
	}
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("CLUSTER_DEFAULT_HEURISTIC", "sequential")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultHeuristic != "sequential" {
		t.Fatalf("expected env override to apply, got %s", c.DefaultHeuristic)
	}
}
