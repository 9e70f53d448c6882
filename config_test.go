package server

import "testing"

func TestNormalizedFillsDefaults(t *testing.T) {
	cfg := CabinetConfig{}.normalized()

	if cfg.Width != defaultWorldWidth || cfg.Height != defaultWorldHeight {
		t.Fatalf("dimensions not defaulted: %fx%f", cfg.Width, cfg.Height)
	}
	if cfg.ToyCount != defaultToyCount {
		t.Fatalf("toy count not defaulted: %d", cfg.ToyCount)
	}
	if cfg.Seed != defaultWorldSeed {
		t.Fatalf("seed not defaulted: %q", cfg.Seed)
	}
	if cfg.GrabPolicy != TriggerPolicyEdge {
		t.Fatalf("grab policy not defaulted: %q", cfg.GrabPolicy)
	}
	if cfg.ReleasePolicy != TriggerPolicyWindow {
		t.Fatalf("release policy not defaulted: %q", cfg.ReleasePolicy)
	}
	if cfg.ReleaseWindow != releaseWindowTicks {
		t.Fatalf("release window not defaulted: %d", cfg.ReleaseWindow)
	}
}

func TestNormalizedKeepsZeroCredits(t *testing.T) {
	cfg := CabinetConfig{StartingCredits: 0}.normalized()
	if cfg.StartingCredits != 0 {
		t.Fatalf("an explicit zero balance must survive, got %d", cfg.StartingCredits)
	}

	cfg = CabinetConfig{StartingCredits: -1}.normalized()
	if cfg.StartingCredits != defaultCredits {
		t.Fatalf("negative balance should fall back to the default, got %d", cfg.StartingCredits)
	}
}

func TestNormalizedTrimsSeed(t *testing.T) {
	cfg := CabinetConfig{Seed: "  arcade-7  "}.normalized()
	if cfg.Seed != "arcade-7" {
		t.Fatalf("seed not trimmed: %q", cfg.Seed)
	}
}

func TestNormalizedRejectsUnknownPolicies(t *testing.T) {
	cfg := CabinetConfig{GrabPolicy: "hold", ReleasePolicy: "hold"}.normalized()
	if cfg.GrabPolicy != TriggerPolicyEdge {
		t.Fatalf("unknown grab policy should fall back to edge, got %q", cfg.GrabPolicy)
	}
	if cfg.ReleasePolicy != TriggerPolicyWindow {
		t.Fatalf("unknown release policy should fall back to window, got %q", cfg.ReleasePolicy)
	}
}
