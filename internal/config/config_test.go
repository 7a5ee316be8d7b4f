package config

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(zap.NewNop())

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTPAddr)
	}
	if cfg.AOIDelta != 0.02 {
		t.Fatalf("unexpected default AOI delta: %v", cfg.AOIDelta)
	}
	if cfg.ConfidenceFloor != 0.3 {
		t.Fatalf("unexpected default confidence floor: %v", cfg.ConfidenceFloor)
	}
	if cfg.MinCoveragePct != 3.0 {
		t.Fatalf("unexpected default coverage threshold: %v", cfg.MinCoveragePct)
	}
	if cfg.CaptureTimeout != 60*time.Second {
		t.Fatalf("unexpected default capture timeout: %v", cfg.CaptureTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MIN_COVERAGE_PCT", "5.5")
	t.Setenv("CAPTURE_TIMEOUT", "90s")

	cfg := Load(zap.NewNop())

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.MinCoveragePct != 5.5 {
		t.Fatalf("unexpected coverage threshold: %v", cfg.MinCoveragePct)
	}
	if cfg.CaptureTimeout != 90*time.Second {
		t.Fatalf("unexpected capture timeout: %v", cfg.CaptureTimeout)
	}
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("CONFIDENCE_FLOOR", "not-a-number")
	t.Setenv("CAPTURE_TIMEOUT", "soon")

	cfg := Load(zap.NewNop())

	if cfg.ConfidenceFloor != 0.3 {
		t.Fatalf("expected default confidence floor, got %v", cfg.ConfidenceFloor)
	}
	if cfg.CaptureTimeout != 60*time.Second {
		t.Fatalf("expected default capture timeout, got %v", cfg.CaptureTimeout)
	}
}
