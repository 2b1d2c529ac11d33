package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// run from an empty directory so no .env is picked up
	t.Chdir(t.TempDir())

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port: got %d, want 8080", cfg.Port)
	}
	if cfg.MinPersonArea != 65000 {
		t.Errorf("MinPersonArea: got %d, want 65000", cfg.MinPersonArea)
	}
	if cfg.ProcessFacesEveryNFrames != 5 {
		t.Errorf("ProcessFacesEveryNFrames: got %d, want 5", cfg.ProcessFacesEveryNFrames)
	}
	if cfg.SampleInterval != 0 {
		t.Errorf("SampleInterval: got %v, want 0", cfg.SampleInterval)
	}
	if cfg.PersonThreshold != 0.5 || cfg.FaceThreshold != 0.4 {
		t.Errorf("thresholds: got %v/%v, want 0.5/0.4", cfg.PersonThreshold, cfg.FaceThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FENCE_X_MIN_REL", "0.1")
	t.Setenv("POSITIVE_IMPACT_SECONDS", "7.5")
	t.Setenv("GRACE_PERIOD_SECONDS", "1.5")
	t.Setenv("SAMPLE_INTERVAL_MS", "250")
	t.Setenv("GPIO_ENABLED", "false")
	t.Setenv("MIN_PERSON_AREA", "not-a-number")

	cfg := Load()

	if cfg.FenceXMin != 0.1 {
		t.Errorf("FenceXMin: got %v, want 0.1", cfg.FenceXMin)
	}
	if cfg.GPIOEnabled {
		t.Error("GPIOEnabled should be false")
	}
	if cfg.MinPersonArea != 65000 {
		t.Errorf("invalid MIN_PERSON_AREA should fall back to default, got %d", cfg.MinPersonArea)
	}
	if cfg.SampleInterval != 250*time.Millisecond {
		t.Errorf("SampleInterval: got %v, want 250ms", cfg.SampleInterval)
	}

	timing := cfg.Timing()
	if timing.ImpactAfter != 7500*time.Millisecond || timing.GracePeriod != 1500*time.Millisecond {
		t.Errorf("Timing: got %+v", timing)
	}
	if s := cfg.SamplerConfig(); s.Interval != 250*time.Millisecond || s.Fence.XMin != 0.1 {
		t.Errorf("SamplerConfig: got %+v", s)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "MAX_FACE_ASPECT_RATIO=1.2\nLED_PIN=GPIO27\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Setenv("LED_PIN", "GPIO22")
	t.Cleanup(func() { os.Unsetenv("MAX_FACE_ASPECT_RATIO") })

	cfg := Load()

	if cfg.MaxFaceAspectRatio != 1.2 {
		t.Errorf("MaxFaceAspectRatio: got %v, want 1.2", cfg.MaxFaceAspectRatio)
	}
	if cfg.LEDPin != "GPIO22" {
		t.Errorf("environment should win over .env, got %s", cfg.LEDPin)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"inverted fence", func(c *Config) { c.FenceXMin, c.FenceXMax = 0.8, 0.2 }},
		{"zero impact seconds", func(c *Config) { c.PositiveImpactSeconds = 0 }},
		{"negative grace", func(c *Config) { c.GracePeriodSeconds = -1 }},
		{"face threshold above one", func(c *Config) { c.FaceThreshold = 1.5 }},
		{"zero processing width", func(c *Config) { c.ProcessingWidth = 0 }},
		{"zero decimation", func(c *Config) { c.ProcessFacesEveryNFrames = 0 }},
		{"empty evidence buffer", func(c *Config) { c.EvidenceBufferLimit = 0 }},
		{"zero flush interval", func(c *Config) { c.EvidenceFlushInterval = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			cfg := Load()
			tc.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
