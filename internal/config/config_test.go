package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.RecordBackend != BackendRedis {
		t.Errorf("RecordBackend = %q", cfg.RecordBackend)
	}
	if cfg.RefreshDelay != 600*time.Millisecond || cfg.DebounceWindow != 250*time.Millisecond {
		t.Errorf("delays = %s/%s", cfg.RefreshDelay, cfg.DebounceWindow)
	}
	if cfg.TasteWeight != 0.7 || cfg.DistanceWeight != 0.3 || cfg.MaxDistanceKm != 10 {
		t.Errorf("ranking = %.1f/%.1f/%.1f", cfg.TasteWeight, cfg.DistanceWeight, cfg.MaxDistanceKm)
	}
	if cfg.ResultLimit != 6 {
		t.Errorf("ResultLimit = %d", cfg.ResultLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RECORD_BACKEND", "SQLite")
	t.Setenv("TASTE_WEIGHT", "0.5")
	t.Setenv("AUTO_REFRESH_INTERVAL", "2m")
	t.Setenv("RESULT_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.RecordBackend != BackendSQLite {
		t.Errorf("RecordBackend = %q", cfg.RecordBackend)
	}
	if cfg.TasteWeight != 0.5 {
		t.Errorf("TasteWeight = %v", cfg.TasteWeight)
	}
	if cfg.AutoRefreshInterval != 2*time.Minute {
		t.Errorf("AutoRefreshInterval = %s", cfg.AutoRefreshInterval)
	}
	if cfg.ResultLimit != 6 {
		t.Errorf("unparseable RESULT_LIMIT should fall back, got %d", cfg.ResultLimit)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"RECORD_BACKEND", "mongo"},
		{"DISTANCE_WEIGHT", "-1"},
		{"MAX_DISTANCE_KM", "0"},
		{"AUTO_REFRESH_INTERVAL", "-5s"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
