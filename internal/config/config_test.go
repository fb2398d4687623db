package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "PG_DSN", "STATION_ID", "METRICS_ADDR", "HISTORY_LIMIT", "SHIFT_LABELS", "SEED_CATALOG", "SHIFT_CONFIG"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PG_DSN", "postgres://localhost/shift")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/shift" {
		t.Fatalf("dsn mismatch: got=%s", cfg.DatabaseURL)
	}
	if cfg.StationID != "1" || cfg.HistoryLimit != 50 || !cfg.SeedCatalog {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.ShiftLabels) != len(DefaultShiftLabels) {
		t.Fatalf("expected default labels, got %v", cfg.ShiftLabels)
	}
}

func TestLoad_RequiresDatabase(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without database url")
	}
}

func TestLoad_EnvAndYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/shift")
	t.Setenv("HISTORY_LIMIT", "not-a-number")
	t.Setenv("SHIFT_LABELS", "A, B ,")

	path := filepath.Join(t.TempDir(), "shift.yaml")
	data := []byte(`
station_id: "7"
stations:
  "9":
    shift_labels: ["Day", "Night"]
    history_limit: 10
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SHIFT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StationID != "7" {
		t.Fatalf("yaml station id not applied: %s", cfg.StationID)
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("invalid env limit should fall back: got=%d", cfg.HistoryLimit)
	}
	if len(cfg.ShiftLabels) != 2 || cfg.ShiftLabels[1] != "B" {
		t.Fatalf("labels mismatch: %v", cfg.ShiftLabels)
	}

	station := cfg.ForStation("9")
	if station.HistoryLimit != 10 || len(station.ShiftLabels) != 2 || station.ShiftLabels[0] != "Day" {
		t.Fatalf("override not applied: %+v", station)
	}
	if other := cfg.ForStation("3"); other.HistoryLimit != 50 || other.StationID != "3" {
		t.Fatalf("unexpected config for station without override: %+v", other)
	}
}
