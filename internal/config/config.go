package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultShiftLabels are the labels offered when nothing is configured.
var DefaultShiftLabels = []string{
	"Morning (06:00 - 14:00)",
	"Afternoon (14:00 - 22:00)",
	"Night (22:00 - 06:00)",
}

// StationOverride replaces station-level defaults for one station id.
type StationOverride struct {
	ShiftLabels  []string `yaml:"shift_labels"`
	HistoryLimit int      `yaml:"history_limit"`
}

// Config is the process configuration.
type Config struct {
	DatabaseURL  string                     `yaml:"database_url"`
	StationID    string                     `yaml:"station_id"`
	MetricsAddr  string                     `yaml:"metrics_addr"`
	HistoryLimit int                        `yaml:"history_limit"`
	ShiftLabels  []string                   `yaml:"shift_labels"`
	SeedCatalog  bool                       `yaml:"seed_catalog"`
	Stations     map[string]StationOverride `yaml:"stations"`
}

// Load reads defaults and environment, then the YAML file named by
// SHIFT_CONFIG when set.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:  getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		StationID:    getenvDefault("STATION_ID", "1"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		HistoryLimit: getenvIntDefault("HISTORY_LIMIT", 50),
		ShiftLabels:  splitCSV(os.Getenv("SHIFT_LABELS")),
		SeedCatalog:  getenvBoolDefault("SEED_CATALOG", true),
	}

	if path := os.Getenv("SHIFT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if len(cfg.ShiftLabels) == 0 {
		cfg.ShiftLabels = append([]string(nil), DefaultShiftLabels...)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if strings.TrimSpace(cfg.StationID) == "" {
		return cfg, errors.New("config: station id required")
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL or PG_DSN required")
	}
	return cfg, nil
}

// ForStation returns the configuration with the station override applied.
func (c Config) ForStation(stationID string) Config {
	out := c
	out.StationID = stationID
	override, ok := c.Stations[stationID]
	if !ok {
		return out
	}
	if len(override.ShiftLabels) > 0 {
		out.ShiftLabels = append([]string(nil), override.ShiftLabels...)
	}
	if override.HistoryLimit > 0 {
		out.HistoryLimit = override.HistoryLimit
	}
	return out
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
