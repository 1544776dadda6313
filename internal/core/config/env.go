package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ARCHCHECK_[SECTION]_[KEY] (e.g., ARCHCHECK_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvList(&cfg.Classpath, "ARCHCHECK_CLASSPATH")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "ARCHCHECK_ANALYSIS_WORKERS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ARCHCHECK_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "ARCHCHECK_WATCH_MAX_RUNS_PER_SECOND")

	// History
	setEnvBool(&cfg.History.Enabled, "ARCHCHECK_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ARCHCHECK_HISTORY_PATH")
	setEnvString(&cfg.History.Project, "ARCHCHECK_HISTORY_PROJECT")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "ARCHCHECK_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ARCHCHECK_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.Insecure, "ARCHCHECK_OBSERVABILITY_INSECURE")

	// Output
	setEnvString(&cfg.Output.Format, "ARCHCHECK_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "ARCHCHECK_OUTPUT_PATH")
	setEnvString(&cfg.Output.DOT, "ARCHCHECK_OUTPUT_DOT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("Applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("Applying env override", "key", key, "value", val)
		*target = trimAll(filepath.SplitList(val))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("Applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("Applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("Applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("Applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
