package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"archcheck/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML config, applies defaults and ARCHCHECK_* overrides, and
// validates the result. Module globs are compiled here so pattern errors
// surface before any analysis.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, (&errors.DomainError{
				Code:    errors.CodeNotFound,
				Message: "config file not found",
				Err:     err,
			}).WithContext(errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read config"), errors.CtxPath, path)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		cfg.dir = abs
	}
	return cfg, nil
}

// Parse decodes and validates config text.
func Parse(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, errors.Newf(errors.CodeValidationError, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Checks.UnitCycles == nil {
		cfg.Checks.UnitCycles = boolPtr(true)
	}
	if cfg.Checks.PackageCycles == nil {
		cfg.Checks.PackageCycles = boolPtr(true)
	}
	if cfg.Checks.ModuleBoundaries == nil {
		cfg.Checks.ModuleBoundaries = boolPtr(true)
	}
	if cfg.Checks.UnusedUses == nil {
		cfg.Checks.UnusedUses = boolPtr(false)
	}
	if cfg.Checks.Uncovered == nil {
		cfg.Checks.Uncovered = boolPtr(false)
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = defaultWorkers()
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		cfg.Watch.MaxRunsPerSecond = 1
	}

	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "archcheck"
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = FormatText
	}
}

func normalize(cfg *Config) {
	cfg.Classpath = trimAll(cfg.Classpath)
	cfg.Include = trimAll(cfg.Include)
	cfg.Exclude = trimAll(cfg.Exclude)
	for i := range cfg.Modules {
		m := &cfg.Modules[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Include = trimAll(m.Include)
		m.Use = trimAll(m.Use)
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.History.Project = strings.TrimSpace(cfg.History.Project)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
