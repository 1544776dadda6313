package config

import (
	"fmt"
	"strings"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/module"
	"archcheck/internal/engine/pattern"

	"github.com/gobwas/glob"
)

// Validate returns every problem found in cfg, in section order. Pattern
// problems keep their INVALID_PATTERN code; the rest are VALIDATION_ERROR.
func Validate(cfg *Config) []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(validateVersion(cfg))
	add(validateInclude(cfg))
	add(validateExclude(cfg))
	errs = append(errs, validateModules(cfg)...)
	add(validateAnalysis(cfg))
	add(validateWatch(cfg))
	add(validateObservability(cfg))
	add(validateOutput(cfg))
	return errs
}

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeValidationError, format, args...)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateInclude(cfg *Config) error {
	if _, err := pattern.Compile(cfg.Include...); err != nil {
		return errors.AddContext(err, errors.CtxOperation, "include")
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, p := range cfg.Exclude {
		if _, err := glob.Compile(p, '/'); err != nil {
			return invalid("exclude[%d] %q is not a valid glob: %v", i, p, err)
		}
	}
	return nil
}

func validateModules(cfg *Config) []error {
	var errs []error
	seen := make(map[string]bool, len(cfg.Modules))
	for i, m := range cfg.Modules {
		ref := fmt.Sprintf("modules[%d]", i)
		if m.Name == "" {
			errs = append(errs, invalid("%s.name must not be empty", ref))
			continue
		}
		if seen[m.Name] {
			errs = append(errs, invalid("duplicate module name %q", m.Name))
		}
		seen[m.Name] = true
		if len(m.Include) == 0 {
			errs = append(errs, invalid("module %q must include at least one pattern", m.Name))
		}
	}
	for _, m := range cfg.Modules {
		for _, use := range m.Use {
			ref, ok := moduleRef(use)
			if !ok {
				continue
			}
			if !seen[ref] {
				errs = append(errs, invalid("module %q uses unknown module %q", m.Name, ref))
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}

	modules, err := cfg.BuildModules()
	if err != nil {
		return []error{err}
	}
	for _, m := range modules {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 1 {
		return invalid("analysis.workers must be >= 1, got %d", cfg.Analysis.Workers)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		return invalid("watch.max_runs_per_second must be > 0")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddress)
	if addr != "" && !strings.Contains(addr, ":") {
		return invalid("observability.metrics_address %q must be host:port", addr)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatText, FormatJSON, FormatYAML, FormatSARIF:
	default:
		return invalid("output.format must be one of: text, json, yaml, sarif; got %q", cfg.Output.Format)
	}
	if cfg.Output.Path != "" && cfg.Output.Path == cfg.Output.DOT {
		return invalid("output conflict: output.path and output.dot share the same path %q", cfg.Output.Path)
	}
	return nil
}

// moduleRef reports whether a use entry names another module.
func moduleRef(use string) (string, bool) {
	if strings.HasPrefix(use, "@") {
		return strings.TrimPrefix(use, "@"), true
	}
	return "", false
}

// BuildModules turns the declared modules into module values, expanding
// "@name" use entries to the named module's includes.
func (c *Config) BuildModules() ([]module.Module, error) {
	byName := make(map[string]Module, len(c.Modules))
	for _, m := range c.Modules {
		byName[m.Name] = m
	}

	out := make([]module.Module, 0, len(c.Modules))
	for _, m := range c.Modules {
		b := module.New(m.Name).Include(m.Include...)
		for _, use := range m.Use {
			ref, ok := moduleRef(use)
			if !ok {
				b.Use(use)
				continue
			}
			target, found := byName[ref]
			if !found {
				return nil, (&errors.DomainError{
					Code:    errors.CodeValidationError,
					Message: "unknown module reference",
				}).WithContext(errors.CtxModule, ref)
			}
			b.Use(target.Include...)
		}
		out = append(out, b.Build())
	}
	return out, nil
}

// Includes returns the unit globs selecting what to analyze.
func (c *Config) Includes() []string {
	if len(c.Include) > 0 {
		return append([]string(nil), c.Include...)
	}
	if modules, err := c.BuildModules(); err == nil {
		if includes := module.Includes(modules); len(includes) > 0 {
			return includes
		}
	}
	return []string{"**"}
}
