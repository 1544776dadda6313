package config

import (
	"runtime"
	"time"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "archcheck.toml"

type Config struct {
	Version int `toml:"version"`
	// Classpath lists directories, jar/zip archives, single .class files and
	// "dir/*" wildcards, resolved relative to the config file.
	Classpath []string `toml:"classpath"`
	// Include selects the units to analyze. Empty means the union of all
	// module includes, or every unit when no modules are declared.
	Include []string `toml:"include"`
	// Exclude holds slash-separated path globs skipped during scanning.
	Exclude        []string      `toml:"exclude"`
	FollowManifest bool          `toml:"follow_manifest"`
	Modules        []Module      `toml:"modules"`
	Checks         Checks        `toml:"checks"`
	Analysis       Analysis      `toml:"analysis"`
	Watch          Watch         `toml:"watch"`
	History        History       `toml:"history"`
	Observability  Observability `toml:"observability"`
	Output         Output        `toml:"output"`

	// dir is the directory holding the loaded file.
	dir string
}

// Module declares one architectural boundary. A use entry of the form
// "@name" permits everything another module includes.
type Module struct {
	Name    string   `toml:"name"`
	Include []string `toml:"include"`
	Use     []string `toml:"use"`
}

// Checks toggles each assertion of a check run. Module boundary and unused
// use checks need declared modules; uncovered reports every unit when none
// are declared.
type Checks struct {
	UnitCycles       *bool `toml:"unit_cycles"`
	PackageCycles    *bool `toml:"package_cycles"`
	ModuleBoundaries *bool `toml:"module_boundaries"`
	UnusedUses       *bool `toml:"unused_uses"`
	Uncovered        *bool `toml:"uncovered"`
}

type Analysis struct {
	Workers int `toml:"workers"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
	LogFile          bool          `toml:"log_file"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	Project     string        `toml:"project"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	Insecure       bool   `toml:"insecure"`
	ServiceName    string `toml:"service_name"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
	DOT    string `toml:"dot"`
}

// Output formats accepted by output.format.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatSARIF = "sarif"
)

// Default returns a configuration with every default applied, for runs
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	normalize(cfg)
	return cfg
}

// Dir is the directory relative paths are resolved against.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

func (c Checks) UnitCyclesOn() bool       { return boolValue(c.UnitCycles, true) }
func (c Checks) PackageCyclesOn() bool    { return boolValue(c.PackageCycles, true) }
func (c Checks) ModuleBoundariesOn() bool { return boolValue(c.ModuleBoundaries, true) }
func (c Checks) UnusedUsesOn() bool       { return boolValue(c.UnusedUses, false) }
func (c Checks) UncoveredOn() bool        { return boolValue(c.Uncovered, false) }

func boolValue(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func boolPtr(v bool) *bool {
	return &v
}

func defaultWorkers() int {
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 1
}
