package history

import "time"

const SchemaVersion = 1

// Snapshot records the outcome of one check run.
type Snapshot struct {
	SchemaVersion int       `json:"schema_version" yaml:"schema_version"`
	RunID         string    `json:"run_id" yaml:"run_id"`
	ProjectKey    string    `json:"project" yaml:"project"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	UnitCount     int       `json:"units" yaml:"units"`
	PackageCount  int       `json:"packages" yaml:"packages"`
	EdgeCount     int       `json:"edges" yaml:"edges"`
	ModuleCount   int       `json:"modules" yaml:"modules"`
	// UnitCycle and PackageCycle are 1 when a witness was found, 0 otherwise.
	UnitCycle       int     `json:"unit_cycle" yaml:"unit_cycle"`
	PackageCycle    int     `json:"package_cycle" yaml:"package_cycle"`
	UndeclaredCount int     `json:"undeclared" yaml:"undeclared"`
	UnusedCount     int     `json:"unused" yaml:"unused"`
	UncoveredCount  int     `json:"uncovered" yaml:"uncovered"`
	AvgFanOut       float64 `json:"avg_fan_out" yaml:"avg_fan_out"`
	MaxFanIn        int     `json:"max_fan_in" yaml:"max_fan_in"`
	MaxFanOut       int     `json:"max_fan_out" yaml:"max_fan_out"`
	Passed          bool    `json:"passed" yaml:"passed"`
}

type TrendPoint struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	UnitCount       int       `json:"units" yaml:"units"`
	PackageCount    int       `json:"packages" yaml:"packages"`
	EdgeCount       int       `json:"edges" yaml:"edges"`
	UnitCycle       int       `json:"unit_cycle" yaml:"unit_cycle"`
	PackageCycle    int       `json:"package_cycle" yaml:"package_cycle"`
	UndeclaredCount int       `json:"undeclared" yaml:"undeclared"`
	UnusedCount     int       `json:"unused" yaml:"unused"`
	UncoveredCount  int       `json:"uncovered" yaml:"uncovered"`
	AvgFanOut       float64   `json:"avg_fan_out" yaml:"avg_fan_out"`
	Passed          bool      `json:"passed" yaml:"passed"`

	DeltaUnits      int     `json:"delta_units" yaml:"delta_units"`
	DeltaPackages   int     `json:"delta_packages" yaml:"delta_packages"`
	DeltaEdges      int     `json:"delta_edges" yaml:"delta_edges"`
	DeltaUndeclared int     `json:"delta_undeclared" yaml:"delta_undeclared"`
	DeltaUncovered  int     `json:"delta_uncovered" yaml:"delta_uncovered"`
	DeltaAvgFanOut  float64 `json:"delta_avg_fan_out" yaml:"delta_avg_fan_out"`
	UnitGrowthPct   float64 `json:"unit_growth_pct" yaml:"unit_growth_pct"`
	// AvgUndeclared is the mean undeclared count over the trailing window.
	AvgUndeclared float64 `json:"avg_undeclared" yaml:"avg_undeclared"`
	WindowHours   float64 `json:"window_hours" yaml:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version" yaml:"schema_version"`
	Project       string       `json:"project" yaml:"project"`
	Since         time.Time    `json:"since" yaml:"since"`
	Until         time.Time    `json:"until" yaml:"until"`
	Window        string       `json:"window" yaml:"window"`
	RunCount      int          `json:"run_count" yaml:"run_count"`
	PassRate      float64      `json:"pass_rate" yaml:"pass_rate"`
	Points        []TrendPoint `json:"points" yaml:"points"`
}
