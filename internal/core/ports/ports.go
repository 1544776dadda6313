package ports

import (
	"context"
	"time"

	"archcheck/internal/data/history"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/graph"
	"archcheck/internal/engine/module"
	"archcheck/internal/engine/scanner"
)

// UnitSource abstracts classpath discovery so analysis can run over any
// stream of named class units.
type UnitSource interface {
	Scan(ctx context.Context, roots []string, match scanner.Match, handle scanner.Handler) error
}

// HistoryStore abstracts snapshot persistence for trend workflows.
type HistoryStore interface {
	SaveSnapshot(projectKey string, snapshot history.Snapshot) error
	LoadSnapshots(projectKey string, since time.Time) ([]history.Snapshot, error)
}

// Violation kinds reported by a check run.
const (
	KindUnitCycle      = "unit_cycle"
	KindPackageCycle   = "package_cycle"
	KindModuleBoundary = "module_boundary"
	KindUnusedUse      = "unused_use"
	KindUncovered      = "uncovered"
)

// Granularities a cycle can be found at.
const (
	GranularityUnit    = "unit"
	GranularityPackage = "package"
)

// CycleFinding is the first cycle found at one granularity. Edges[i] lists
// the unit references behind the step Path[i] -> Path[i+1].
type CycleFinding struct {
	Granularity string         `json:"granularity" yaml:"granularity"`
	Path        []string       `json:"path" yaml:"path"`
	Edges       [][]graph.Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Violation is one failed assertion with its human-readable message.
type Violation struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// CheckReport is the full outcome of one check run.
type CheckReport struct {
	RunID        string               `json:"run_id" yaml:"run_id"`
	Project      string               `json:"project" yaml:"project"`
	StartedAt    time.Time            `json:"started_at" yaml:"started_at"`
	Duration     time.Duration        `json:"duration_ns" yaml:"duration_ns"`
	Units        int                  `json:"units" yaml:"units"`
	Packages     int                  `json:"packages" yaml:"packages"`
	Edges        int                  `json:"edges" yaml:"edges"`
	Modules      int                  `json:"modules" yaml:"modules"`
	UnitCycle    *CycleFinding        `json:"unit_cycle,omitempty" yaml:"unit_cycle,omitempty"`
	PackageCycle *CycleFinding        `json:"package_cycle,omitempty" yaml:"package_cycle,omitempty"`
	Inspections  []module.Inspection  `json:"inspections,omitempty" yaml:"inspections,omitempty"`
	Uncovered    []string             `json:"uncovered,omitempty" yaml:"uncovered,omitempty"`
	Hotspots     []graph.NodeMetrics  `json:"hotspots,omitempty" yaml:"hotspots,omitempty"`
	MaxFanOut    int                  `json:"max_fan_out" yaml:"max_fan_out"`
	Violations   []Violation          `json:"violations" yaml:"violations"`
	Analyzed     []classfile.UnitInfo `json:"-" yaml:"-"`
}

// Passed reports whether the run found no violations.
func (r CheckReport) Passed() bool {
	return len(r.Violations) == 0
}

// TrendRequest selects the snapshots a trend report covers.
type TrendRequest struct {
	Since  time.Time
	Window time.Duration
}

// TraceRequest asks for the shortest dependency chain between two
// identifiers at one granularity. MaxDepth 0 means unlimited.
type TraceRequest struct {
	From        string
	To          string
	Granularity string
	MaxDepth    int
}

// TraceResult is a shortest dependency chain. Edges[i] lists the unit
// references behind the step Path[i] -> Path[i+1].
type TraceResult struct {
	From        string         `json:"from" yaml:"from"`
	To          string         `json:"to" yaml:"to"`
	Granularity string         `json:"granularity" yaml:"granularity"`
	Path        []string       `json:"path" yaml:"path"`
	Depth       int            `json:"depth" yaml:"depth"`
	Edges       [][]graph.Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// AnalysisService is the driving-port surface used by the CLI and watch mode.
type AnalysisService interface {
	AnalyzeClasspath(ctx context.Context, includes []string) ([]classfile.UnitInfo, error)
	RunCheck(ctx context.Context) (CheckReport, error)
	Trend(ctx context.Context, req TrendRequest) (history.TrendReport, error)
	Trace(ctx context.Context, req TraceRequest) (TraceResult, error)
}
