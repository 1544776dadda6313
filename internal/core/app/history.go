package app

import (
	"context"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/data/history"
)

// SnapshotOf condenses a report into the counters stored in history.
func SnapshotOf(report ports.CheckReport) history.Snapshot {
	snapshot := history.Snapshot{
		RunID:        report.RunID,
		ProjectKey:   report.Project,
		Timestamp:    report.StartedAt,
		UnitCount:    report.Units,
		PackageCount: report.Packages,
		EdgeCount:    report.Edges,
		ModuleCount:  report.Modules,
		Passed:       report.Passed(),
	}
	if report.UnitCycle != nil {
		snapshot.UnitCycle = 1
	}
	if report.PackageCycle != nil {
		snapshot.PackageCycle = 1
	}
	for _, in := range report.Inspections {
		snapshot.UndeclaredCount += len(in.Undeclared)
		snapshot.UnusedCount += len(in.Unused)
	}
	snapshot.UncoveredCount = len(report.Uncovered)
	if report.Units > 0 {
		snapshot.AvgFanOut = float64(report.Edges) / float64(report.Units)
	}
	if len(report.Hotspots) > 0 {
		snapshot.MaxFanIn = report.Hotspots[0].FanIn
	}
	snapshot.MaxFanOut = report.MaxFanOut
	return snapshot
}

func (a *App) recordSnapshot(report ports.CheckReport) error {
	if a.history == nil {
		return nil
	}
	return a.history.SaveSnapshot(report.Project, SnapshotOf(report))
}

// Trend loads the project's snapshots and derives a trend report.
func (a *App) Trend(ctx context.Context, req ports.TrendRequest) (history.TrendReport, error) {
	if err := ctx.Err(); err != nil {
		return history.TrendReport{}, err
	}
	if a.history == nil {
		return history.TrendReport{}, errors.New(errors.CodeValidationError, "history is disabled; set history.enabled = true")
	}
	project := config.ProjectName(a.Config)
	snapshots, err := a.history.LoadSnapshots(project, req.Since)
	if err != nil {
		return history.TrendReport{}, errors.AddContext(err, errors.CtxOperation, "load_snapshots")
	}
	return history.BuildTrendReport(project, snapshots, req.Window)
}
