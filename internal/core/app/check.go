package app

import (
	"context"
	"time"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/graph"
	"archcheck/internal/engine/module"
	"archcheck/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// hotspotLimit caps the most depended-on units kept in a report.
const hotspotLimit = 10

// RunCheck analyzes the configured classpath, runs every enabled check and
// records a history snapshot when history is enabled.
func (a *App) RunCheck(ctx context.Context) (ports.CheckReport, error) {
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "App.RunCheck", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	started := a.now()
	units, err := a.AnalyzeClasspath(ctx, a.Config.Includes())
	if err != nil {
		observability.CheckRunsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return ports.CheckReport{}, err
	}

	report, err := a.Evaluate(ctx, units)
	if err != nil {
		observability.CheckRunsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return ports.CheckReport{}, err
	}
	report.RunID = runID
	report.StartedAt = started.UTC()
	report.Duration = a.now().Sub(started)

	outcome := "passed"
	if !report.Passed() {
		outcome = "failed"
	}
	observability.CheckRunsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.Int("violations", len(report.Violations)))

	if err := a.recordSnapshot(report); err != nil {
		a.logger.Warn("failed to record history snapshot", "run_id", runID, "error", err)
	}
	return report, nil
}

// Evaluate runs the enabled checks over already analyzed units.
func (a *App) Evaluate(ctx context.Context, units []classfile.UnitInfo) (ports.CheckReport, error) {
	if err := ctx.Err(); err != nil {
		return ports.CheckReport{}, err
	}
	_, span := observability.Tracer.Start(ctx, "App.Evaluate")
	defer span.End()

	checks := a.Config.Checks
	unitGraph := graph.New(units)
	packages := graph.Collapse(units, graph.PackageOf)
	observability.GraphNodes.WithLabelValues(ports.GranularityUnit).Set(float64(unitGraph.Len()))
	observability.GraphEdges.WithLabelValues(ports.GranularityUnit).Set(float64(unitGraph.EdgeCount()))
	observability.GraphNodes.WithLabelValues(ports.GranularityPackage).Set(float64(len(packages)))

	report := ports.CheckReport{
		Project:  config.ProjectName(a.Config),
		Units:    len(units),
		Packages: len(packages),
		Edges:    unitGraph.EdgeCount(),
		Modules:  len(a.modules),
		Analyzed: units,
	}
	report.Hotspots, report.MaxFanOut = hotspots(unitGraph)
	var violations []*ports.Violation

	if checks.UnitCyclesOn() {
		start := time.Now()
		cycle := graph.FirstUnitCycle(units)
		observability.AnalysisDuration.WithLabelValues("unit_cycles").Observe(time.Since(start).Seconds())
		if cycle != nil {
			report.UnitCycle = &ports.CycleFinding{
				Granularity: ports.GranularityUnit,
				Path:        cycle,
				Edges:       graph.CycleEdges(units, graph.TopLevelUnit, cycle),
			}
		}
		violations = append(violations, unitCycleViolation(cycle))
	}

	if checks.PackageCyclesOn() {
		start := time.Now()
		cycle := graph.FirstPackageCycle(units)
		observability.AnalysisDuration.WithLabelValues("package_cycles").Observe(time.Since(start).Seconds())
		if cycle != nil {
			report.PackageCycle = &ports.CycleFinding{
				Granularity: ports.GranularityPackage,
				Path:        cycle,
				Edges:       graph.CycleEdges(units, graph.PackageOf, cycle),
			}
		}
		violations = append(violations, packageCycleViolation(cycle))
	}

	if len(a.modules) > 0 && (checks.ModuleBoundariesOn() || checks.UnusedUsesOn()) {
		start := time.Now()
		inspections, err := module.InspectAll(units, a.modules)
		observability.AnalysisDuration.WithLabelValues("modules").Observe(time.Since(start).Seconds())
		if err != nil {
			return ports.CheckReport{}, errors.AddContext(err, errors.CtxOperation, "inspect_modules")
		}
		report.Inspections = inspections
		if checks.ModuleBoundariesOn() {
			violations = append(violations, boundaryViolation(inspections))
		}
		if checks.UnusedUsesOn() {
			violations = append(violations, unusedViolation(inspections))
		}
	}

	// With no modules declared every unit is uncovered.
	if checks.UncoveredOn() {
		uncovered, err := module.FindUncovered(units, a.modules)
		if err != nil {
			return ports.CheckReport{}, errors.AddContext(err, errors.CtxOperation, "find_uncovered")
		}
		report.Uncovered = uncovered
		violations = append(violations, uncoveredViolation(uncovered))
	}

	report.Violations = make([]ports.Violation, 0, len(violations))
	for _, v := range violations {
		if v != nil {
			report.Violations = append(report.Violations, *v)
		}
	}
	recordViolationMetrics(report)
	return report, nil
}

// hotspots returns the most depended-on nodes and the largest fan-out.
func hotspots(g *graph.Graph) ([]graph.NodeMetrics, int) {
	out := make([]graph.NodeMetrics, 0, hotspotLimit)
	maxFanOut := 0
	for _, m := range g.Metrics() {
		if m.FanOut > maxFanOut {
			maxFanOut = m.FanOut
		}
		if len(out) < hotspotLimit && m.FanIn > 0 {
			out = append(out, m)
		}
	}
	return out, maxFanOut
}

func recordViolationMetrics(report ports.CheckReport) {
	undeclared, unused := 0, 0
	for _, in := range report.Inspections {
		undeclared += len(in.Undeclared)
		unused += len(in.Unused)
	}
	observability.Violations.WithLabelValues(ports.KindUnitCycle).Set(boolGauge(report.UnitCycle != nil))
	observability.Violations.WithLabelValues(ports.KindPackageCycle).Set(boolGauge(report.PackageCycle != nil))
	observability.Violations.WithLabelValues(ports.KindModuleBoundary).Set(float64(undeclared))
	observability.Violations.WithLabelValues(ports.KindUnusedUse).Set(float64(unused))
	observability.Violations.WithLabelValues(ports.KindUncovered).Set(float64(len(report.Uncovered)))
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
