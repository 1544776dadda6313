package report

import (
	"fmt"
	"strings"
	"time"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/data/history"
)

// RenderTrend encodes a trend report. Text output is tab separated, one row
// per recorded run.
func RenderTrend(format string, report history.TrendReport) ([]byte, error) {
	switch format {
	case config.FormatText, "":
		return RenderTrendTSV(report)
	case config.FormatJSON:
		return marshalJSON(report)
	case config.FormatYAML:
		return marshalYAML(report)
	default:
		return nil, errors.Newf(errors.CodeValidationError, "unsupported trend format %q", format)
	}
}

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tUnits\tPackages\tEdges\tUnitCycle\tPackageCycle\tUndeclared\tUnused\tUncovered\tAvgFanOut\tPassed\tDeltaUnits\tDeltaPackages\tDeltaEdges\tDeltaUndeclared\tDeltaUncovered\tDeltaAvgFanOut\tUnitGrowthPct\tAvgUndeclared\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%t\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			point.Timestamp.Format(time.RFC3339),
			point.RunID,
			point.UnitCount,
			point.PackageCount,
			point.EdgeCount,
			point.UnitCycle,
			point.PackageCycle,
			point.UndeclaredCount,
			point.UnusedCount,
			point.UncoveredCount,
			point.AvgFanOut,
			point.Passed,
			point.DeltaUnits,
			point.DeltaPackages,
			point.DeltaEdges,
			point.DeltaUndeclared,
			point.DeltaUncovered,
			point.DeltaAvgFanOut,
			point.UnitGrowthPct,
			point.AvgUndeclared,
			point.WindowHours,
		))
	}

	return []byte(buf.String()), nil
}
