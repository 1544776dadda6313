package history

import (
	"math"
	"time"

	"archcheck/internal/core/errors"
)

// BuildTrendReport derives per-run deltas from snapshots ordered oldest first.
func BuildTrendReport(project string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, errors.AddContext(errors.New(errors.CodeNotFound, "no snapshots available"), "project", project)
	}

	points := make([]TrendPoint, 0, len(snapshots))
	passed := 0
	for i, current := range snapshots {
		if current.Passed {
			passed++
		}
		point := TrendPoint{
			RunID:           current.RunID,
			Timestamp:       current.Timestamp,
			UnitCount:       current.UnitCount,
			PackageCount:    current.PackageCount,
			EdgeCount:       current.EdgeCount,
			UnitCycle:       current.UnitCycle,
			PackageCycle:    current.PackageCycle,
			UndeclaredCount: current.UndeclaredCount,
			UnusedCount:     current.UnusedCount,
			UncoveredCount:  current.UncoveredCount,
			AvgFanOut:       current.AvgFanOut,
			Passed:          current.Passed,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaUnits = current.UnitCount - prev.UnitCount
			point.DeltaPackages = current.PackageCount - prev.PackageCount
			point.DeltaEdges = current.EdgeCount - prev.EdgeCount
			point.DeltaUndeclared = current.UndeclaredCount - prev.UndeclaredCount
			point.DeltaUncovered = current.UncoveredCount - prev.UncoveredCount
			point.DeltaAvgFanOut = round2(current.AvgFanOut - prev.AvgFanOut)
			if prev.UnitCount > 0 {
				point.UnitGrowthPct = round2(float64(point.DeltaUnits) / float64(prev.UnitCount) * 100)
			}
		}

		point.AvgUndeclared = round2(movingAverage(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Project:       project,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		PassRate:      round2(float64(passed) / float64(len(points)) * 100),
		Points:        points,
	}, nil
}

func movingAverage(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].UndeclaredCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].UndeclaredCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
