package app

import (
	"strings"

	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/graph"
	"archcheck/internal/engine/module"
)

// AssertNoUnitCycles fails when top-level units depend on each other
// circularly.
func AssertNoUnitCycles(units []classfile.UnitInfo) error {
	return violationError(unitCycleViolation(graph.FirstUnitCycle(units)))
}

// AssertNoPackageCycles fails when packages depend on each other circularly.
func AssertNoPackageCycles(units []classfile.UnitInfo) error {
	return violationError(packageCycleViolation(graph.FirstPackageCycle(units)))
}

// AssertModuleBoundaries fails when any module has undeclared dependencies.
func AssertModuleBoundaries(units []classfile.UnitInfo, modules []module.Module) error {
	inspections, err := module.InspectAll(units, modules)
	if err != nil {
		return err
	}
	return violationError(boundaryViolation(inspections))
}

// AssertNoUnusedUses fails when a module declares use globs that match none
// of its dependencies.
func AssertNoUnusedUses(units []classfile.UnitInfo, modules []module.Module) error {
	inspections, err := module.InspectAll(units, modules)
	if err != nil {
		return err
	}
	return violationError(unusedViolation(inspections))
}

// AssertNoUncoveredUnits fails when a unit belongs to no module.
func AssertNoUncoveredUnits(units []classfile.UnitInfo, modules []module.Module) error {
	uncovered, err := module.FindUncovered(units, modules)
	if err != nil {
		return err
	}
	return violationError(uncoveredViolation(uncovered))
}

func unitCycleViolation(cycle []string) *ports.Violation {
	if cycle == nil {
		return nil
	}
	return &ports.Violation{
		Kind:    ports.KindUnitCycle,
		Message: "found at least one cycle representing mutual dependency between top-level classes: " + bracket(cycle),
	}
}

func packageCycleViolation(cycle []string) *ports.Violation {
	if cycle == nil {
		return nil
	}
	return &ports.Violation{
		Kind:    ports.KindPackageCycle,
		Message: "found at least one cycle representing mutual dependency between packages: " + bracket(cycle),
	}
}

func boundaryViolation(inspections []module.Inspection) *ports.Violation {
	parts := make([]string, 0, len(inspections))
	for _, in := range inspections {
		if len(in.Undeclared) > 0 {
			parts = append(parts, in.Module+":"+bracket(in.Undeclared))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &ports.Violation{
		Kind:    ports.KindModuleBoundary,
		Message: "the following modules use dependencies but do not not declare them: " + strings.Join(parts, ", "),
	}
}

func unusedViolation(inspections []module.Inspection) *ports.Violation {
	parts := make([]string, 0, len(inspections))
	for _, in := range inspections {
		if len(in.Unused) > 0 {
			parts = append(parts, in.Module+":"+bracket(in.Unused))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &ports.Violation{
		Kind:    ports.KindUnusedUse,
		Message: "the following modules declare uses that match no dependency: " + strings.Join(parts, ", "),
	}
}

func uncoveredViolation(uncovered []string) *ports.Violation {
	if len(uncovered) == 0 {
		return nil
	}
	return &ports.Violation{
		Kind:    ports.KindUncovered,
		Message: "meta-module contains classes that are not covered by a module boundary: " + bracket(uncovered),
	}
}

func violationError(v *ports.Violation) error {
	if v == nil {
		return nil
	}
	return errors.AddContext(errors.New(errors.CodeViolation, v.Message), "kind", v.Kind)
}

// bracket renders names as "[a, b, c]".
func bracket(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
