package app

import (
	"testing"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(name string, deps ...string) classfile.UnitInfo {
	return classfile.NewUnitInfo(name, deps...)
}

var aNeedsBUnits = []classfile.UnitInfo{
	unit("halp.aneedsb.a.A", "halp.aneedsb.b.B", "java.lang.Object"),
	unit("halp.aneedsb.b.B", "java.lang.Object"),
}

func TestAssertions(t *testing.T) {
	classCycle := []classfile.UnitInfo{
		unit("halp.classCycle.A", "halp.classCycle.B"),
		unit("halp.classCycle.B", "halp.classCycle.A"),
	}
	packageCycle := []classfile.UnitInfo{
		unit("halp.packageCycle.a.A", "halp.packageCycle.b.B"),
		unit("halp.packageCycle.b.B", "halp.packageCycle.a.C"),
		unit("halp.packageCycle.a.C"),
	}
	onlyA := module.Modules(module.New("a").Include("**.aneedsb.a.*"))
	aUsesB := module.Modules(module.New("a").Include("**.aneedsb.a.*").Use("**.aneedsb.b.*"))
	both := module.Modules(
		module.New("a").Include("**.aneedsb.a.*"),
		module.New("a").Include("**.aneedsb.b.*"),
	)
	unusedUse := module.Modules(module.New("a").Include("**.aneedsb.a.*").Use("**.aneedsb.b.*", "org.never.**"))

	cases := []struct {
		name    string
		err     error
		message string
	}{
		{name: "ClassCycle", err: AssertNoUnitCycles(classCycle),
			message: "found at least one cycle representing mutual dependency between top-level classes: [halp.classCycle.A, halp.classCycle.B, halp.classCycle.A]"},
		{name: "NoClassCycle", err: AssertNoUnitCycles(aNeedsBUnits)},
		{name: "PackageCycle", err: AssertNoPackageCycles(packageCycle),
			message: "found at least one cycle representing mutual dependency between packages: [halp.packageCycle.a, halp.packageCycle.b, halp.packageCycle.a]"},
		{name: "NoPackageCycle", err: AssertNoPackageCycles(aNeedsBUnits)},
		{name: "BoundaryViolations", err: AssertModuleBoundaries(aNeedsBUnits, onlyA),
			message: "the following modules use dependencies but do not not declare them: a:[halp.aneedsb.b.B]"},
		{name: "NoBoundaryViolations", err: AssertModuleBoundaries(aNeedsBUnits, aUsesB)},
		{name: "UnusedUses", err: AssertNoUnusedUses(aNeedsBUnits, unusedUse),
			message: "the following modules declare uses that match no dependency: a:[org.never.**]"},
		{name: "NoUnusedUses", err: AssertNoUnusedUses(aNeedsBUnits, aUsesB)},
		{name: "Uncovered", err: AssertNoUncoveredUnits(aNeedsBUnits, onlyA),
			message: "meta-module contains classes that are not covered by a module boundary: [halp.aneedsb.b.B]"},
		{name: "NoUncovered", err: AssertNoUncoveredUnits(aNeedsBUnits, both)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.message == "" {
				assert.NoError(t, tc.err)
				return
			}
			require.Error(t, tc.err)
			assert.True(t, errors.IsCode(tc.err, errors.CodeViolation))
			assert.Contains(t, tc.err.Error(), tc.message)
		})
	}
}

func TestAssertions_InvalidPattern(t *testing.T) {
	bad := []module.Module{module.New("bad").Include("a.***").Build()}

	err := AssertModuleBoundaries(aNeedsBUnits, bad)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidPattern))

	err = AssertNoUncoveredUnits(aNeedsBUnits, bad)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidPattern))
}

func TestBracket(t *testing.T) {
	assert.Equal(t, "[]", bracket(nil))
	assert.Equal(t, "[a, b]", bracket([]string{"a", "b"}))
}
