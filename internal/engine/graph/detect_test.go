package graph

import (
	"fmt"
	"testing"

	"archcheck/internal/engine/classfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSort_Acyclic(t *testing.T) {
	t.Parallel()

	result := TopoSort(New([]classfile.UnitInfo{
		unit("app", "core", "util"),
		unit("core", "util"),
		unit("util", "java.lang.Object"),
	}))

	require.False(t, result.HasCycle())
	assert.Nil(t, result.Cycle)
	pos := make(map[string]int)
	for i, id := range result.Order {
		pos[id] = i
	}
	assert.Less(t, pos["util"], pos["core"])
	assert.Less(t, pos["core"], pos["app"])
	assert.Contains(t, result.Order, "java.lang.Object")
}

func TestTopoSort_WitnessIsTrimmedToCycle(t *testing.T) {
	t.Parallel()

	result := TopoSort(New([]classfile.UnitInfo{
		unit("A", "B"),
		unit("B", "C"),
		unit("C", "B"),
	}))

	require.True(t, result.HasCycle())
	assert.Equal(t, []string{"B", "C", "B"}, result.Cycle)
	assert.Nil(t, result.Order)
}

func TestTopoSort_FirstCycleWins(t *testing.T) {
	t.Parallel()

	units := []classfile.UnitInfo{
		unit("X", "Y"),
		unit("Y", "X"),
		unit("A", "B"),
		unit("B", "A"),
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"X", "Y", "X"}, TopoSort(New(units)).Cycle)
	}
}

func TestTopoSort_SortedEdgesPickWitness(t *testing.T) {
	t.Parallel()

	result := TopoSort(New([]classfile.UnitInfo{
		unit("A", "C", "B"),
		unit("B", "A"),
		unit("C", "A"),
	}))

	assert.Equal(t, []string{"A", "B", "A"}, result.Cycle)
}

func TestTopoSort_DeepChain(t *testing.T) {
	t.Parallel()

	const depth = 10000
	units := make([]classfile.UnitInfo, 0, depth)
	for i := 0; i < depth; i++ {
		units = append(units, unit(fmt.Sprintf("n%05d", i), fmt.Sprintf("n%05d", i+1)))
	}

	result := TopoSort(New(units))
	require.False(t, result.HasCycle())
	assert.Len(t, result.Order, depth+1)

	units = append(units, unit(fmt.Sprintf("n%05d", depth), "n00000"))
	result = TopoSort(New(units))
	require.True(t, result.HasCycle())
	assert.Len(t, result.Cycle, depth+2)
	assert.Equal(t, result.Cycle[0], result.Cycle[len(result.Cycle)-1])
}

func TestFirstUnitCycle(t *testing.T) {
	t.Parallel()

	t.Run("none", func(t *testing.T) {
		assert.Nil(t, FirstUnitCycle([]classfile.UnitInfo{
			unit("a.A", "a.B"),
			unit("a.B", "java.lang.String"),
		}))
	})

	t.Run("inner units collapse into a cycle", func(t *testing.T) {
		cycle := FirstUnitCycle([]classfile.UnitInfo{
			unit("a.A", "a.B"),
			unit("a.B$Inner", "a.A"),
		})
		assert.Equal(t, []string{"a.A", "a.B", "a.A"}, cycle)
	})

	t.Run("inner and outer alone are not a cycle", func(t *testing.T) {
		assert.Nil(t, FirstUnitCycle([]classfile.UnitInfo{
			unit("a.A", "a.A$Inner"),
			unit("a.A$Inner", "a.A"),
		}))
	})

	t.Run("witness is a simple path", func(t *testing.T) {
		cycle := FirstUnitCycle([]classfile.UnitInfo{
			unit("a.Start", "a.Loop1"),
			unit("a.Loop1", "a.Loop2"),
			unit("a.Loop2", "a.Loop1"),
		})
		require.NotEmpty(t, cycle)
		seen := make(map[string]bool)
		for _, id := range cycle[:len(cycle)-1] {
			assert.False(t, seen[id], "repeated %s", id)
			seen[id] = true
		}
		assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	})
}

func TestFirstPackageCycle(t *testing.T) {
	t.Parallel()

	units := []classfile.UnitInfo{
		unit("a.pkg.a.One", "a.pkg.b.Two"),
		unit("a.pkg.b.Two", "a.pkg.c.Three"),
		unit("a.pkg.c.Three"),
	}
	assert.Nil(t, FirstPackageCycle(units))
	assert.Nil(t, FirstUnitCycle(units))

	units = append(units, unit("a.pkg.c.Four", "a.pkg.a.Other"))
	assert.Nil(t, FirstUnitCycle(units))
	assert.Equal(t, []string{"a.pkg.a", "a.pkg.b", "a.pkg.c", "a.pkg.a"}, FirstPackageCycle(units))
}

func TestFirstPackageCycle_DefaultPackage(t *testing.T) {
	t.Parallel()

	cycle := FirstPackageCycle([]classfile.UnitInfo{
		unit("Main", "a.Util"),
		unit("a.Util", "Main"),
	})
	assert.Equal(t, []string{"", "a", ""}, cycle)
}
