package graph

import (
	"archcheck/internal/engine/classfile"
)

// SortResult is the outcome of a topological sort: either a dependency order
// or the first cycle found, never both.
type SortResult struct {
	// Order lists every reachable identifier after all of its dependencies.
	Order []string
	// Cycle is the witness path; its first element is repeated as the last.
	Cycle []string
}

func (r SortResult) HasCycle() bool {
	return len(r.Cycle) > 0
}

// TopoSort walks the graph depth first from each node in order. The walk stops
// at the first dependency that is already on the current path and reports the
// path from that dependency back to itself.
func TopoSort(g *Graph) SortResult {
	s := &sorter{
		g:         g,
		processed: make(map[string]bool, len(g.nodes)),
		onPath:    make(map[string]int),
	}
	for _, n := range g.nodes {
		if cycle := s.visit(n); cycle != nil {
			return SortResult{Cycle: cycle}
		}
	}
	return SortResult{Order: s.order}
}

type sorter struct {
	g         *Graph
	processed map[string]bool
	onPath    map[string]int
	path      []string
	order     []string
}

func (s *sorter) visit(n string) []string {
	if i, ok := s.onPath[n]; ok {
		cycle := make([]string, 0, len(s.path)-i+1)
		cycle = append(cycle, s.path[i:]...)
		return append(cycle, n)
	}
	if s.processed[n] {
		return nil
	}

	s.onPath[n] = len(s.path)
	s.path = append(s.path, n)
	for _, next := range s.g.edges[n] {
		if cycle := s.visit(next); cycle != nil {
			return cycle
		}
	}
	s.path = s.path[:len(s.path)-1]
	delete(s.onPath, n)

	s.processed[n] = true
	s.order = append(s.order, n)
	return nil
}

// FirstCycle returns the first cycle among units after collapsing their names
// through transform, or nil when the collapsed graph is acyclic. The witness
// starts at the repeated node: A->B->C->B yields [B, C, B].
func FirstCycle(units []classfile.UnitInfo, transform Transform) []string {
	return TopoSort(New(Collapse(units, transform))).Cycle
}

// FirstUnitCycle reports the first cycle between top-level units; nested
// units count as part of their enclosing unit.
func FirstUnitCycle(units []classfile.UnitInfo) []string {
	return FirstCycle(units, TopLevelUnit)
}

// FirstPackageCycle reports the first cycle between packages.
func FirstPackageCycle(units []classfile.UnitInfo) []string {
	return FirstCycle(units, PackageOf)
}
