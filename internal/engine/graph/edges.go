package graph

import (
	"sort"

	"archcheck/internal/engine/classfile"
)

// Edge is one raw unit-to-unit reference.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// EdgesBetween lists the raw unit references that produce the collapsed edge
// from -> to, sorted. It explains which units are responsible for a package or
// top-level cycle step.
func EdgesBetween(units []classfile.UnitInfo, transform Transform, from, to string) []Edge {
	var out []Edge
	for _, u := range units {
		if transform(u.Name()) != from {
			continue
		}
		for _, dep := range u.Dependencies() {
			if transform(dep) == to {
				out = append(out, Edge{From: u.Name(), To: dep})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From == out[j].From {
			return out[i].To < out[j].To
		}
		return out[i].From < out[j].From
	})
	return out
}

// CycleEdges explains every step of a cycle witness, or any other path, with
// the raw references behind it.
func CycleEdges(units []classfile.UnitInfo, transform Transform, cycle []string) [][]Edge {
	if len(cycle) < 2 {
		return nil
	}
	steps := make([][]Edge, 0, len(cycle)-1)
	for i := 0; i+1 < len(cycle); i++ {
		steps = append(steps, EdgesBetween(units, transform, cycle[i], cycle[i+1]))
	}
	return steps
}
