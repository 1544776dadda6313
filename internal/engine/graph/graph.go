// Package graph aggregates unit dependencies into identifier graphs and finds
// the first dependency cycle at unit or package granularity.
package graph

import (
	"sort"

	"archcheck/internal/engine/classfile"
)

// Graph is an adjacency view over a list of units. Node order is the order in
// which identifiers first appear as unit names; edges are kept sorted.
type Graph struct {
	nodes []string
	edges map[string][]string
}

// New builds a graph from units. Units sharing a name are merged.
func New(units []classfile.UnitInfo) *Graph {
	g := &Graph{edges: make(map[string][]string, len(units))}
	for _, u := range units {
		name := u.Name()
		existing, seen := g.edges[name]
		if !seen {
			g.nodes = append(g.nodes, name)
			g.edges[name] = u.Dependencies()
			continue
		}
		g.edges[name] = mergeSorted(existing, u.Dependencies())
	}
	return g
}

// Nodes returns the unit identifiers in first-appearance order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// DependenciesOf returns the sorted identifiers id depends on.
func (g *Graph) DependenciesOf(id string) []string {
	deps := g.edges[id]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount counts edges between nodes of the graph. Edges to identifiers
// that are not themselves units are not counted.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, from := range g.nodes {
		for _, to := range g.edges[from] {
			if _, ok := g.edges[to]; ok {
				n++
			}
		}
	}
	return n
}

// NodeMetrics describes how coupled one identifier is within the graph.
type NodeMetrics struct {
	ID     string `json:"id" yaml:"id"`
	FanIn  int    `json:"fan_in" yaml:"fan_in"`
	FanOut int    `json:"fan_out" yaml:"fan_out"`
}

// Metrics returns fan-in and fan-out for every node, most depended-on first.
// Only edges between nodes of the graph count.
func (g *Graph) Metrics() []NodeMetrics {
	fanIn := make(map[string]int, len(g.nodes))
	out := make([]NodeMetrics, 0, len(g.nodes))
	for _, from := range g.nodes {
		m := NodeMetrics{ID: from}
		for _, to := range g.edges[from] {
			if _, ok := g.edges[to]; !ok {
				continue
			}
			m.FanOut++
			fanIn[to]++
		}
		out = append(out, m)
	}
	for i := range out {
		out[i].FanIn = fanIn[out[i].ID]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FanIn == out[j].FanIn {
			if out[i].FanOut == out[j].FanOut {
				return out[i].ID < out[j].ID
			}
			return out[i].FanOut > out[j].FanOut
		}
		return out[i].FanIn > out[j].FanIn
	})
	return out
}

func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
