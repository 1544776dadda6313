package formats

import (
	"fmt"
	"sort"
	"strings"

	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/graph"
	"archcheck/internal/engine/module"
)

// DOTGenerator renders the package dependency graph of analyzed units.
type DOTGenerator struct {
	packages *graph.Graph
	members  map[string]int
}

func NewDOTGenerator(units []classfile.UnitInfo) *DOTGenerator {
	members := make(map[string]int)
	for _, u := range units {
		members[graph.PackageOf(u.Name())]++
	}
	return &DOTGenerator{
		packages: graph.New(graph.Collapse(units, graph.PackageOf)),
		members:  members,
	}
}

// Generate writes the graph with the packages and edges of cycle, a closed
// witness path such as [a b a], highlighted. Builtin packages are left out.
func (d *DOTGenerator) Generate(cycle []string) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph packages {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := make(map[[2]string]bool)
	cycleNodes := make(map[string]bool)
	for i := 0; i+1 < len(cycle); i++ {
		cycleEdges[[2]string{cycle[i], cycle[i+1]}] = true
		cycleNodes[cycle[i]] = true
	}

	nodes := d.packages.Nodes()
	internal := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		internal[n] = true
	}
	externalSet := make(map[string]bool)
	for _, n := range nodes {
		for _, dep := range d.packages.DependenciesOf(n) {
			if !internal[dep] && !module.IsBuiltin(dep+".") {
				externalSet[dep] = true
			}
		}
	}
	external := make([]string, 0, len(externalSet))
	for name := range externalSet {
		external = append(external, name)
	}
	sort.Strings(external)

	ids := makeIDs(append(append([]string{}, nodes...), external...))
	metrics := make(map[string]graph.NodeMetrics, len(nodes))
	for _, m := range d.packages.Metrics() {
		metrics[m.ID] = m
	}

	buf.WriteString("  subgraph cluster_analyzed {\n")
	buf.WriteString("    label=\"Analyzed Packages\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	for _, n := range nodes {
		label := escapeLabel(nodeLabel(n, metrics[n], d.members[n]))
		if cycleNodes[n] {
			buf.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", ids[n], label))
		} else {
			buf.WriteString(fmt.Sprintf("    %s [label=\"%s\", color=\"darkslategrey\"];\n", ids[n], label))
		}
	}
	buf.WriteString("  }\n\n")

	if len(external) > 0 {
		buf.WriteString("  node [fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n")
		for _, n := range external {
			buf.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", ids[n], escapeLabel(n)))
		}
		buf.WriteString("\n")
	}

	for _, from := range nodes {
		for _, to := range d.packages.DependenciesOf(from) {
			switch {
			case cycleEdges[[2]string{from, to}]:
				buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", ids[from], ids[to]))
			case internal[to]:
				buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"forestgreen\", penwidth=1.8];\n", ids[from], ids[to]))
			case externalSet[to]:
				buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"grey\", style=dashed];\n", ids[from], ids[to]))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
