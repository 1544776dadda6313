package graph

// ShortestPath returns the shortest dependency chain from one identifier to
// another, both ends included, breadth-first over sorted edges. from must be
// a node; to may be any identifier a node depends on. ok is false when to is
// unreachable.
func (g *Graph) ShortestPath(from, to string) ([]string, bool) {
	if _, ok := g.edges[from]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	prev := map[string]string{from: ""}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[curr] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = curr
			if next == to {
				path := []string{to}
				for node := curr; node != from; node = prev[node] {
					path = append(path, node)
				}
				path = append(path, from)
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			// Identifiers that are not units have no outgoing edges.
			if _, isNode := g.edges[next]; isNode {
				queue = append(queue, next)
			}
		}
	}
	return nil, false
}
