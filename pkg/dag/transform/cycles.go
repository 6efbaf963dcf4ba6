package transform

import "github.com/matzehuels/erdflow/pkg/dag"

// BreakCycles makes g acyclic by reversing every back edge found by a
// depth-first search and returns how many edges were reversed.
//
// Reversing rather than deleting keeps the two tables adjacent in rank, so
// a pair of tables that reference each other still sit next to each other
// in the diagram. When the reversed edge already exists (a 2-cycle), the
// back edge is simply dropped.
//
// The search starts from sources in insertion order and then visits any
// node left unvisited, so the same graph always loses the same edges.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.ReverseEdge(e[0], e[1])
	}
	return len(backEdges)
}
