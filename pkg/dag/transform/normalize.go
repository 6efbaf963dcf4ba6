package transform

import "github.com/matzehuels/erdflow/pkg/dag"

// Normalize prepares g for ordering: it breaks cycles, assigns ranks and
// subdivides long edges, in that order. It returns the number of edges that
// were reversed to break cycles.
func Normalize(g *dag.DAG) int {
	reversed := BreakCycles(g)
	AssignLayers(g)
	Subdivide(g)
	return reversed
}
