package transform

import "github.com/matzehuels/erdflow/pkg/dag"

// AssignLayers assigns every node to a rank using the longest-path rule:
// sources sit in rank 0 and every other node sits one rank below its deepest
// parent. Existing ranks are overwritten.
//
// The traversal is Kahn's algorithm seeded with sources in insertion order,
// so the result is deterministic. AssignLayers assumes g is acyclic; run
// [BreakCycles] first. Nodes on a cycle never reach in-degree zero and keep
// rank 0.
//
// Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	ranks := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		ranks[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if rank := ranks[curr] + 1; rank > ranks[child] {
				ranks[child] = rank
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRanks(ranks)
}
