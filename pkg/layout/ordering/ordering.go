// Package ordering decides the left-to-right order of nodes inside each
// rank of a layered graph so that edges cross as little as possible.
package ordering

import (
	"cmp"
	"slices"

	"github.com/matzehuels/erdflow/pkg/dag"
)

// DefaultPasses is the number of sweeps [Barycentric] runs when Passes is 0.
const DefaultPasses = 24

// Orderer computes rank orderings for a graph whose edges all join
// consecutive ranks.
type Orderer interface {
	OrderRanks(g *dag.DAG) map[int][]string
}

// Barycentric is the classic layer-by-layer sweep heuristic. Each sweep
// sorts a rank by the mean position of its neighbors in the previous rank,
// alternating downward and upward, then runs a transpose pass that swaps
// adjacent nodes while that removes crossings. The best ordering seen is
// returned.
//
// Ties keep the current order, so the initial order (node insertion order)
// decides the result whenever the heuristic has no preference.
type Barycentric struct {
	Passes int
}

// OrderRanks implements [Orderer].
func (b Barycentric) OrderRanks(g *dag.DAG) map[int][]string {
	passes := b.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}

	ranks := g.RankIDs()
	orders := make(map[int][]string, len(ranks))
	for _, r := range ranks {
		orders[r] = dag.NodeIDs(g.NodesInRank(r))
	}

	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)

	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		down := pass%2 == 0
		if down {
			for i := 1; i < len(ranks); i++ {
				sortByBarycenter(g, orders, ranks[i], ranks[i-1], true)
			}
		} else {
			for i := len(ranks) - 2; i >= 0; i-- {
				sortByBarycenter(g, orders, ranks[i], ranks[i+1], false)
			}
		}
		transpose(g, orders, ranks)

		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			bestCrossings = c
			best = cloneOrders(orders)
		}
	}
	return best
}

func sortByBarycenter(g *dag.DAG, orders map[int][]string, rank, adj int, useParents bool) {
	adjPos := dag.PosMap(orders[adj])
	current := orders[rank]

	type keyed struct {
		id  string
		key float64
	}
	keys := make([]keyed, len(current))
	for i, id := range current {
		neighbors := g.Children(id)
		if useParents {
			neighbors = g.Parents(id)
		}
		sum, n := 0.0, 0
		for _, nb := range neighbors {
			if p, ok := adjPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		key := float64(i)
		if n > 0 {
			key = sum / float64(n)
		}
		keys[i] = keyed{id, key}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int { return cmp.Compare(a.key, b.key) })
	for i, k := range keys {
		current[i] = k.id
	}
}

// transpose swaps adjacent nodes while a swap strictly lowers the crossings
// against both neighboring ranks.
func transpose(g *dag.DAG, orders map[int][]string, ranks []int) {
	for improved := true; improved; {
		improved = false
		for i, r := range ranks {
			row := orders[r]
			var above, below map[string]int
			if i > 0 {
				above = dag.PosMap(orders[ranks[i-1]])
			}
			if i < len(ranks)-1 {
				below = dag.PosMap(orders[ranks[i+1]])
			}
			for j := 0; j+1 < len(row); j++ {
				l, rt := row[j], row[j+1]
				before := pairCrossings(g, l, rt, above, below)
				after := pairCrossings(g, rt, l, above, below)
				if after < before {
					row[j], row[j+1] = rt, l
					improved = true
				}
			}
		}
	}
}

func pairCrossings(g *dag.DAG, left, right string, above, below map[string]int) int {
	c := 0
	if above != nil {
		c += dag.CountPairCrossings(g, left, right, above, true)
	}
	if below != nil {
		c += dag.CountPairCrossings(g, left, right, below, false)
	}
	return c
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
