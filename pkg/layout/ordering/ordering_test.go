package ordering

import (
	"slices"
	"testing"

	"github.com/matzehuels/erdflow/pkg/dag"
)

func TestBarycentricKeepsEveryNode(t *testing.T) {
	g := dag.New()
	for i, id := range []string{"a", "b", "c", "d", "e", "f"} {
		_ = g.AddNode(dag.Node{ID: id, Rank: i / 3})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "f"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "e"})
	_ = g.AddEdge(dag.Edge{From: "c", To: "d"})

	orders := Barycentric{}.OrderRanks(g)

	for _, r := range g.RankIDs() {
		got := slices.Sorted(slices.Values(orders[r]))
		want := slices.Sorted(slices.Values(dag.NodeIDs(g.NodesInRank(r))))
		if !slices.Equal(got, want) {
			t.Errorf("rank %d = %v, want permutation of %v", r, orders[r], want)
		}
	}
	if c := dag.CountCrossings(g, orders); c != 0 {
		t.Errorf("crossings = %d, want 0", c)
	}
}

func TestBarycentricDeterministic(t *testing.T) {
	build := func() *dag.DAG {
		g := dag.New()
		for _, id := range []string{"r1", "r2", "r3"} {
			_ = g.AddNode(dag.Node{ID: id})
		}
		for _, id := range []string{"c1", "c2", "c3"} {
			_ = g.AddNode(dag.Node{ID: id, Rank: 1})
		}
		_ = g.AddEdge(dag.Edge{From: "r1", To: "c3"})
		_ = g.AddEdge(dag.Edge{From: "r2", To: "c1"})
		_ = g.AddEdge(dag.Edge{From: "r3", To: "c2"})
		_ = g.AddEdge(dag.Edge{From: "r1", To: "c1"})
		return g
	}

	first := Barycentric{}.OrderRanks(build())
	for i := 0; i < 5; i++ {
		got := Barycentric{}.OrderRanks(build())
		for r, ids := range first {
			if !slices.Equal(got[r], ids) {
				t.Fatalf("run %d rank %d = %v, want %v", i, r, got[r], ids)
			}
		}
	}
}

func TestBarycentricEmptyGraph(t *testing.T) {
	if got := (Barycentric{}).OrderRanks(dag.New()); len(got) != 0 {
		t.Errorf("OrderRanks(empty) = %v, want empty", got)
	}
}
