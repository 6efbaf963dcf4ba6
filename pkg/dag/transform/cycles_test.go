package transform

import (
	"testing"

	"github.com/matzehuels/erdflow/pkg/dag"
)

func TestBreakCycles_NoCycles(t *testing.T) {
	g := dag.New()
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddNode(dag.Node{ID: "c"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})
	g.AddEdge(dag.Edge{From: "b", To: "c"})

	if reversed := BreakCycles(g); reversed != 0 {
		t.Errorf("BreakCycles() reversed %d edges, want 0", reversed)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestBreakCycles_TwoCycle(t *testing.T) {
	g := dag.New()
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})
	g.AddEdge(dag.Edge{From: "b", To: "a"})

	if reversed := BreakCycles(g); reversed != 1 {
		t.Errorf("BreakCycles() reversed %d edges, want 1", reversed)
	}
	if g.EdgeCount() != 1 || !g.HasEdge("a", "b") {
		t.Errorf("edges = %v, want [a→b]", g.Edges())
	}
}

func TestBreakCycles_Triangle(t *testing.T) {
	g := dag.New()
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddNode(dag.Node{ID: "c"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})
	g.AddEdge(dag.Edge{From: "b", To: "c"})
	g.AddEdge(dag.Edge{From: "c", To: "a"})

	if reversed := BreakCycles(g); reversed != 1 {
		t.Errorf("BreakCycles() reversed %d edges, want 1", reversed)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3 (reversal keeps the edge)", g.EdgeCount())
	}
	if !g.HasEdge("a", "c") {
		t.Errorf("expected c→a to be reversed into a→c, got %v", g.Edges())
	}
}

func TestBreakCycles_Deterministic(t *testing.T) {
	build := func() *dag.DAG {
		g := dag.New()
		for _, id := range []string{"a", "b", "c", "d"} {
			g.AddNode(dag.Node{ID: id})
		}
		g.AddEdge(dag.Edge{From: "a", To: "b"})
		g.AddEdge(dag.Edge{From: "b", To: "c"})
		g.AddEdge(dag.Edge{From: "c", To: "d"})
		g.AddEdge(dag.Edge{From: "d", To: "b"})
		return g
	}

	first := build()
	BreakCycles(first)
	for i := 0; i < 10; i++ {
		g := build()
		BreakCycles(g)
		if len(g.Edges()) != len(first.Edges()) {
			t.Fatalf("run %d: edge count differs", i)
		}
		for j, e := range g.Edges() {
			if e != first.Edges()[j] {
				t.Fatalf("run %d: edge %d = %v, want %v", i, j, e, first.Edges()[j])
			}
		}
	}
}
