package transform

import (
	"testing"

	"github.com/matzehuels/erdflow/pkg/dag"
)

func TestAssignLayers(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"users", "orders", "items", "products"} {
		g.AddNode(dag.Node{ID: id, Rank: 7})
	}
	g.AddEdge(dag.Edge{From: "users", To: "orders"})
	g.AddEdge(dag.Edge{From: "orders", To: "items"})
	g.AddEdge(dag.Edge{From: "products", To: "items"})

	AssignLayers(g)

	want := map[string]int{"users": 0, "products": 0, "orders": 1, "items": 2}
	for id, rank := range want {
		n, _ := g.Node(id)
		if n.Rank != rank {
			t.Errorf("%s rank = %d, want %d", id, n.Rank, rank)
		}
	}
}

func TestSubdivide(t *testing.T) {
	g := dag.New()
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddNode(dag.Node{ID: "c"})
	g.AddNode(dag.Node{ID: "d"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})
	g.AddEdge(dag.Edge{From: "b", To: "c"})
	g.AddEdge(dag.Edge{From: "c", To: "d"})
	g.AddEdge(dag.Edge{From: "a", To: "d"})
	AssignLayers(g)

	Subdivide(g)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() after Subdivide = %v", err)
	}
	virtual := 0
	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			virtual++
			if n.Origin != "a" {
				t.Errorf("virtual %s origin = %q, want a", n.ID, n.Origin)
			}
			if n.Width != 0 || n.Height != 0 {
				t.Errorf("virtual %s has size %vx%v", n.ID, n.Width, n.Height)
			}
		}
	}
	if virtual != 2 {
		t.Errorf("virtual nodes = %d, want 2", virtual)
	}
	if g.HasEdge("a", "d") {
		t.Error("long edge a→d should be removed")
	}
}
