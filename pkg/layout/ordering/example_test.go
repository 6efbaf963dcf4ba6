package ordering_test

import (
	"fmt"

	"github.com/matzehuels/erdflow/pkg/dag"
	"github.com/matzehuels/erdflow/pkg/layout/ordering"
)

func ExampleBarycentric() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "users", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "orders", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "sessions", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "items", Rank: 2})
	_ = g.AddEdge(dag.Edge{From: "users", To: "orders"})
	_ = g.AddEdge(dag.Edge{From: "users", To: "sessions"})
	_ = g.AddEdge(dag.Edge{From: "orders", To: "items"})

	orders := ordering.Barycentric{Passes: 24}.OrderRanks(g)

	fmt.Println("Ranks:", len(orders))
	fmt.Println("Rank 1:", orders[1])
	// Output:
	// Ranks: 3
	// Rank 1: [orders sessions]
}

func ExampleBarycentric_crossingMinimization() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "a", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "b", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "x", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "y", Rank: 1})
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	fmt.Println("Initial crossings:", dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"x", "y"}))

	orders := ordering.Barycentric{}.OrderRanks(g)
	fmt.Println("After ordering:", dag.CountLayerCrossings(g, orders[0], orders[1]))
	// Output:
	// Initial crossings: 1
	// After ordering: 0
}
