package dag_test

import (
	"fmt"

	"github.com/matzehuels/erdflow/pkg/dag"
)

func ExampleDAG_basic() {
	// users ← orders ← order_items
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "users", Rank: 0})
	_ = g.AddNode(dag.Node{ID: "orders", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "order_items", Rank: 2})
	_ = g.AddEdge(dag.Edge{From: "users", To: "orders"})
	_ = g.AddEdge(dag.Edge{From: "orders", To: "order_items"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Ranks:", g.RankIDs())
	fmt.Println("Valid:", g.Validate() == nil)
	// Output:
	// Nodes: 3
	// Edges: 2
	// Ranks: [0 1 2]
	// Valid: true
}

func ExampleDAG_traversal() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "users"})
	_ = g.AddNode(dag.Node{ID: "orders", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "sessions", Rank: 1})
	_ = g.AddEdge(dag.Edge{From: "users", To: "orders"})
	_ = g.AddEdge(dag.Edge{From: "users", To: "sessions"})

	fmt.Println("Children of users:", g.Children("users"))
	fmt.Println("Parents of orders:", g.Parents("orders"))
	fmt.Println("Rank 1:", dag.NodeIDs(g.NodesInRank(1)))
	// Output:
	// Children of users: [orders sessions]
	// Parents of orders: [users]
	// Rank 1: [orders sessions]
}

func ExampleCountLayerCrossings() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddNode(dag.Node{ID: "b"})
	_ = g.AddNode(dag.Node{ID: "x", Rank: 1})
	_ = g.AddNode(dag.Node{ID: "y", Rank: 1})
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	fmt.Println("Crossed:", dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"x", "y"}))
	fmt.Println("Uncrossed:", dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"y", "x"}))
	// Output:
	// Crossed: 1
	// Uncrossed: 0
}
