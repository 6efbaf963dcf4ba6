package transform_test

import (
	"fmt"

	"github.com/matzehuels/erdflow/pkg/dag"
	"github.com/matzehuels/erdflow/pkg/dag/transform"
)

func ExampleNormalize() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "users"})
	_ = g.AddNode(dag.Node{ID: "orders"})
	_ = g.AddNode(dag.Node{ID: "order_items"})
	_ = g.AddEdge(dag.Edge{From: "users", To: "orders"})
	_ = g.AddEdge(dag.Edge{From: "orders", To: "order_items"})
	_ = g.AddEdge(dag.Edge{From: "users", To: "order_items"}) // spans two ranks

	reversed := transform.Normalize(g)

	fmt.Println("Reversed:", reversed)
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Ranks:", g.RankIDs())
	fmt.Println("Valid:", g.Validate() == nil)
	// Output:
	// Reversed: 0
	// Nodes: 4
	// Ranks: [0 1 2]
	// Valid: true
}

func ExampleBreakCycles() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "employees"})
	_ = g.AddNode(dag.Node{ID: "departments"})
	_ = g.AddEdge(dag.Edge{From: "employees", To: "departments"})
	_ = g.AddEdge(dag.Edge{From: "departments", To: "employees"})

	fmt.Println("Reversed:", transform.BreakCycles(g))
	fmt.Println("Edges:", g.EdgeCount())
	// Output:
	// Reversed: 1
	// Edges: 1
}
