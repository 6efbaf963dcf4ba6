// Package dag provides the ranked directed graph used by the layered layout
// engine.
//
// # Overview
//
// A schema diagram is laid out in discrete ranks: tables referenced by other
// tables sit in earlier ranks and the referencing tables below them. This
// package holds the working graph for that computation. Every node carries a
// rank and the size of the box it will occupy, so coordinate assignment can
// keep boxes apart without consulting anything else.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "table-users", Width: 172, Height: 36})
//	g.AddNode(dag.Node{ID: "table-orders", Width: 172, Height: 36})
//	g.AddEdge(dag.Edge{From: "table-users", To: "table-orders"})
//
// Ranks are assigned by [transform.AssignLayers]; long edges are split by
// [transform.Subdivide] into chains of [NodeKindVirtual] nodes so that
// every edge joins consecutive ranks.
//
// # Determinism
//
// Iteration order is insertion order everywhere ([DAG.Nodes],
// [DAG.NodesInRank], [DAG.Sources]). Given the same insertion sequence, every
// algorithm built on this package produces the same result, which keeps
// diagrams stable across relayouts.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count crossings with a Fenwick
// tree in O(E log V); the ordering heuristics use them to keep the best
// ordering seen across sweeps.
//
// [transform.AssignLayers]: github.com/matzehuels/erdflow/pkg/dag/transform
// [transform.Subdivide]: github.com/matzehuels/erdflow/pkg/dag/transform
package dag
