// Package transform prepares a [dag.DAG] for layered layout.
//
// Relationship graphs rarely arrive in layered form: tables reference each
// other in cycles, and a reference can jump across several ranks. The
// transformations here turn an arbitrary directed graph into one where:
//
//   - There are no directed cycles ([BreakCycles])
//   - Every node has a rank, parents above children ([AssignLayers])
//   - Every edge joins consecutive ranks ([Subdivide])
//
// [Normalize] applies all three in the required order:
//
//	transform.Normalize(g) // modifies g in place
//
// [dag.DAG]: github.com/matzehuels/erdflow/pkg/dag
package transform
