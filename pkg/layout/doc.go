// Package layout assigns positions to the boxes of a directed graph.
//
// The package defines a narrow contract, [Engine], that every layout
// algorithm satisfies: nodes with sizes and directed edges go in, a center
// position per node comes out. Callers never depend on how positions are
// computed, so engines are interchangeable:
//
//   - [Layered] is the built-in hierarchical engine (pure Go, deterministic).
//   - [github.com/matzehuels/erdflow/pkg/layout/graphviz] runs Graphviz dot.
//   - [Cached] wraps any engine with a [github.com/matzehuels/erdflow/pkg/cache.Cache].
//
// # Layered Layout
//
// [Layered] follows the classic Sugiyama scheme on top of
// [github.com/matzehuels/erdflow/pkg/dag]:
//
//  1. Copy the graph, dropping self loops and repeated edges.
//  2. Reverse back edges so the graph is acyclic.
//  3. Rank nodes by longest path from the sources.
//  4. Split edges spanning several ranks with zero-size virtual nodes.
//  5. Order each rank with the barycentric heuristic to reduce crossings.
//  6. Assign coordinates: ranks are stacked with RankSep between their
//     thickest boxes, and nodes inside a rank are pulled toward their
//     neighbors while keeping NodeSep between box edges.
//  7. Rotate or mirror for the configured [RankDir].
//
// Step 6 guarantees that no two boxes overlap at the sizes given.
//
// # Coordinates
//
// Positions are box centers. The top-left corner of the bounding box of all
// boxes sits at (Margin, Margin), and [Result.Width] and [Result.Height]
// include the margin on both sides.
package layout
