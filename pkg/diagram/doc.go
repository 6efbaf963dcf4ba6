// Package diagram turns a relational schema into a node-and-edge diagram.
//
// The package holds the two pure stages around layout:
//
//   - [Build] maps every table to a [Node] and every relationship to an
//     [Edge], attaching measured sizes from a [SizeLookup].
//   - [ResolveAnchors] decides, once nodes have positions, which side of
//     each table a connector leaves from.
//
// Layout itself lives in [github.com/matzehuels/erdflow/pkg/layout]; the
// glue that runs Build, layout and ResolveAnchors in order is
// [github.com/matzehuels/erdflow/pkg/pipeline].
//
// # Identifiers
//
// Node, edge and connection-point ids are typed composite keys ([NodeID],
// [EdgeID], [HandleID]) derived only from schema identifiers, so rebuilding
// an unchanged schema reissues the same ids and UI state keyed by them, such
// as highlighted edges, survives relayouts. Their string forms are
//
//	table-<tableId>
//	relation-<schemaId>-<refId>
//	field-<fieldId>-<source|target>[-<left|right>]
//
// with '%' and '-' inside raw ids escaped as "%25" and "%2D".
//
// # Diagnostics
//
// Neither stage fails. Malformed relationships are dropped and edges whose
// endpoints have no position pass through unresolved; both are reported as
// [Diagnostic] values next to the result.
package diagram
