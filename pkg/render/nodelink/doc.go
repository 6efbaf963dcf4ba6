// Package nodelink renders positioned diagrams as static images.
//
// # Overview
//
// The interactive surface draws diagrams itself; this package produces the
// static exports used by `erdflow render`. Tables are drawn as HTML-like
// Graphviz tables with one row per field, pinned at the positions computed
// by the layout pipeline, and Graphviz only routes the relationship edges.
//
// # Usage
//
// Convert a diagram to DOT, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(d, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, field rows include the column type and
//     PK/NN/UQ markers
//   - Fallback: Box size for tables that were never measured
//
// # Edges
//
// Edge ends use crow's feet for the many side and a tee for the one side.
// Resolved sides pick the west or east face of the field port, so exports
// match the interactive rendering.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering
// with the neato engine.
package nodelink
