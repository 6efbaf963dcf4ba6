// Package render groups the static output formats of erdflow.
//
// Diagrams are laid out by [pipeline] and drawn interactively by clients
// of the HTTP API. For files, the [nodelink] subpackage turns a positioned
// diagram into Graphviz DOT and renders it to SVG or PNG:
//
//	dot := nodelink.ToDOT(res.Diagram, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [pipeline]: github.com/matzehuels/erdflow/pkg/pipeline
// [nodelink]: github.com/matzehuels/erdflow/pkg/render/nodelink
package render
