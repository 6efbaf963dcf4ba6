package pipeline

import (
	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/layout"
)

// =============================================================================
// Diagram <-> Engine Graph
// =============================================================================

// ToLayoutGraph converts diagram nodes and edges into engine input. Nodes
// without a measurement get fallback. Node ids are the serialized
// [diagram.NodeID] values.
func ToLayoutGraph(d diagram.Diagram, fallback diagram.Size) layout.Graph {
	g := layout.Graph{
		Nodes: make([]layout.Node, 0, len(d.Nodes)),
		Edges: make([]layout.Edge, 0, len(d.Edges)),
	}
	for _, n := range d.Nodes {
		sz := fallback
		if n.Size != nil {
			sz = *n.Size
		}
		g.Nodes = append(g.Nodes, layout.Node{ID: n.ID.String(), Width: sz.Width, Height: sz.Height})
	}
	for _, e := range d.Edges {
		g.Edges = append(g.Edges, layout.Edge{From: e.Source.String(), To: e.Target.String()})
	}
	return g
}

// ApplyLayout returns a copy of d with node positions and ranks taken from
// res. Sizes are left untouched, so unmeasured nodes stay unmeasured.
func ApplyLayout(d diagram.Diagram, res layout.Result) diagram.Diagram {
	out := d.Clone()
	for i := range out.Nodes {
		id := out.Nodes[i].ID.String()
		if p, ok := res.Positions[id]; ok {
			out.Nodes[i].Position = diagram.Position{X: p.X, Y: p.Y}
		}
		out.Nodes[i].Rank = res.Ranks[id]
	}
	out.Width = res.Width
	out.Height = res.Height
	return out
}
