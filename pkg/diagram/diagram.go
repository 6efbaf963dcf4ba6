package diagram

import (
	"slices"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// Fallback box size for a table that has not been measured yet. It is only
// handed to layout engines and never stored as a measurement.
const (
	DefaultNodeWidth  = 172
	DefaultNodeHeight = 36
)

// Size is the rendered extent of a node.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultSize returns the fallback size.
func DefaultSize() Size { return Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight} }

// Position is the center of a node on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SizeLookup is the read side of a size registry.
type SizeLookup interface {
	Get(id NodeID) (Size, bool)
}

// Sizes is a plain SizeLookup, typically a registry snapshot.
type Sizes map[NodeID]Size

// Get implements [SizeLookup].
func (s Sizes) Get(id NodeID) (Size, bool) {
	sz, ok := s[id]
	return sz, ok
}

// Node is the box drawn for one table.
type Node struct {
	ID NodeID `json:"id"`
	// Size is nil until the table has been measured.
	Size *Size `json:"size,omitempty"`
	// Position is meaningful only after a layout pass; before that it is
	// the origin.
	Position Position `json:"position"`
	Rank     int      `json:"rank"`
	Data     NodeData `json:"data"`
}

// NodeData carries the table a node stands for.
type NodeData struct {
	Table *schema.Table `json:"table"`
}

// Edge is the connector drawn for one relationship.
type Edge struct {
	ID           EdgeID   `json:"id"`
	Source       NodeID   `json:"source"`
	Target       NodeID   `json:"target"`
	SourceHandle HandleID `json:"sourceHandle"`
	TargetHandle HandleID `json:"targetHandle"`
	SourceSide   Side     `json:"sourceSide,omitempty"`
	TargetSide   Side     `json:"targetSide,omitempty"`
	Highlighted  bool     `json:"highlighted,omitempty"`
	Data         EdgeData `json:"data"`
}

// Resolved reports whether the anchor resolver assigned sides to the edge.
func (e Edge) Resolved() bool {
	return e.SourceSide != SideNone && e.TargetSide != SideNone
}

// EdgeData carries the relationship an edge stands for.
type EdgeData struct {
	SchemaID       string          `json:"schemaId"`
	Ref            *schema.Ref     `json:"ref"`
	SourceRelation schema.Relation `json:"sourceRelation"`
	TargetRelation schema.Relation `json:"targetRelation"`
}

// Diagram is a set of nodes and edges. Before layout it is unpositioned;
// the pipeline publishes it with positions and resolved sides.
type Diagram struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Empty reports whether the diagram has no nodes.
func (d Diagram) Empty() bool { return len(d.Nodes) == 0 }

// Node returns the node with the given id.
func (d Diagram) Node(id NodeID) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge with the given id.
func (d Diagram) Edge(id EdgeID) (Edge, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// Clone returns a copy whose slices can be modified independently.
// Schema pointers in node and edge data are shared.
func (d Diagram) Clone() Diagram {
	out := d
	out.Nodes = slices.Clone(d.Nodes)
	for i := range out.Nodes {
		if sz := out.Nodes[i].Size; sz != nil {
			c := *sz
			out.Nodes[i].Size = &c
		}
	}
	out.Edges = slices.Clone(d.Edges)
	out.Diagnostics = slices.Clone(d.Diagnostics)
	return out
}

// Diagnostic is a non-fatal condition found while building or resolving a
// diagram.
type Diagnostic struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	// Subject is the string id of the edge or node concerned.
	Subject string `json:"subject,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return string(d.Code) + ": " + d.Message
	}
	return string(d.Code) + ": " + d.Subject + ": " + d.Message
}
