package layout

import (
	"context"
	"math"

	"github.com/matzehuels/erdflow/pkg/errors"
)

// Engine computes positions for a graph.
//
// Implementations must be safe for concurrent use and must not retain or
// modify the graph.
type Engine interface {
	// Name identifies the engine in logs and cache keys.
	Name() string
	Layout(ctx context.Context, g Graph, cfg Config) (Result, error)
}

// Node is a box to place. Width and Height are in canvas units and must be
// positive.
type Node struct {
	ID     string  `json:"id" msgpack:"id"`
	Width  float64 `json:"width" msgpack:"w"`
	Height float64 `json:"height" msgpack:"h"`
}

// Edge is a directed connection between two node ids. Self loops and
// repeated edges are allowed and ignored for placement.
type Edge struct {
	From string `json:"from" msgpack:"f"`
	To   string `json:"to" msgpack:"t"`
}

// Graph is the input of an engine.
type Graph struct {
	Nodes []Node `json:"nodes" msgpack:"n"`
	Edges []Edge `json:"edges" msgpack:"e"`
}

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Result is the output of an engine.
type Result struct {
	// Positions holds the center of every input node.
	Positions map[string]Point `json:"positions" msgpack:"p"`
	// Ranks holds the layer of every input node, 0 being the first rank in
	// flow direction.
	Ranks map[string]int `json:"ranks" msgpack:"r"`

	Width  float64 `json:"width" msgpack:"w"`
	Height float64 `json:"height" msgpack:"h"`

	// Crossings is the number of edge crossings between consecutive ranks,
	// when the engine knows it.
	Crossings int `json:"crossings" msgpack:"c"`
	// Reversed is the number of edges turned around to break cycles.
	Reversed int `json:"reversed" msgpack:"v"`

	// Cached is set when the result came from a layout cache.
	Cached bool `json:"-" msgpack:"-"`
}

// Validate checks that node ids are unique and non-empty, sizes are
// positive and every edge joins known nodes. Violations are LAYOUT_FAILED
// errors.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeLayoutFailed, "node with empty id")
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeLayoutFailed, "duplicate node %q", n.ID)
		}
		if !(n.Width > 0) || !(n.Height > 0) || math.IsInf(n.Width, 0) || math.IsInf(n.Height, 0) {
			return errors.New(errors.ErrCodeLayoutFailed, "node %q has invalid size %vx%v", n.ID, n.Width, n.Height)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range g.Edges {
		if _, ok := seen[e.From]; !ok {
			return errors.New(errors.ErrCodeLayoutFailed, "edge %s->%s: unknown source node", e.From, e.To)
		}
		if _, ok := seen[e.To]; !ok {
			return errors.New(errors.ErrCodeLayoutFailed, "edge %s->%s: unknown target node", e.From, e.To)
		}
	}
	return nil
}

func emptyResult(cfg Config) Result {
	return Result{
		Positions: map[string]Point{},
		Ranks:     map[string]int{},
		Width:     2 * cfg.Margin,
		Height:    2 * cfg.Margin,
	}
}
