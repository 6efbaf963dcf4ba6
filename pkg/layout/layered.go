package layout

import (
	"context"

	"github.com/matzehuels/erdflow/pkg/dag"
	"github.com/matzehuels/erdflow/pkg/dag/transform"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/layout/ordering"
)

// LayeredName is the name of the built-in engine.
const LayeredName = "layered"

// Layered is the built-in hierarchical layout engine. The zero value uses
// [ordering.Barycentric] with Config.Passes sweeps.
//
// Layered is deterministic: the same graph (including node and edge order)
// and config always produce the same result.
type Layered struct {
	Orderer ordering.Orderer
}

// Name implements [Engine].
func (Layered) Name() string { return LayeredName }

// Layout implements [Engine].
func (l Layered) Layout(ctx context.Context, g Graph, cfg Config) (Result, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := g.Validate(); err != nil {
		return Result{}, err
	}
	if len(g.Nodes) == 0 {
		return emptyResult(cfg), nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout canceled")
	}

	d := toDAG(g, cfg.RankDir)
	reversed := transform.Normalize(d)

	orderer := l.Orderer
	if orderer == nil {
		orderer = ordering.Barycentric{Passes: cfg.Passes}
	}
	orders := orderer.OrderRanks(d)

	c := assignCoordinates(d, orders, cfg)

	res := Result{
		Positions: make(map[string]Point, len(g.Nodes)),
		Ranks:     make(map[string]int, len(g.Nodes)),
		Crossings: dag.CountCrossings(d, orders),
		Reversed:  reversed,
	}
	for _, n := range g.Nodes {
		res.Positions[n.ID] = c.point(n.ID, cfg.RankDir)
		node, _ := d.Node(n.ID)
		res.Ranks[n.ID] = node.Rank
	}
	res.Width, res.Height = c.extent(cfg.RankDir)
	return res, nil
}

// toDAG copies g into a DAG whose Width runs across ranks and Height along
// them, swapping box extents for horizontal layouts.
func toDAG(g Graph, dir RankDir) *dag.DAG {
	d := dag.New()
	for _, n := range g.Nodes {
		across, along := n.Width, n.Height
		if dir.Horizontal() {
			across, along = along, across
		}
		_ = d.AddNode(dag.Node{ID: n.ID, Width: across, Height: along})
	}
	for _, e := range g.Edges {
		if e.From == e.To || d.HasEdge(e.From, e.To) {
			continue
		}
		_ = d.AddEdge(dag.Edge{From: e.From, To: e.To})
	}
	return d
}
