package diagram

import (
	"github.com/matzehuels/erdflow/pkg/errors"
)

// Sides decides which face each end of an edge leaves from, given the x
// coordinates of the source and target nodes. A source at or to the right
// of its target leaves from its left and enters the target from the right;
// otherwise the reverse. Equal coordinates take the first branch.
func Sides(sourceX, targetX float64) (source, target Side) {
	if sourceX >= targetX {
		return SideLeft, SideRight
	}
	return SideRight, SideLeft
}

// ResolveAnchors returns a copy of edges with sides assigned from the
// positions of nodes. Previous side assignments are discarded.
//
// An edge whose source or target is missing from nodes is passed through
// with its sides cleared and reported as a DANGLING_EDGE diagnostic.
func ResolveAnchors(nodes []Node, edges []Edge) ([]Edge, []Diagnostic) {
	pos := make(map[NodeID]Position, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n.Position
	}

	out := make([]Edge, len(edges))
	var diags []Diagnostic
	for i, e := range edges {
		e.SourceHandle = e.SourceHandle.WithSide(SideNone)
		e.TargetHandle = e.TargetHandle.WithSide(SideNone)
		e.SourceSide, e.TargetSide = SideNone, SideNone

		sp, okS := pos[e.Source]
		tp, okT := pos[e.Target]
		if !okS || !okT {
			diags = append(diags, Diagnostic{
				Code:    errors.ErrCodeDanglingEdge,
				Message: "cannot find source or target node, source: " + e.Source.String() + " target: " + e.Target.String(),
				Subject: e.ID.String(),
			})
			out[i] = e
			continue
		}

		e.SourceSide, e.TargetSide = Sides(sp.X, tp.X)
		e.SourceHandle = e.SourceHandle.WithSide(e.SourceSide)
		e.TargetHandle = e.TargetHandle.WithSide(e.TargetSide)
		out[i] = e
	}
	return out, diags
}
