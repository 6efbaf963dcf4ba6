package transform

import (
	"fmt"

	"github.com/matzehuels/erdflow/pkg/dag"
)

// Subdivide replaces every edge spanning more than one rank with a chain of
// zero-size [dag.NodeKindVirtual] nodes, one per intermediate rank:
//
//	Before: users (rank 0) → audit_log (rank 3)
//	After:  users → v1 → v2 → audit_log
//
// Virtual nodes take part in ordering and coordinate assignment so long
// connectors get a lane of their own, and are dropped from the final
// positions. Their Origin is the edge source.
//
// Virtual IDs have the form "~origin~target~rank" and get a numeric suffix
// on collision.
func Subdivide(g *dag.DAG) {
	gen := newIDGen(g.Nodes())

	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Rank <= src.Rank+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		for rank := src.Rank + 1; rank < dst.Rank; rank++ {
			prevID = addVirtual(g, gen, prevID, src.ID, dst.ID, rank)
		}
		if err := g.AddEdge(dag.Edge{From: prevID, To: dst.ID}); err != nil {
			panic(err)
		}
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
}

func addVirtual(g *dag.DAG, gen *idGen, from, origin, target string, rank int) string {
	id := gen.next(origin, target, rank)
	if err := g.AddNode(dag.Node{
		ID:     id,
		Rank:   rank,
		Kind:   dag.NodeKindVirtual,
		Origin: origin,
	}); err != nil {
		panic(err)
	}
	if err := g.AddEdge(dag.Edge{From: from, To: id}); err != nil {
		panic(err)
	}
	return id
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(origin, target string, rank int) string {
	prefix := fmt.Sprintf("~%s~%s~%d", origin, target, rank)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
