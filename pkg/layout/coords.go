package layout

import (
	"math"

	"github.com/matzehuels/erdflow/pkg/dag"
)

// alignPasses is the number of down/up sweeps that pull nodes toward the
// mean position of their neighbors.
const alignPasses = 8

// coords holds box centers in layout space: u runs across ranks and v
// along them, before the RankDir transform.
type coords struct {
	u, v          map[string]float64
	across, along float64 // total extents, margins included
}

func (c coords) point(id string, dir RankDir) Point {
	u, v := c.u[id], c.v[id]
	switch dir {
	case BottomToTop:
		return Point{X: u, Y: c.along - v}
	case LeftToRight:
		return Point{X: v, Y: u}
	case RightToLeft:
		return Point{X: c.along - v, Y: u}
	default:
		return Point{X: u, Y: v}
	}
}

func (c coords) extent(dir RankDir) (width, height float64) {
	if dir.Horizontal() {
		return c.along, c.across
	}
	return c.across, c.along
}

// assignCoordinates places every node of an ordered, properly layered DAG.
//
// Along the rank axis each rank is a band as thick as its thickest box, and
// bands are RankSep apart, so boxes of different ranks never overlap.
// Across, nodes keep their rank order and at least the separation gap
// between neighbors; within that constraint they are moved as close as
// possible (least squares) to the mean position of their neighbors in the
// adjacent rank.
func assignCoordinates(g *dag.DAG, orders map[int][]string, cfg Config) coords {
	ranks := g.RankIDs()
	c := coords{
		u: make(map[string]float64, g.NodeCount()),
		v: make(map[string]float64, g.NodeCount()),
	}

	offset := cfg.Margin
	for i, r := range ranks {
		thick := 0.0
		for _, id := range orders[r] {
			n, _ := g.Node(id)
			thick = math.Max(thick, n.Height)
		}
		for _, id := range orders[r] {
			c.v[id] = offset + thick/2
		}
		offset += thick
		if i < len(ranks)-1 {
			offset += cfg.RankSep
		}
	}
	c.along = offset + cfg.Margin

	p := placer{g: g, cfg: cfg, u: c.u}
	for _, r := range ranks {
		p.pack(orders[r])
	}
	for pass := 0; pass < alignPasses; pass++ {
		for i := 1; i < len(ranks); i++ {
			p.align(orders[ranks[i]], true)
		}
		for i := len(ranks) - 2; i >= 0; i-- {
			p.align(orders[ranks[i]], false)
		}
	}

	minLeft, maxRight := math.Inf(1), math.Inf(-1)
	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			continue
		}
		minLeft = math.Min(minLeft, c.u[n.ID]-n.Width/2)
		maxRight = math.Max(maxRight, c.u[n.ID]+n.Width/2)
	}
	shift := cfg.Margin - minLeft
	for id := range c.u {
		c.u[id] += shift
	}
	c.across = maxRight - minLeft + 2*cfg.Margin
	return c
}

type placer struct {
	g   *dag.DAG
	cfg Config
	u   map[string]float64
}

// halfSep is the share of separation a node claims on each of its sides.
func (p placer) halfSep(n *dag.Node) float64 {
	if n.IsVirtual() {
		return p.cfg.EdgeSep / 2
	}
	return p.cfg.NodeSep / 2
}

// gap is the minimum center distance between adjacent nodes a and b.
func (p placer) gap(a, b string) float64 {
	na, _ := p.g.Node(a)
	nb, _ := p.g.Node(b)
	return na.Width/2 + nb.Width/2 + p.halfSep(na) + p.halfSep(nb)
}

// pack places a rank tightly, centered on zero.
func (p placer) pack(row []string) {
	if len(row) == 0 {
		return
	}
	x := 0.0
	p.u[row[0]] = 0
	for i := 1; i < len(row); i++ {
		x += p.gap(row[i-1], row[i])
		p.u[row[i]] = x
	}
	mid := x / 2
	for _, id := range row {
		p.u[id] -= mid
	}
}

// align moves the nodes of row toward the mean position of their parents
// (or children) while keeping order and separation.
func (p placer) align(row []string, useParents bool) {
	if len(row) == 0 {
		return
	}
	desired := make([]float64, len(row))
	for i, id := range row {
		nbrs := p.g.Children(id)
		if useParents {
			nbrs = p.g.Parents(id)
		}
		if len(nbrs) == 0 {
			desired[i] = p.u[id]
			continue
		}
		sum := 0.0
		for _, nb := range nbrs {
			sum += p.u[nb]
		}
		desired[i] = sum / float64(len(nbrs))
	}

	offsets := make([]float64, len(row))
	for i := 1; i < len(row); i++ {
		offsets[i] = offsets[i-1] + p.gap(row[i-1], row[i])
	}
	for i := range desired {
		desired[i] -= offsets[i]
	}
	fitted := isotonic(desired)
	for i, id := range row {
		p.u[id] = fitted[i] + offsets[i]
	}
}

// isotonic returns the non-decreasing sequence closest to xs in least
// squares (pool adjacent violators).
func isotonic(xs []float64) []float64 {
	type block struct {
		sum   float64
		count int
	}
	mean := func(b block) float64 { return b.sum / float64(b.count) }

	blocks := make([]block, 0, len(xs))
	for _, x := range xs {
		blocks = append(blocks, block{sum: x, count: 1})
		for len(blocks) > 1 {
			last, prev := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if mean(prev) <= mean(last) {
				break
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, block{sum: prev.sum + last.sum, count: prev.count + last.count})
		}
	}

	out := make([]float64, 0, len(xs))
	for _, b := range blocks {
		m := mean(b)
		for i := 0; i < b.count; i++ {
			out = append(out, m)
		}
	}
	return out
}
