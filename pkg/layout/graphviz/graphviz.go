// Package graphviz lays out diagrams with the Graphviz dot engine.
//
// [Engine] satisfies [layout.Engine]: it writes the graph as DOT with
// fixed-size boxes, lets dot place them, and reads the node centers back
// from dot's "plain" output. Graphviz runs in-process through
// github.com/goccy/go-graphviz, so no dot binary is needed.
//
// Results are comparable with [layout.Layered] but not identical; dot has
// its own ordering and straightening heuristics and can produce nicer
// drawings for larger schemas at a higher cost.
package graphviz

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/layout"
)

// Name is the engine name.
const Name = "graphviz"

// pointsPerInch converts between canvas units and Graphviz inches.
const pointsPerInch = 72.0

// Engine runs the dot layout.
type Engine struct{}

// New returns a dot engine.
func New() Engine { return Engine{} }

// Name implements [layout.Engine].
func (Engine) Name() string { return Name }

// Layout implements [layout.Engine].
func (Engine) Layout(ctx context.Context, g layout.Graph, cfg layout.Config) (layout.Result, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return layout.Result{}, err
	}
	if err := g.Validate(); err != nil {
		return layout.Result{}, err
	}
	if len(g.Nodes) == 0 {
		return layout.Result{
			Positions: map[string]layout.Point{},
			Ranks:     map[string]int{},
			Width:     2 * cfg.Margin,
			Height:    2 * cfg.Margin,
		}, nil
	}

	dot, names := ToDOT(g, cfg)
	plain, err := render(ctx, dot)
	if err != nil {
		return layout.Result{}, err
	}
	boxes, err := parsePlain(plain)
	if err != nil {
		return layout.Result{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "read dot output")
	}
	return toResult(g, names, boxes, cfg)
}

// ToDOT writes g as a DOT digraph. Nodes are renamed n0, n1, ... in input
// order so that arbitrary ids need no quoting; the returned slice maps the
// index back to the node id.
func ToDOT(g layout.Graph, cfg layout.Config) (string, []string) {
	names := make([]string, len(g.Nodes))
	index := make(map[string]int, len(g.Nodes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", cfg.RankDir)
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(cfg.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=\"%s equally\";\n", inches(cfg.RankSep))
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, n := range g.Nodes {
		names[i] = n.ID
		index[n.ID] = i
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s];\n", i, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	seen := make(map[[2]int]bool, len(g.Edges))
	for _, e := range g.Edges {
		from, to := index[e.From], index[e.To]
		if from == to || seen[[2]int{from, to}] {
			continue
		}
		seen[[2]int{from, to}] = true
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", from, to)
	}

	buf.WriteString("}\n")
	return buf.String(), names
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

func render(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "init graphviz")
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse DOT")
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.Format("plain"), &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "run dot")
	}
	return buf.Bytes(), nil
}

// plainBox is a node line of dot's plain output, in inches with y up.
type plainBox struct {
	x, y, w, h float64
}

// parsePlain reads the node lines of the plain format:
//
//	graph scale width height
//	node name x y width height label ...
//	edge ...
//	stop
func parsePlain(data []byte) (map[string]plainBox, error) {
	boxes := make(map[string]plainBox)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "node" {
			continue
		}
		if len(fields) < 6 {
			return nil, fmt.Errorf("short node line %q", sc.Text())
		}
		var vals [4]float64
		for i := range vals {
			v, err := strconv.ParseFloat(fields[2+i], 64)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", fields[1], err)
			}
			vals[i] = v
		}
		boxes[strings.Trim(fields[1], `"`)] = plainBox{x: vals[0], y: vals[1], w: vals[2], h: vals[3]}
	}
	return boxes, sc.Err()
}

// toResult converts dot coordinates (inches, y up) into centers in canvas
// units with the bounding box starting at the margin, and derives ranks
// from the distinct coordinates along the rank axis.
func toResult(g layout.Graph, names []string, boxes map[string]plainBox, cfg layout.Config) (layout.Result, error) {
	pos := make(map[string]layout.Point, len(names))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for i, id := range names {
		b, ok := boxes[fmt.Sprintf("n%d", i)]
		if !ok {
			return layout.Result{}, errors.New(errors.ErrCodeLayoutFailed, "dot returned no position for %q", id)
		}
		p := layout.Point{X: b.x * pointsPerInch, Y: -b.y * pointsPerInch}
		pos[id] = p
		n := g.Nodes[i]
		minX = math.Min(minX, p.X-n.Width/2)
		minY = math.Min(minY, p.Y-n.Height/2)
		maxX = math.Max(maxX, p.X+n.Width/2)
		maxY = math.Max(maxY, p.Y+n.Height/2)
	}

	for id, p := range pos {
		pos[id] = layout.Point{X: p.X - minX + cfg.Margin, Y: p.Y - minY + cfg.Margin}
	}

	return layout.Result{
		Positions: pos,
		Ranks:     ranks(names, pos, cfg.RankDir),
		Width:     maxX - minX + 2*cfg.Margin,
		Height:    maxY - minY + 2*cfg.Margin,
	}, nil
}

func ranks(names []string, pos map[string]layout.Point, dir layout.RankDir) map[string]int {
	coord := func(p layout.Point) float64 {
		switch dir {
		case layout.BottomToTop:
			return -p.Y
		case layout.LeftToRight:
			return p.X
		case layout.RightToLeft:
			return -p.X
		default:
			return p.Y
		}
	}

	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	var levels []float64
	seen := map[float64]bool{}
	for _, id := range names {
		c := round(coord(pos[id]))
		if !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Float64s(levels)

	rankOf := make(map[float64]int, len(levels))
	for i, c := range levels {
		rankOf[c] = i
	}
	out := make(map[string]int, len(names))
	for _, id := range names {
		out[id] = rankOf[round(coord(pos[id]))]
	}
	return out
}
