package nodelink

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds the column type and key markers to each field row.
	// When false, only field names are shown.
	Detailed bool

	// Fallback is the box size of unmeasured nodes. Zero means
	// [diagram.DefaultSize].
	Fallback diagram.Size
}

const pointsPerInch = 72.0

// ToDOT converts a positioned diagram to Graphviz DOT.
//
// Every node is pinned at its layout position (y flipped, since Graphviz
// grows upwards) and drawn as an HTML table with one port per field, so the
// result is meant for the neato engine, which only routes the edges. Edges
// leave and enter on the west or east face according to their resolved
// sides; highlighted edges are drawn thicker and in the accent color.
func ToDOT(d diagram.Diagram, opts Options) string {
	fallback := opts.Fallback
	if fallback.Width <= 0 || fallback.Height <= 0 {
		fallback = diagram.DefaultSize()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  graph [bgcolor=\"transparent\", splines=true, overlap=true, inputscale=72, notranslate=true];\n")
	buf.WriteString("  node [shape=none, margin=0, fixedsize=true, fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  edge [dir=both, color=\"#64748b\", arrowsize=0.8];\n")
	buf.WriteString("\n")

	names := make(map[diagram.NodeID]string, len(d.Nodes))
	ports := make(map[string]string)
	for i, n := range d.Nodes {
		name := "n" + strconv.Itoa(i)
		names[n.ID] = name

		sz := fallback
		if n.Size != nil {
			sz = *n.Size
		}
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s, pos=\"%s,%s!\", label=<%s>];\n",
			name, inches(sz.Width), inches(sz.Height),
			num(n.Position.X), num(d.Height-n.Position.Y),
			tableLabel(n.Data.Table, ports, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		from, okF := names[e.Source]
		to, okT := names[e.Target]
		if !okF || !okT {
			continue
		}
		attrs := fmt.Sprintf("arrowtail=%s, arrowhead=%s", arrow(e.Data.SourceRelation), arrow(e.Data.TargetRelation))
		if e.Highlighted {
			attrs += ", color=\"#ef4444\", penwidth=2"
		}
		fmt.Fprintf(&buf, "  %s -> %s [id=%q, %s];\n",
			endpoint(from, ports[e.SourceHandle.FieldID], e.SourceSide),
			endpoint(to, ports[e.TargetHandle.FieldID], e.TargetSide),
			e.ID.String(), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// tableLabel renders t as an HTML-like label and records a port per field.
func tableLabel(t *schema.Table, ports map[string]string, detailed bool) string {
	var buf bytes.Buffer
	buf.WriteString(`<table border="1" cellborder="0" cellspacing="0" cellpadding="4" bgcolor="white" color="#334155">`)
	if t == nil {
		buf.WriteString(`<tr><td>?</td></tr></table>`)
		return buf.String()
	}
	fmt.Fprintf(&buf, `<tr><td bgcolor="#334155" colspan="2"><font color="white"><b>%s</b></font></td></tr>`,
		html.EscapeString(t.DisplayName()))
	for i := range t.Fields {
		f := &t.Fields[i]
		port := "f" + strconv.Itoa(len(ports))
		ports[f.ID] = port

		name := html.EscapeString(f.Name)
		if f.PK {
			name = "<b>" + name + "</b>"
		}
		if !detailed {
			fmt.Fprintf(&buf, `<tr><td port="%s" align="left" colspan="2">%s</td></tr>`, port, name)
			continue
		}
		fmt.Fprintf(&buf, `<tr><td port="%s" align="left"%s>%s</td><td align="right"><font color="#64748b">%s%s</font></td></tr>`,
			port, tooltip(f), name, html.EscapeString(f.Type.String()), markers(f))
	}
	buf.WriteString(`</table>`)
	return buf.String()
}

func markers(f *schema.Field) string {
	var s string
	if f.PK {
		s += " PK"
	}
	if f.NotNull {
		s += " NN"
	}
	if f.Unique {
		s += " UQ"
	}
	return s
}

// tooltip is the title attribute showing a field's note, enum and default.
func tooltip(f *schema.Field) string {
	if !f.HasDetails() {
		return ""
	}
	var parts []string
	if f.Note != "" {
		parts = append(parts, f.Note)
	}
	if f.Enum != "" {
		parts = append(parts, "enum "+f.Enum)
	}
	if f.Default != "" {
		parts = append(parts, "default "+f.Default)
	}
	return ` title="` + html.EscapeString(strings.Join(parts, "; ")) + `"`
}

// endpoint writes node:port:compass, leaving out what is unknown.
func endpoint(node, port string, side diagram.Side) string {
	s := node
	if port != "" {
		s += ":" + port
	}
	switch side {
	case diagram.SideLeft:
		s += ":w"
	case diagram.SideRight:
		s += ":e"
	}
	return s
}

func arrow(r schema.Relation) string {
	if r == schema.RelationMany {
		return "crow"
	}
	return "tee"
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
