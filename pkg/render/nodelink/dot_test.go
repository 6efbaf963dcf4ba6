package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/schema"
)

func positioned() diagram.Diagram {
	users := &schema.Table{ID: "users", Name: "users", Fields: []schema.Field{
		{ID: "1", TableID: "users", Name: "id", Type: schema.FieldType{TypeName: "int"}, PK: true},
	}}
	orders := &schema.Table{ID: "orders", Name: "orders", SchemaName: "shop", Fields: []schema.Field{
		{ID: "2", TableID: "orders", Name: "id", Type: schema.FieldType{TypeName: "int"}, PK: true},
		{ID: "3", TableID: "orders", Name: "user_id", Type: schema.FieldType{TypeName: "int"}, NotNull: true},
	}}
	measured := diagram.Size{Width: 200, Height: 80}
	return diagram.Diagram{
		Width:  300,
		Height: 300,
		Nodes: []diagram.Node{
			{ID: diagram.NodeID{TableID: "users"}, Position: diagram.Position{X: 86, Y: 18}, Data: diagram.NodeData{Table: users}},
			{ID: diagram.NodeID{TableID: "orders"}, Size: &measured, Position: diagram.Position{X: 100, Y: 250}, Data: diagram.NodeData{Table: orders}},
		},
		Edges: []diagram.Edge{{
			ID:           diagram.EdgeID{SchemaID: "s", RefID: "r1"},
			Source:       diagram.NodeID{TableID: "users"},
			Target:       diagram.NodeID{TableID: "orders"},
			SourceHandle: diagram.HandleID{FieldID: "1", Role: diagram.RoleSource, Side: diagram.SideRight},
			TargetHandle: diagram.HandleID{FieldID: "3", Role: diagram.RoleTarget, Side: diagram.SideLeft},
			SourceSide:   diagram.SideRight,
			TargetSide:   diagram.SideLeft,
			Highlighted:  true,
			Data:         diagram.EdgeData{SchemaID: "s", SourceRelation: schema.RelationOne, TargetRelation: schema.RelationMany},
		}},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(positioned(), Options{Detailed: true})

	for _, want := range []string{
		`n0 [width=2.3889, height=0.5000, pos="86.00,282.00!"`,
		`n1 [width=2.7778, height=1.1111, pos="100.00,50.00!"`,
		`<b>shop.orders</b>`,
		`int PK`,
		`n0:f0:e -> n1:f2:w`,
		`id="relation-s-r1"`,
		`arrowtail=tee, arrowhead=crow`,
		`penwidth=2`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTFieldTooltips(t *testing.T) {
	d := positioned()
	orders := d.Nodes[1].Data.Table
	orders.Fields[1].Note = `owner <id>`
	orders.Fields[1].Default = "0"

	dot := ToDOT(d, Options{Detailed: true})
	if want := `title="owner &lt;id&gt;; default 0"`; !strings.Contains(dot, want) {
		t.Errorf("DOT missing %q:\n%s", want, dot)
	}
	if n := strings.Count(dot, "title="); n != 1 {
		t.Errorf("%d tooltips, want only the field with details", n)
	}
	if strings.Contains(ToDOT(d, Options{}), "title=") {
		t.Error("compact labels carry tooltips")
	}
}

func TestToDOTSkipsDanglingEdges(t *testing.T) {
	d := positioned()
	d.Nodes = d.Nodes[:1]
	dot := ToDOT(d, Options{})
	if strings.Contains(dot, "->") {
		t.Errorf("dangling edge rendered:\n%s", dot)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		port string
		side diagram.Side
		want string
	}{
		{"f1", diagram.SideLeft, "n0:f1:w"},
		{"f1", diagram.SideRight, "n0:f1:e"},
		{"f1", diagram.SideNone, "n0:f1"},
		{"", diagram.SideNone, "n0"},
	}
	for _, tt := range tests {
		if got := endpoint("n0", tt.port, tt.side); got != tt.want {
			t.Errorf("endpoint(%q, %q) = %q, want %q", tt.port, tt.side, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox = %s, want %s", out, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
