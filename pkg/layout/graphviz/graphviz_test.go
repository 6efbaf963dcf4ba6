package graphviz

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/erdflow/pkg/layout"
)

func TestToDOT(t *testing.T) {
	g := layout.Graph{
		Nodes: []layout.Node{{ID: `odd "id"`, Width: 144, Height: 72}, {ID: "orders", Width: 72, Height: 36}},
		Edges: []layout.Edge{{From: `odd "id"`, To: "orders"}, {From: `odd "id"`, To: "orders"}, {From: "orders", To: "orders"}},
	}

	dot, names := ToDOT(g, layout.DefaultConfig())

	if names[0] != `odd "id"` || names[1] != "orders" {
		t.Errorf("names = %v", names)
	}
	for _, want := range []string{
		"rankdir=TB;",
		"n0 [width=2.0000, height=1.0000];",
		"n1 [width=1.0000, height=0.5000];",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "->") != 1 {
		t.Errorf("DOT should contain one edge:\n%s", dot)
	}
}

func TestParsePlain(t *testing.T) {
	plain := `graph 1 3.5 2.5
node n0 1.75 2.25 2 0.5 "" solid box black lightgrey
node n1 1.75 0.25 2 0.5 "" solid box black lightgrey
edge n0 n1 4 1.75 2 1.75 1.5 1.75 1 1.75 0.5 solid black
stop
`
	boxes, err := parsePlain([]byte(plain))
	if err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 2 || boxes["n1"].y != 0.25 || boxes["n0"].w != 2 {
		t.Errorf("boxes = %+v", boxes)
	}

	if _, err := parsePlain([]byte("node n0 1 x 2 3\n")); err == nil {
		t.Error("parsePlain accepted a bad number")
	}
}

func TestToResultFlipsAndShifts(t *testing.T) {
	g := layout.Graph{Nodes: []layout.Node{{ID: "users", Width: 144, Height: 36}, {ID: "orders", Width: 144, Height: 36}}}
	boxes := map[string]plainBox{
		"n0": {x: 1, y: 2, w: 2, h: 0.5},
		"n1": {x: 1, y: 0.25, w: 2, h: 0.5},
	}

	res, err := toResult(g, []string{"users", "orders"}, boxes, layout.Config{RankDir: layout.TopToBottom, Margin: 10})
	if err != nil {
		t.Fatal(err)
	}

	u, o := res.Positions["users"], res.Positions["orders"]
	if math.Abs(u.X-82) > 1e-9 || math.Abs(u.Y-28) > 1e-9 {
		t.Errorf("users = %v, want (82, 28)", u)
	}
	if o.Y <= u.Y {
		t.Errorf("orders should be below users: %v vs %v", o, u)
	}
	if res.Ranks["users"] != 0 || res.Ranks["orders"] != 1 {
		t.Errorf("ranks = %v", res.Ranks)
	}
}

func TestEngineLayout(t *testing.T) {
	if testing.Short() {
		t.Skip("runs graphviz")
	}
	g := layout.Graph{
		Nodes: []layout.Node{{ID: "users", Width: 172, Height: 36}, {ID: "orders", Width: 172, Height: 80}, {ID: "items", Width: 172, Height: 36}},
		Edges: []layout.Edge{{From: "users", To: "orders"}, {From: "orders", To: "items"}, {From: "users", To: "items"}},
	}

	res, err := New().Layout(context.Background(), g, layout.DefaultConfig())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(res.Positions) != 3 {
		t.Fatalf("positions = %v", res.Positions)
	}
	if !(res.Positions["users"].Y < res.Positions["orders"].Y && res.Positions["orders"].Y < res.Positions["items"].Y) {
		t.Errorf("ranks not top to bottom: %v", res.Positions)
	}
}
