package diagram

import (
	"reflect"
	"testing"
)

func TestConnectedEdges(t *testing.T) {
	edges := []Edge{
		{ID: EdgeID{"s", "1"}, SourceHandle: HandleID{FieldID: "1", Role: RoleSource}, TargetHandle: HandleID{FieldID: "2", Role: RoleTarget}},
		{ID: EdgeID{"s", "2"}, SourceHandle: HandleID{FieldID: "12", Role: RoleSource, Side: SideLeft}, TargetHandle: HandleID{FieldID: "3", Role: RoleTarget, Side: SideRight}},
		{ID: EdgeID{"s", "3"}, SourceHandle: HandleID{FieldID: "3", Role: RoleSource}, TargetHandle: HandleID{FieldID: "1", Role: RoleTarget, Side: SideLeft}},
		{ID: EdgeID{"s", "4"}, SourceHandle: HandleID{FieldID: "1-x", Role: RoleSource}, TargetHandle: HandleID{FieldID: "4", Role: RoleTarget}},
	}

	got := ConnectedEdges(edges, "1")
	want := []EdgeID{{"s", "1"}, {"s", "3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConnectedEdges(1) = %v, want %v", got, want)
	}

	if got := ConnectedEdges(edges, "missing"); got != nil {
		t.Errorf("ConnectedEdges(missing) = %v, want nil", got)
	}
}

func TestWithHighlights(t *testing.T) {
	d := Diagram{Edges: []Edge{
		{ID: EdgeID{"s", "1"}, Highlighted: true},
		{ID: EdgeID{"s", "2"}},
	}}

	out := d.WithHighlights(map[EdgeID]struct{}{{"s", "2"}: {}, {"s", "ghost"}: {}})

	if got := out.Highlighted(); !reflect.DeepEqual(got, []EdgeID{{"s", "2"}}) {
		t.Errorf("Highlighted() = %v", got)
	}
	if !d.Edges[0].Highlighted {
		t.Error("WithHighlights modified the receiver")
	}
}
