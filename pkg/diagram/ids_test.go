package diagram

import (
	"encoding/json"
	"testing"
)

func TestIDStrings(t *testing.T) {
	tests := []struct {
		name string
		id   interface{ String() string }
		want string
	}{
		{"node", NodeID{TableID: "users"}, "table-users"},
		{"node numeric", NodeID{TableID: "7"}, "table-7"},
		{"edge", EdgeID{SchemaID: "public", RefID: "3"}, "relation-public-3"},
		{"handle source", HandleID{FieldID: "12", Role: RoleSource}, "field-12-source"},
		{"handle target left", HandleID{FieldID: "12", Role: RoleTarget, Side: SideLeft}, "field-12-target-left"},
		{"escaped dash", NodeID{TableID: "order-items"}, "table-order%2Ditems"},
		{"escaped percent", EdgeID{SchemaID: "s%1", RefID: "r-2"}, "relation-s%251-r%2D2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	handles := []HandleID{
		{FieldID: "users.id", Role: RoleSource},
		{FieldID: "a-b", Role: RoleTarget, Side: SideRight},
		{FieldID: "100%-done", Role: RoleSource, Side: SideLeft},
		{FieldID: "%2D", Role: RoleTarget},
	}
	for _, h := range handles {
		got, err := ParseHandleID(h.String())
		if err != nil {
			t.Fatalf("ParseHandleID(%q): %v", h.String(), err)
		}
		if got != h {
			t.Errorf("ParseHandleID(%q) = %+v, want %+v", h.String(), got, h)
		}
	}

	edges := []EdgeID{{"public", "1"}, {"my-schema", "fk-1"}}
	for _, e := range edges {
		got, err := ParseEdgeID(e.String())
		if err != nil || got != e {
			t.Errorf("ParseEdgeID(%q) = %+v, %v; want %+v", e.String(), got, err, e)
		}
	}

	nodes := []NodeID{{"users"}, {"line-items"}}
	for _, n := range nodes {
		got, err := ParseNodeID(n.String())
		if err != nil || got != n {
			t.Errorf("ParseNodeID(%q) = %+v, %v; want %+v", n.String(), got, err, n)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "field-", "field-1", "field-1-sideways", "field-1-source-up", "table-1-source", "users"} {
		if _, err := ParseHandleID(s); err == nil {
			t.Errorf("ParseHandleID(%q) succeeded, want error", s)
		}
	}
	for _, s := range []string{"table-", "tables-x", "table-a-b"} {
		if _, err := ParseNodeID(s); err == nil {
			t.Errorf("ParseNodeID(%q) succeeded, want error", s)
		}
	}
	for _, s := range []string{"relation-a", "relation-a-b-c", "ref-a-b"} {
		if _, err := ParseEdgeID(s); err == nil {
			t.Errorf("ParseEdgeID(%q) succeeded, want error", s)
		}
	}
}

func TestIDsAsJSONMapKeys(t *testing.T) {
	in := Sizes{{TableID: "users"}: {Width: 200, Height: 80}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"table-users":{"width":200,"height":80}}` {
		t.Errorf("Marshal = %s", data)
	}

	var out Sizes
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out[NodeID{TableID: "users"}].Height != 80 {
		t.Errorf("Unmarshal = %v", out)
	}
}
