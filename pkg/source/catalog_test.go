package source

import (
	"testing"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/schema"
)

func userCatalog() *Catalog {
	c := NewCatalog()
	c.AddColumn("public", "users", Column{Name: "id", Type: "int", PK: true})
	c.AddColumn("public", "orders", Column{Name: "id", Type: "int", PK: true})
	c.AddColumn("public", "orders", Column{Name: "user_id", Type: "int"})
	c.AddColumn("public", "invoices", Column{Name: "id", Type: "int", PK: true})
	c.AddColumn("public", "invoices", Column{Name: "user_id", Type: "int", Unique: true})
	return c
}

func TestCatalogRefIDsAreUnique(t *testing.T) {
	c := userCatalog()
	for _, child := range []string{"orders", "invoices"} {
		c.AddForeignKey("public", ForeignKey{
			Name:          "fk_user",
			ChildTable:    child,
			ChildColumns:  []string{"user_id"},
			ParentTable:   "users",
			ParentColumns: []string{"id"},
		})
	}
	c.AddForeignKey("public", ForeignKey{
		ChildTable:    "orders",
		ChildColumns:  []string{"user_id"},
		ParentTable:   "users",
		ParentColumns: []string{"id"},
	})

	db := c.Database()
	refs := db.Schemas[0].Refs
	want := []string{"orders.fk_user", "invoices.fk_user", "fk_orders_2"}
	if len(refs) != len(want) {
		t.Fatalf("refs = %d, want %d", len(refs), len(want))
	}
	for i, id := range want {
		if refs[i].ID != id {
			t.Errorf("ref %d id = %q, want %q", i, refs[i].ID, id)
		}
	}
	if refs[0].Name != "fk_user" {
		t.Errorf("ref name = %q, want the constraint name", refs[0].Name)
	}

	d, diags := diagram.Build(db, nil)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v", diags)
	}
	if len(d.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(d.Edges))
	}
	if d.Edges[0].ID == d.Edges[1].ID {
		t.Errorf("same edge id %s for two constraints", d.Edges[0].ID)
	}
}

func TestCatalogRelations(t *testing.T) {
	c := userCatalog()
	c.AddForeignKey("public", ForeignKey{Name: "fk_o", ChildTable: "orders", ChildColumns: []string{"user_id"}, ParentTable: "users", ParentColumns: []string{"id"}})
	c.AddForeignKey("public", ForeignKey{Name: "fk_i", ChildTable: "invoices", ChildColumns: []string{"user_id"}, ParentTable: "users", ParentColumns: []string{"id"}})

	refs := c.Database().Schemas[0].Refs
	tests := []struct {
		ref    schema.Ref
		child  schema.Relation
		fields []string
	}{
		{refs[0], schema.RelationMany, []string{"public.orders.user_id"}},
		{refs[1], schema.RelationOne, []string{"public.invoices.user_id"}},
	}
	for _, tt := range tests {
		if tt.ref.Endpoints[0].Relation != schema.RelationOne {
			t.Errorf("%s: parent relation = %q", tt.ref.ID, tt.ref.Endpoints[0].Relation)
		}
		if tt.ref.Endpoints[1].Relation != tt.child {
			t.Errorf("%s: child relation = %q, want %q", tt.ref.ID, tt.ref.Endpoints[1].Relation, tt.child)
		}
		if got := tt.ref.Endpoints[1].FieldIDs; len(got) != 1 || got[0] != tt.fields[0] {
			t.Errorf("%s: child fields = %v", tt.ref.ID, got)
		}
	}
}
