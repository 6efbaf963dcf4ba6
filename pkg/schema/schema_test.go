package schema

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/erdflow/pkg/errors"
)

const shopYAML = `
schemas:
  - id: public
    name: public
    tables:
      - id: users
        name: users
        fields:
          - {id: users.id, table_id: users, name: id, type: {type_name: int}, pk: true}
          - {id: users.email, table_id: users, name: email, type: {type_name: varchar, args: "255"}, unique: true}
      - id: orders
        name: orders
        schema_name: sales
        fields:
          - {id: orders.id, table_id: orders, name: id, type: {type_name: int}, pk: true}
          - {id: orders.user_id, table_id: orders, name: user_id, type: {type_name: int}, not_null: true}
    refs:
      - id: fk_orders_user
        endpoints:
          - {table_name: users, field_ids: [users.id], relation: "1"}
          - {table_name: orders, field_ids: [orders.user_id], relation: "*"}
        on_delete: cascade
`

func TestDecodeYAML(t *testing.T) {
	db, err := Decode(strings.NewReader(shopYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got := db.TableCount(); got != 2 {
		t.Errorf("TableCount() = %d, want 2", got)
	}
	if got := db.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}

	ref := db.Schemas[0].Refs[0]
	if ref.Endpoints[1].Relation != RelationMany {
		t.Errorf("target relation = %q, want %q", ref.Endpoints[1].Relation, RelationMany)
	}
	if ref.OnDelete != "cascade" {
		t.Errorf("OnDelete = %q, want cascade", ref.OnDelete)
	}
	if got := db.Schemas[0].Tables[0].Fields[1].Type.String(); got != "varchar(255)" {
		t.Errorf("Type.String() = %q, want varchar(255)", got)
	}
}

func TestEncodeDecodeJSON(t *testing.T) {
	db, err := Decode(strings.NewReader(shopYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, db, FormatJSON); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("Decode(json): %v", err)
	}
	if back.Schemas[0].Refs[0].Endpoints[0].FieldIDs[0] != "users.id" {
		t.Errorf("source field = %v, want users.id", back.Schemas[0].Refs[0].Endpoints[0].FieldIDs)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		code   errors.Code
	}{
		{"bad json", `{"schemas": [`, FormatJSON, errors.ErrCodeInvalidSchema},
		{"unknown json field", `{"schemas": [], "views": []}`, FormatJSON, errors.ErrCodeInvalidSchema},
		{"bad yaml", "schemas: [\n  - id: [", FormatYAML, errors.ErrCodeInvalidSchema},
		{"unknown format", `{}`, Format("toml"), errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDecodeEmptyYAML(t *testing.T) {
	db, err := Decode(strings.NewReader(""), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if db.TableCount() != 0 {
		t.Errorf("TableCount() = %d, want 0", db.TableCount())
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shop.yml")
	if err := os.WriteFile(path, []byte(shopYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if db.TableCount() != 2 {
		t.Errorf("TableCount() = %d, want 2", db.TableCount())
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"schema.json": FormatJSON,
		"schema.yaml": FormatYAML,
		"schema.YML":  FormatYAML,
		"schema":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestIndex(t *testing.T) {
	db, err := Decode(strings.NewReader(shopYAML), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	idx := db.Index()

	if tbl, ok := idx.FieldTable("orders.user_id"); !ok || tbl.ID != "orders" {
		t.Errorf("FieldTable(orders.user_id) = %v, %v; want orders", tbl, ok)
	}
	if f, ok := idx.Field("users.email"); !ok || !f.Unique {
		t.Errorf("Field(users.email) = %v, %v", f, ok)
	}
	if _, ok := idx.Field("nope"); ok {
		t.Error("Field(nope) found, want missing")
	}
	if tbl, ok := idx.Table("orders"); !ok || tbl.DisplayName() != "sales.orders" {
		t.Errorf("Table(orders).DisplayName() = %v", tbl)
	}

	var nilDB *Database
	if _, ok := nilDB.Index().Table("users"); ok {
		t.Error("nil database index should be empty")
	}
}

func TestEndpointAnchor(t *testing.T) {
	if _, ok := (Endpoint{}).AnchorFieldID(); ok {
		t.Error("empty endpoint should have no anchor")
	}
	id, ok := Endpoint{FieldIDs: []string{"a", "b"}}.AnchorFieldID()
	if !ok || id != "a" {
		t.Errorf("AnchorFieldID() = %q, %v; want a, true", id, ok)
	}
}
