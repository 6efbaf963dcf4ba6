package schema

// Relation is the cardinality marker of one side of a relationship.
type Relation string

// Cardinality markers.
const (
	RelationOne  Relation = "1"
	RelationMany Relation = "*"
)

// Database is the root of a parsed schema model.
type Database struct {
	Schemas []Schema `json:"schemas" yaml:"schemas"`
}

// Schema is a named namespace of tables and the relationships among them.
type Schema struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Note   string  `json:"note,omitempty" yaml:"note,omitempty"`
	Tables []Table `json:"tables" yaml:"tables"`
	Refs   []Ref   `json:"refs,omitempty" yaml:"refs,omitempty"`
}

// Table is one relation of the schema.
type Table struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	SchemaName string  `json:"schema_name,omitempty" yaml:"schema_name,omitempty"`
	Alias      string  `json:"alias,omitempty" yaml:"alias,omitempty"`
	Note       string  `json:"note,omitempty" yaml:"note,omitempty"`
	Fields     []Field `json:"fields" yaml:"fields"`
}

// DisplayName returns the schema-qualified table name, omitting the schema
// when it is empty or "public".
func (t *Table) DisplayName() string {
	if t.SchemaName == "" || t.SchemaName == "public" {
		return t.Name
	}
	return t.SchemaName + "." + t.Name
}

// Field is a column of a table.
type Field struct {
	ID        string    `json:"id" yaml:"id"`
	TableID   string    `json:"table_id" yaml:"table_id"`
	Name      string    `json:"name" yaml:"name"`
	Type      FieldType `json:"type" yaml:"type"`
	PK        bool      `json:"pk,omitempty" yaml:"pk,omitempty"`
	NotNull   bool      `json:"not_null,omitempty" yaml:"not_null,omitempty"`
	Unique    bool      `json:"unique,omitempty" yaml:"unique,omitempty"`
	Increment bool      `json:"increment,omitempty" yaml:"increment,omitempty"`
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
	Enum      string    `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default   string    `json:"default,omitempty" yaml:"default,omitempty"`
}

// HasDetails reports whether the field carries information beyond its name
// and type that a detail view would show.
func (f *Field) HasDetails() bool {
	return f.Note != "" || f.Enum != "" || f.Default != ""
}

// FieldType describes a column type such as varchar(255).
type FieldType struct {
	TypeName string `json:"type_name" yaml:"type_name"`
	Args     string `json:"args,omitempty" yaml:"args,omitempty"`
}

// String renders the type the way it is written in DDL.
func (t FieldType) String() string {
	if t.Args == "" {
		return t.TypeName
	}
	return t.TypeName + "(" + t.Args + ")"
}

// Ref is a relationship between two sets of fields. Endpoints[0] is the
// source side and Endpoints[1] the target side.
type Ref struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Endpoints [2]Endpoint `json:"endpoints" yaml:"endpoints"`
	OnDelete  string      `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate  string      `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// Endpoint is one side of a relationship. Composite keys list several
// fields; the first one anchors the connector.
type Endpoint struct {
	TableName  string   `json:"table_name" yaml:"table_name"`
	SchemaName string   `json:"schema_name,omitempty" yaml:"schema_name,omitempty"`
	FieldIDs   []string `json:"field_ids" yaml:"field_ids"`
	Relation   Relation `json:"relation" yaml:"relation"`
}

// AnchorFieldID returns the first field of the endpoint, or false when the
// endpoint lists no fields.
func (e Endpoint) AnchorFieldID() (string, bool) {
	if len(e.FieldIDs) == 0 {
		return "", false
	}
	return e.FieldIDs[0], true
}

// TableCount returns the number of tables across all schemas.
func (db *Database) TableCount() int {
	if db == nil {
		return 0
	}
	n := 0
	for i := range db.Schemas {
		n += len(db.Schemas[i].Tables)
	}
	return n
}

// RefCount returns the number of relationships across all schemas.
func (db *Database) RefCount() int {
	if db == nil {
		return 0
	}
	n := 0
	for i := range db.Schemas {
		n += len(db.Schemas[i].Refs)
	}
	return n
}
