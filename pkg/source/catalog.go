package source

import (
	"strconv"

	"github.com/matzehuels/erdflow/pkg/schema"
)

// Column is one introspected column.
type Column struct {
	Name      string
	Type      string
	Args      string // type arguments such as "255" in varchar(255)
	Default   string
	NotNull   bool
	PK        bool
	Unique    bool
	Increment bool
}

// ForeignKey is one introspected foreign key constraint. Composite keys
// list their columns in constraint order.
type ForeignKey struct {
	Name          string
	ChildTable    string
	ChildColumns  []string
	ParentSchema  string
	ParentTable   string
	ParentColumns []string
	OnDelete      string
	OnUpdate      string
}

// Catalog assembles catalog rows into a [schema.Database].
//
// Schemas, tables and columns keep the order they were first added in.
// Table ids are "<schema>.<table>" and field ids "<schema>.<table>.<column>",
// so ids are stable across runs against the same database. Ref ids are
// "<table>.<constraint>" for named foreign keys, "fk_<table>_<n>" otherwise.
type Catalog struct {
	schemas []*catalogSchema
	byName  map[string]*catalogSchema
}

type catalogSchema struct {
	name   string
	tables []*schema.Table
	byName map[string]*schema.Table
	fks    []ForeignKey
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*catalogSchema)}
}

func (c *Catalog) schema(name string) *catalogSchema {
	s, ok := c.byName[name]
	if !ok {
		s = &catalogSchema{name: name, byName: make(map[string]*schema.Table)}
		c.byName[name] = s
		c.schemas = append(c.schemas, s)
	}
	return s
}

// AddTable registers a table without columns. Adding a column registers its
// table implicitly.
func (c *Catalog) AddTable(schemaName, table string) {
	c.table(schemaName, table)
}

func (c *Catalog) table(schemaName, table string) *schema.Table {
	s := c.schema(schemaName)
	t, ok := s.byName[table]
	if !ok {
		t = &schema.Table{ID: TableID(schemaName, table), Name: table, SchemaName: schemaName, Fields: []schema.Field{}}
		s.byName[table] = t
		s.tables = append(s.tables, t)
	}
	return t
}

// AddColumn appends a column to a table.
func (c *Catalog) AddColumn(schemaName, table string, col Column) {
	t := c.table(schemaName, table)
	t.Fields = append(t.Fields, schema.Field{
		ID:        FieldID(schemaName, table, col.Name),
		TableID:   t.ID,
		Name:      col.Name,
		Type:      schema.FieldType{TypeName: col.Type, Args: col.Args},
		PK:        col.PK,
		NotNull:   col.NotNull,
		Unique:    col.Unique,
		Increment: col.Increment,
		Default:   col.Default,
	})
}

// MarkPrimaryKey flags a column as part of its table's primary key. Unknown
// columns are ignored.
func (c *Catalog) MarkPrimaryKey(schemaName, table, column string) {
	c.mark(schemaName, table, column, func(f *schema.Field) { f.PK = true })
}

// MarkUnique flags a column as carrying a single-column unique constraint.
func (c *Catalog) MarkUnique(schemaName, table, column string) {
	c.mark(schemaName, table, column, func(f *schema.Field) { f.Unique = true })
}

func (c *Catalog) mark(schemaName, table, column string, fn func(*schema.Field)) {
	s, ok := c.byName[schemaName]
	if !ok {
		return
	}
	t, ok := s.byName[table]
	if !ok {
		return
	}
	for i := range t.Fields {
		if t.Fields[i].Name == column {
			fn(&t.Fields[i])
			return
		}
	}
}

// AddForeignKey records a foreign key declared on a table of schemaName.
func (c *Catalog) AddForeignKey(schemaName string, fk ForeignKey) {
	s := c.schema(schemaName)
	s.fks = append(s.fks, fk)
}

// Database returns the assembled model. Each foreign key becomes a ref
// from the referenced (one) side to the referencing (many) side; a
// referencing side whose columns are all unique is a one side too.
func (c *Catalog) Database() *schema.Database {
	db := &schema.Database{Schemas: make([]schema.Schema, 0, len(c.schemas))}
	for _, s := range c.schemas {
		out := schema.Schema{ID: s.name, Name: s.name, Tables: make([]schema.Table, 0, len(s.tables))}
		for _, t := range s.tables {
			out.Tables = append(out.Tables, *t)
		}
		for i, fk := range s.fks {
			out.Refs = append(out.Refs, c.ref(s, i, fk))
		}
		db.Schemas = append(db.Schemas, out)
	}
	return db
}

func (c *Catalog) ref(s *catalogSchema, i int, fk ForeignKey) schema.Ref {
	parentSchema := fk.ParentSchema
	if parentSchema == "" {
		parentSchema = s.name
	}
	// Constraint names are only unique per table.
	id := fk.ChildTable + "." + fk.Name
	if fk.Name == "" {
		id = "fk_" + fk.ChildTable + "_" + strconv.Itoa(i)
	}

	parent := schema.Endpoint{TableName: fk.ParentTable, SchemaName: parentSchema, Relation: schema.RelationOne}
	for _, col := range fk.ParentColumns {
		parent.FieldIDs = append(parent.FieldIDs, FieldID(parentSchema, fk.ParentTable, col))
	}
	child := schema.Endpoint{TableName: fk.ChildTable, SchemaName: s.name, Relation: schema.RelationMany}
	for _, col := range fk.ChildColumns {
		child.FieldIDs = append(child.FieldIDs, FieldID(s.name, fk.ChildTable, col))
	}
	if c.allUnique(s, fk.ChildTable, fk.ChildColumns) {
		child.Relation = schema.RelationOne
	}

	return schema.Ref{
		ID:        id,
		Name:      fk.Name,
		Endpoints: [2]schema.Endpoint{parent, child},
		OnDelete:  fk.OnDelete,
		OnUpdate:  fk.OnUpdate,
	}
}

func (c *Catalog) allUnique(s *catalogSchema, table string, cols []string) bool {
	t, ok := s.byName[table]
	if !ok || len(cols) != 1 {
		return false
	}
	for _, f := range t.Fields {
		if f.Name == cols[0] {
			return f.Unique || (f.PK && countPK(t) == 1)
		}
	}
	return false
}

func countPK(t *schema.Table) int {
	n := 0
	for _, f := range t.Fields {
		if f.PK {
			n++
		}
	}
	return n
}

// TableID returns the id a catalog assigns to a table.
func TableID(schemaName, table string) string { return schemaName + "." + table }

// FieldID returns the id a catalog assigns to a column.
func FieldID(schemaName, table, column string) string {
	return schemaName + "." + table + "." + column
}
