// Package sqlite introspects a SQLite database file into a schema model.
//
// The file is opened read-only through the pure Go modernc.org/sqlite
// driver, so no cgo toolchain is needed:
//
//	db, err := sqlite.Source{Path: "shop.db"}.Load(ctx)
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/schema"
	"github.com/matzehuels/erdflow/pkg/source"
)

// SchemaName is the name SQLite gives the main database.
const SchemaName = "main"

// Source introspects the database file at Path.
type Source struct {
	Path string
}

// Name implements [source.Source].
func (Source) Name() string { return "sqlite" }

// Load implements [source.Source]. A missing file is a NOT_FOUND error;
// SQLite would otherwise create an empty database.
func (s Source) Load(ctx context.Context) (*schema.Database, error) {
	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "sqlite database %s", s.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "sqlite database %s", s.Path)
	}

	db, err := sql.Open("sqlite", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "opening %s", s.Path)
	}
	defer db.Close()

	return Introspect(ctx, db)
}

// Introspect reads tables, columns, keys and foreign keys of the main
// database. Tables keep their creation order.
func Introspect(ctx context.Context, db *sql.DB) (*schema.Database, error) {
	tables, err := queryTables(ctx, db)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "listing tables")
	}

	cat := source.NewCatalog()
	for _, table := range tables {
		cat.AddTable(SchemaName, table)
		if err := queryColumns(ctx, db, table, cat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "columns of %s", table)
		}
		if err := queryUnique(ctx, db, table, cat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "indexes of %s", table)
		}
	}
	// Foreign keys last, so unique flags are known when relations are set.
	for _, table := range tables {
		if err := queryForeignKeys(ctx, db, table, cat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "foreign keys of %s", table)
		}
	}
	return cat.Database(), nil
}

func queryTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func queryColumns(ctx context.Context, db *sql.DB, table string, cat *source.Catalog) error {
	rows, err := db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	type column struct {
		col source.Column
		pk  int
	}
	var cols []column
	pkCount := 0
	for rows.Next() {
		var c column
		var declared string
		var def sql.NullString
		if err := rows.Scan(&c.col.Name, &declared, &c.col.NotNull, &def, &c.pk); err != nil {
			return err
		}
		c.col.Type, c.col.Args = ParseType(declared)
		c.col.Default = def.String
		c.col.PK = c.pk > 0
		if c.col.PK {
			pkCount++
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range cols {
		// INTEGER PRIMARY KEY aliases the rowid.
		c.col.Increment = c.col.PK && pkCount == 1 && strings.EqualFold(c.col.Type, "integer")
		cat.AddColumn(SchemaName, table, c.col)
	}
	return nil
}

func queryUnique(ctx context.Context, db *sql.DB, table string, cat *source.Catalog) error {
	rows, err := db.QueryContext(ctx,
		`SELECT ii.name
		FROM pragma_index_list(?) AS il
		JOIN pragma_index_info(il.name) AS ii
		WHERE il."unique" = 1 AND il.origin IN ('u', 'c')
			AND (SELECT count(*) FROM pragma_index_info(il.name)) = 1`, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return err
		}
		cat.MarkUnique(SchemaName, table, col)
	}
	return rows.Err()
}

func queryForeignKeys(ctx context.Context, db *sql.DB, table string, cat *source.Catalog) error {
	rows, err := db.QueryContext(ctx,
		`SELECT id, "table", "from", "to", on_update, on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	var fks []*source.ForeignKey
	byID := make(map[int]*source.ForeignKey)
	for rows.Next() {
		var id int
		var parent, from, onUpdate, onDelete string
		var to sql.NullString
		if err := rows.Scan(&id, &parent, &from, &to, &onUpdate, &onDelete); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &source.ForeignKey{
				ChildTable:   table,
				ParentSchema: SchemaName,
				ParentTable:  parent,
				OnDelete:     Action(onDelete),
				OnUpdate:     Action(onUpdate),
			}
			byID[id] = fk
			fks = append(fks, fk)
		}
		fk.ChildColumns = append(fk.ChildColumns, from)
		fk.ParentColumns = append(fk.ParentColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fk := range fks {
		if err := resolveParentColumns(ctx, db, fk); err != nil {
			return err
		}
		cat.AddForeignKey(SchemaName, *fk)
	}
	return nil
}

// resolveParentColumns fills parent columns left out of a REFERENCES clause,
// which then point at the parent's primary key.
func resolveParentColumns(ctx context.Context, db *sql.DB, fk *source.ForeignKey) error {
	missing := false
	for _, c := range fk.ParentColumns {
		if c == "" {
			missing = true
		}
	}
	if !missing {
		return nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, fk.ParentTable)
	if err != nil {
		return err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		pk = append(pk, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range fk.ParentColumns {
		if fk.ParentColumns[i] == "" && i < len(pk) {
			fk.ParentColumns[i] = pk[i]
		}
	}
	return nil
}

// ParseType splits a declared column type such as "VARCHAR(255)" into its
// name and arguments.
func ParseType(declared string) (name, args string) {
	declared = strings.TrimSpace(declared)
	open := strings.IndexByte(declared, '(')
	if open < 0 || !strings.HasSuffix(declared, ")") {
		return declared, ""
	}
	return strings.TrimSpace(declared[:open]), strings.TrimSpace(declared[open+1 : len(declared)-1])
}

// Action normalizes a SQLite referential action. NO ACTION is returned as
// the empty string.
func Action(a string) string {
	a = strings.ToLower(a)
	if a == "no action" {
		return ""
	}
	return a
}
