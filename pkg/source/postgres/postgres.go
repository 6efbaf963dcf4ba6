// Package postgres introspects a PostgreSQL catalog into a schema model.
//
// Tables, columns, primary keys, single-column unique constraints and
// foreign keys are read from pg_catalog for the requested namespaces:
//
//	src := postgres.Source{DSN: "postgres://localhost/shop", Schemas: []string{"public"}}
//	db, err := src.Load(ctx)
package postgres

import (
	"context"
	stderrors "errors"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/httputil"
	"github.com/matzehuels/erdflow/pkg/schema"
	"github.com/matzehuels/erdflow/pkg/source"
)

// Connection retry settings of NewPool.
const (
	PingAttempts = 4
	PingDelay    = 250 * time.Millisecond
)

// DefaultSchemas is used when Source.Schemas is empty.
var DefaultSchemas = []string{"public"}

// Source introspects the database behind DSN.
type Source struct {
	DSN     string
	Schemas []string
}

// Name implements [source.Source].
func (Source) Name() string { return "postgres" }

// Load implements [source.Source].
func (s Source) Load(ctx context.Context) (*schema.Database, error) {
	pool, err := NewPool(ctx, s.DSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	schemas := s.Schemas
	if len(schemas) == 0 {
		schemas = DefaultSchemas
	}
	return Introspect(ctx, pool, schemas)
}

// NewPool creates a pgx connection pool and checks it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing DSN")
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "creating connection pool")
	}

	// A server that is still starting refuses connections for a moment.
	err = httputil.Retry(ctx, PingAttempts, PingDelay, func() error {
		if err := pool.Ping(ctx); err != nil {
			if pgconn.SafeToRetry(err) || isConnRefused(err) {
				return &httputil.RetryableError{Err: err}
			}
			return err
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "pinging database")
	}

	return pool, nil
}

// Introspect queries PostgreSQL catalogs and returns the tables of the given
// namespaces with their columns, keys and relationships.
func Introspect(ctx context.Context, pool *pgxpool.Pool, schemas []string) (*schema.Database, error) {
	cat := source.NewCatalog()

	if err := queryColumns(ctx, pool, schemas, cat); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "querying tables and columns")
	}
	if err := queryKeys(ctx, pool, schemas, cat); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "querying primary and unique keys")
	}
	if err := queryForeignKeys(ctx, pool, schemas, cat); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "querying foreign keys")
	}

	return cat.Database(), nil
}

func queryColumns(ctx context.Context, pool *pgxpool.Pool, schemas []string, cat *source.Catalog) error {
	query := `
		SELECT
			n.nspname AS schema_name,
			c.relname AS table_name,
			a.attname AS column_name,
			t.typname AS type_name,
			COALESCE(substring(format_type(a.atttypid, a.atttypmod) from '\((.*)\)'), '') AS type_args,
			a.attnotnull AS not_null,
			COALESCE(pg_get_expr(d.adbin, d.adrelid), '') AS default_expr,
			a.attidentity <> '' AS is_identity
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		JOIN pg_type t ON t.oid = a.atttypid
		LEFT JOIN pg_attrdef d ON d.adrelid = c.oid AND d.adnum = a.attnum
		WHERE c.relkind IN ('r', 'p')
			AND a.attnum > 0
			AND NOT a.attisdropped
			AND n.nspname = ANY($1)
		ORDER BY n.nspname, c.relname, a.attnum
	`

	rows, err := pool.Query(ctx, query, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName string
		var col source.Column
		var identity bool
		if err := rows.Scan(&schemaName, &tableName, &col.Name, &col.Type, &col.Args,
			&col.NotNull, &col.Default, &identity); err != nil {
			return err
		}
		col.Increment = identity || isSerial(col.Default)
		if col.Increment {
			col.Default = ""
		}
		cat.AddColumn(schemaName, tableName, col)
	}

	return rows.Err()
}

func queryKeys(ctx context.Context, pool *pgxpool.Pool, schemas []string, cat *source.Catalog) error {
	query := `
		SELECT
			n.nspname AS schema_name,
			c.relname AS table_name,
			a.attname AS column_name,
			con.contype::text AS kind,
			cardinality(con.conkey) AS key_width
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = u.attnum
		WHERE con.contype IN ('p', 'u')
			AND n.nspname = ANY($1)
		ORDER BY n.nspname, c.relname, u.ord
	`

	rows, err := pool.Query(ctx, query, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName, colName, kind string
		var width int
		if err := rows.Scan(&schemaName, &tableName, &colName, &kind, &width); err != nil {
			return err
		}
		switch {
		case kind == "p":
			cat.MarkPrimaryKey(schemaName, tableName, colName)
		case kind == "u" && width == 1:
			cat.MarkUnique(schemaName, tableName, colName)
		}
	}

	return rows.Err()
}

func queryForeignKeys(ctx context.Context, pool *pgxpool.Pool, schemas []string, cat *source.Catalog) error {
	query := `
		SELECT
			con.conname AS fk_name,
			cn.nspname AS child_schema,
			cc.relname AS child_table,
			ca.attname AS child_column,
			pn.nspname AS parent_schema,
			pc.relname AS parent_table,
			pa.attname AS parent_column,
			con.confdeltype::text AS on_delete,
			con.confupdtype::text AS on_update
		FROM pg_constraint con
		JOIN pg_class cc ON cc.oid = con.conrelid
		JOIN pg_namespace cn ON cn.oid = cc.relnamespace
		JOIN pg_class pc ON pc.oid = con.confrelid
		JOIN pg_namespace pn ON pn.oid = pc.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(child_attnum, parent_attnum, ord)
		JOIN pg_attribute ca ON ca.attrelid = cc.oid AND ca.attnum = u.child_attnum
		JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = u.parent_attnum
		WHERE con.contype = 'f'
			AND cn.nspname = ANY($1)
		ORDER BY cn.nspname, cc.relname, con.conname, u.ord
	`

	rows, err := pool.Query(ctx, query, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()

	type key struct{ schema, name string }
	fks := make(map[key]*source.ForeignKey)
	var order []key

	for rows.Next() {
		var name, childSchema, childTable, childCol, parentSchema, parentTable, parentCol, onDelete, onUpdate string
		if err := rows.Scan(&name, &childSchema, &childTable, &childCol,
			&parentSchema, &parentTable, &parentCol, &onDelete, &onUpdate); err != nil {
			return err
		}
		k := key{childSchema, name}
		fk, ok := fks[k]
		if !ok {
			fk = &source.ForeignKey{
				Name:         name,
				ChildTable:   childTable,
				ParentSchema: parentSchema,
				ParentTable:  parentTable,
				OnDelete:     Action(onDelete),
				OnUpdate:     Action(onUpdate),
			}
			fks[k] = fk
			order = append(order, k)
		}
		fk.ChildColumns = append(fk.ChildColumns, childCol)
		fk.ParentColumns = append(fk.ParentColumns, parentCol)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, k := range order {
		cat.AddForeignKey(k.schema, *fks[k])
	}
	return nil
}

// Action decodes a pg_constraint referential action code. NO ACTION and
// unknown codes are returned as the empty string.
func Action(code string) string {
	switch code {
	case "r":
		return "restrict"
	case "c":
		return "cascade"
	case "n":
		return "set null"
	case "d":
		return "set default"
	default:
		return ""
	}
}

func isSerial(def string) bool {
	return strings.HasPrefix(def, "nextval(")
}

func isConnRefused(err error) bool {
	return stderrors.Is(err, syscall.ECONNREFUSED)
}
