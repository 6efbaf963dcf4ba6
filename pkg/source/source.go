// Package source loads schema models from files and live databases.
//
// A [Source] produces a [schema.Database]. The file source decodes JSON or
// YAML schema files; the [postgres] and [sqlite] subpackages introspect a
// database catalog and assemble the model with a [Catalog].
//
//	src := source.File{Path: "shop.yaml"}
//	db, err := src.Load(ctx)
//
// [postgres]: github.com/matzehuels/erdflow/pkg/source/postgres
// [sqlite]: github.com/matzehuels/erdflow/pkg/source/sqlite
package source

import (
	"context"

	"github.com/matzehuels/erdflow/pkg/schema"
)

// Source loads a schema model.
type Source interface {
	// Name identifies the source kind in logs, e.g. "file" or "postgres".
	Name() string
	Load(ctx context.Context) (*schema.Database, error)
}

// File reads a schema model from a JSON or YAML file.
type File struct {
	Path string
}

// Name implements [Source].
func (File) Name() string { return "file" }

// Load implements [Source]. A missing file is a NOT_FOUND error and an
// undecodable one INVALID_SCHEMA.
func (f File) Load(ctx context.Context) (*schema.Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return schema.ReadFile(f.Path)
}
