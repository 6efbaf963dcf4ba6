// Package pkg provides the libraries behind erdflow, which lays out database
// schemas as entity-relationship diagrams.
//
// # Overview
//
// A schema model (schemas, tables, fields and relationships) becomes a graph
// of table nodes joined by relationship edges. Tables are placed in ranks
// along their foreign keys, and every edge is anchored to the side of its
// tables that faces the other end. The packages are organized as:
//
//  1. [schema] - the input model, decoded from JSON or YAML
//  2. [source] - schema sources: files, PostgreSQL and SQLite catalogs
//  3. [diagram] - graph construction, node and edge ids, anchor sides
//  4. [registry] - measured table sizes with change notification
//  5. [layout] - layered and graphviz layout engines behind one interface
//  6. [pipeline] - build → layout → anchor, shared by every entry point
//  7. [relayout] - coalesced rebuilds on schema and size changes
//  8. [session] - per-client diagram state for the HTTP API
//  9. [cache] - layout caching in memory, on disk or in Redis
//
// # Architecture
//
// The typical data flow:
//
//	Schema file / live database
//	         ↓
//	    [source] + [schema] (decode and index the model)
//	         ↓
//	    [diagram].Build (nodes, edges, diagnostics)
//	         ↓
//	    [layout] engine (ranks and centers, fallback size for unmeasured tables)
//	         ↓
//	    [diagram].ResolveAnchors (connection sides)
//	         ↓
//	    JSON / DOT / SVG / PNG
//
// Measurements arrive through the [registry]; each one marks the diagram
// dirty and the [relayout] orchestrator rebuilds once per quiet period.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/erdflow/pkg/pipeline"
//	    "github.com/matzehuels/erdflow/pkg/registry"
//	    "github.com/matzehuels/erdflow/pkg/schema"
//	)
//
//	db, _ := schema.ReadFile("shop.yaml")
//	reg := registry.New()
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(context.Background(), db, reg.Snapshot(), pipeline.Options{})
//	data, _ := pipeline.MarshalDiagram(res.Diagram)
//
// # Error Handling
//
// Fatal conditions are returned as [errors.Error] values carrying a code such
// as INVALID_SCHEMA or INVALID_SIZE. Malformed relationships and edges whose
// tables are missing are not fatal: they are reported as diagnostics on the
// diagram and the rest of the schema is still laid out.
//
// [schema]: github.com/matzehuels/erdflow/pkg/schema
// [source]: github.com/matzehuels/erdflow/pkg/source
// [diagram]: github.com/matzehuels/erdflow/pkg/diagram
// [registry]: github.com/matzehuels/erdflow/pkg/registry
// [layout]: github.com/matzehuels/erdflow/pkg/layout
// [pipeline]: github.com/matzehuels/erdflow/pkg/pipeline
// [relayout]: github.com/matzehuels/erdflow/pkg/relayout
// [session]: github.com/matzehuels/erdflow/pkg/session
// [cache]: github.com/matzehuels/erdflow/pkg/cache
// [errors.Error]: github.com/matzehuels/erdflow/pkg/errors.Error
package pkg
