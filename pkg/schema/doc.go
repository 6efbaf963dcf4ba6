// Package schema defines the relational schema model erdflow draws.
//
// A [Database] is the parsed form of a schema description: named schemas,
// each holding tables with fields and the relationships ([Ref]) between
// them. The model is produced outside of erdflow (a DBML parser, a live
// database introspection in [github.com/matzehuels/erdflow/pkg/source], or a
// JSON/YAML file read with [ReadFile]) and is treated as read-only: the
// diagram packages never validate or modify it.
//
// # Identifiers
//
// Every table, field and ref carries a string identifier. Field identifiers
// are unique across the whole database, which lets a diagram derive one
// connection point per field and endpoint role. [Index] provides lookups by
// identifier and is built once per database value.
//
// # File Format
//
// Files are JSON or YAML with the same field names:
//
//	schemas:
//	  - id: public
//	    name: public
//	    tables:
//	      - id: users
//	        name: users
//	        fields:
//	          - {id: users.id, table_id: users, name: id, type: {type_name: int}, pk: true}
//	    refs:
//	      - id: fk_orders_user
//	        endpoints:
//	          - {table_name: users, field_ids: [users.id], relation: "1"}
//	          - {table_name: orders, field_ids: [orders.user_id], relation: "*"}
package schema
