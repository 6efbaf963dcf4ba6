package diagram

import (
	"fmt"

	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// Build converts db into an unpositioned diagram.
//
// Nodes follow schema then table declaration order and edges follow schema
// then ref declaration order. A node gets a Size only when sizes has one for
// its id. An edge joins the tables owning the first field of each endpoint;
// a ref with an empty endpoint or an unknown field is dropped and reported
// as a MALFORMED_RELATIONSHIP diagnostic.
//
// Ids are unique in the result. A table whose id was already declared, in
// this or an earlier schema, is skipped with an INVALID_SCHEMA diagnostic;
// the first declaration wins, as in [schema.Index]. A ref whose edge id
// repeats is dropped the same way.
//
// A nil db yields an empty diagram. sizes may be nil.
func Build(db *schema.Database, sizes SizeLookup) (Diagram, []Diagnostic) {
	d := Diagram{Nodes: []Node{}, Edges: []Edge{}}
	if db == nil {
		return d, nil
	}

	idx := db.Index()
	var diags []Diagnostic

	seenNodes := make(map[NodeID]struct{})
	for si := range db.Schemas {
		s := &db.Schemas[si]
		for ti := range s.Tables {
			t := &s.Tables[ti]
			n := Node{ID: NodeID{TableID: t.ID}, Data: NodeData{Table: t}}
			if _, dup := seenNodes[n.ID]; dup {
				diags = append(diags, Diagnostic{
					Code:    errors.ErrCodeInvalidSchema,
					Message: fmt.Sprintf("table %q in schema %q is already declared", t.ID, s.ID),
					Subject: n.ID.String(),
				})
				continue
			}
			seenNodes[n.ID] = struct{}{}
			if sizes != nil {
				if sz, ok := sizes.Get(n.ID); ok {
					n.Size = &sz
				}
			}
			d.Nodes = append(d.Nodes, n)
		}
	}

	seenEdges := make(map[EdgeID]struct{})
	for si := range db.Schemas {
		s := &db.Schemas[si]
		for ri := range s.Refs {
			ref := &s.Refs[ri]
			id := EdgeID{SchemaID: s.ID, RefID: ref.ID}
			if _, dup := seenEdges[id]; dup {
				diags = append(diags, *malformed(id, fmt.Sprintf("ref %q is already declared in schema %q", ref.ID, s.ID)))
				continue
			}
			e, diag := buildEdge(idx, s.ID, ref)
			if diag != nil {
				diags = append(diags, *diag)
				continue
			}
			seenEdges[id] = struct{}{}
			d.Edges = append(d.Edges, e)
		}
	}

	return d, diags
}

func buildEdge(idx *schema.Index, schemaID string, ref *schema.Ref) (Edge, *Diagnostic) {
	id := EdgeID{SchemaID: schemaID, RefID: ref.ID}
	src, tgt := ref.Endpoints[0], ref.Endpoints[1]

	srcTable, srcField, err := anchor(idx, src)
	if err != "" {
		return Edge{}, malformed(id, "source "+err)
	}
	tgtTable, tgtField, err := anchor(idx, tgt)
	if err != "" {
		return Edge{}, malformed(id, "target "+err)
	}

	return Edge{
		ID:           id,
		Source:       NodeID{TableID: srcTable},
		Target:       NodeID{TableID: tgtTable},
		SourceHandle: HandleID{FieldID: srcField, Role: RoleSource},
		TargetHandle: HandleID{FieldID: tgtField, Role: RoleTarget},
		Data: EdgeData{
			SchemaID:       schemaID,
			Ref:            ref,
			SourceRelation: src.Relation,
			TargetRelation: tgt.Relation,
		},
	}, nil
}

// anchor returns the owning table and field id of an endpoint's first field,
// or a description of why there is none.
func anchor(idx *schema.Index, ep schema.Endpoint) (tableID, fieldID, problem string) {
	fieldID, ok := ep.AnchorFieldID()
	if !ok {
		return "", "", "endpoint has no fields"
	}
	t, ok := idx.FieldTable(fieldID)
	if !ok {
		return "", "", fmt.Sprintf("field %q is not declared by any table", fieldID)
	}
	return t.ID, fieldID, ""
}

func malformed(id EdgeID, msg string) *Diagnostic {
	return &Diagnostic{
		Code:    errors.ErrCodeMalformedRelationship,
		Message: msg,
		Subject: id.String(),
	}
}
