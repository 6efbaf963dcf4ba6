package diagram

import (
	"strings"

	"github.com/matzehuels/erdflow/pkg/errors"
)

// Identifier prefixes. Together with the escaping rule below they make the
// string form of every id a pure function of the schema identifiers.
const (
	tablePrefix    = "table-"
	relationPrefix = "relation-"
	fieldPrefix    = "field-"
)

// Raw schema identifiers are escaped before being joined with '-': '%'
// becomes "%25" and '-' becomes "%2D". Identifiers without those characters
// serialize verbatim, so "table-users" stays "table-users".
var (
	escaper   = strings.NewReplacer("%", "%25", "-", "%2D")
	unescaper = strings.NewReplacer("%25", "%", "%2D", "-", "%2d", "-")
)

func escapeSegment(s string) string   { return escaper.Replace(s) }
func unescapeSegment(s string) string { return unescaper.Replace(s) }

// =============================================================================
// NodeID
// =============================================================================

// NodeID identifies the diagram node of a table.
type NodeID struct {
	TableID string
}

// String returns "table-<tableId>".
func (id NodeID) String() string { return tablePrefix + escapeSegment(id.TableID) }

// MarshalText implements encoding.TextMarshaler.
func (id NodeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *NodeID) UnmarshalText(b []byte) error {
	parsed, err := ParseNodeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseNodeID parses the string form produced by [NodeID.String].
func ParseNodeID(s string) (NodeID, error) {
	rest, ok := strings.CutPrefix(s, tablePrefix)
	if !ok || rest == "" || strings.Contains(rest, "-") {
		return NodeID{}, errors.New(errors.ErrCodeInvalidInput, "invalid node id %q", s)
	}
	return NodeID{TableID: unescapeSegment(rest)}, nil
}

// =============================================================================
// EdgeID
// =============================================================================

// EdgeID identifies the diagram edge of a relationship. Ref ids are only
// unique within their schema, so the schema id is part of the key.
type EdgeID struct {
	SchemaID string
	RefID    string
}

// String returns "relation-<schemaId>-<refId>".
func (id EdgeID) String() string {
	return relationPrefix + escapeSegment(id.SchemaID) + "-" + escapeSegment(id.RefID)
}

// MarshalText implements encoding.TextMarshaler.
func (id EdgeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *EdgeID) UnmarshalText(b []byte) error {
	parsed, err := ParseEdgeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseEdgeID parses the string form produced by [EdgeID.String].
func ParseEdgeID(s string) (EdgeID, error) {
	rest, ok := strings.CutPrefix(s, relationPrefix)
	if !ok {
		return EdgeID{}, errors.New(errors.ErrCodeInvalidInput, "invalid edge id %q", s)
	}
	parts := strings.Split(rest, "-")
	if len(parts) != 2 {
		return EdgeID{}, errors.New(errors.ErrCodeInvalidInput, "invalid edge id %q", s)
	}
	return EdgeID{SchemaID: unescapeSegment(parts[0]), RefID: unescapeSegment(parts[1])}, nil
}

// =============================================================================
// HandleID
// =============================================================================

// Role tells which end of an edge a connection point belongs to.
type Role string

// Endpoint roles.
const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

// Side is the face of a node a connector leaves from.
type Side string

// Sides. SideNone marks a connection point not yet resolved.
const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// HandleID identifies a connection point: one field in one endpoint role,
// optionally resolved to a side.
type HandleID struct {
	FieldID string
	Role    Role
	Side    Side
}

// String returns "field-<fieldId>-<role>" with a "-<side>" suffix once the
// side is resolved.
func (h HandleID) String() string {
	s := fieldPrefix + escapeSegment(h.FieldID) + "-" + string(h.Role)
	if h.Side != SideNone {
		s += "-" + string(h.Side)
	}
	return s
}

// Prefix returns "field-<fieldId>-", which every handle of the field starts
// with regardless of role or side.
func (h HandleID) Prefix() string { return FieldHandlePrefix(h.FieldID) }

// FieldHandlePrefix returns the common prefix of all handles of a field.
func FieldHandlePrefix(fieldID string) string {
	return fieldPrefix + escapeSegment(fieldID) + "-"
}

// WithSide returns a copy of h resolved to side.
func (h HandleID) WithSide(side Side) HandleID {
	h.Side = side
	return h
}

// MarshalText implements encoding.TextMarshaler.
func (h HandleID) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HandleID) UnmarshalText(b []byte) error {
	parsed, err := ParseHandleID(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHandleID parses the string form produced by [HandleID.String],
// reversing the segment escaping.
func ParseHandleID(s string) (HandleID, error) {
	rest, ok := strings.CutPrefix(s, fieldPrefix)
	if !ok {
		return HandleID{}, errors.New(errors.ErrCodeInvalidInput, "invalid handle id %q", s)
	}
	parts := strings.Split(rest, "-")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return HandleID{}, errors.New(errors.ErrCodeInvalidInput, "invalid handle id %q", s)
	}

	h := HandleID{FieldID: unescapeSegment(parts[0]), Role: Role(parts[1])}
	if h.Role != RoleSource && h.Role != RoleTarget {
		return HandleID{}, errors.New(errors.ErrCodeInvalidInput, "invalid handle role in %q", s)
	}
	if len(parts) == 3 {
		h.Side = Side(parts[2])
		if h.Side != SideLeft && h.Side != SideRight {
			return HandleID{}, errors.New(errors.ErrCodeInvalidInput, "invalid handle side in %q", s)
		}
	}
	return h, nil
}
