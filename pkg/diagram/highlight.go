package diagram

import "strings"

// ConnectedEdges returns the ids of edges with a connection point on the
// given field, in edge order. Matching is by handle prefix, so it works on
// resolved and unresolved edges alike.
func ConnectedEdges(edges []Edge, fieldID string) []EdgeID {
	prefix := FieldHandlePrefix(fieldID)
	var ids []EdgeID
	for _, e := range edges {
		if strings.HasPrefix(e.SourceHandle.String(), prefix) || strings.HasPrefix(e.TargetHandle.String(), prefix) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// WithHighlights returns a copy of d where exactly the edges in set are
// highlighted. Ids in set that match no edge are ignored.
func (d Diagram) WithHighlights(set map[EdgeID]struct{}) Diagram {
	out := d
	out.Edges = make([]Edge, len(d.Edges))
	for i, e := range d.Edges {
		_, e.Highlighted = set[e.ID]
		out.Edges[i] = e
	}
	return out
}

// Highlighted returns the ids of highlighted edges.
func (d Diagram) Highlighted() []EdgeID {
	var ids []EdgeID
	for _, e := range d.Edges {
		if e.Highlighted {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
