package registry

import (
	"cmp"
	"slices"

	"github.com/matzehuels/erdflow/pkg/diagram"
)

func sortedIDs(sizes map[diagram.NodeID]diagram.Size) []diagram.NodeID {
	ids := make([]diagram.NodeID, 0, len(sizes))
	for id := range sizes {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b diagram.NodeID) int { return cmp.Compare(a.TableID, b.TableID) })
	return ids
}
