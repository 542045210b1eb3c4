package taxonomy

import "github.com/RoaringBitmap/roaring/v2"

// FilterDescendants returns the ids of taxIDs whose lineage contains
// ancestor, in input order. Ids absent from the tree are dropped.
//
// Verdicts for every node visited are memoised in two bitmaps, so each
// node is walked at most once per call.
func (t *Tree) FilterDescendants(taxIDs []uint32, ancestor uint32) []uint32 {
	inside := roaring.New()
	outside := roaring.New()
	if t.NodeExists(ancestor) {
		inside.Add(ancestor)
	}

	var (
		out  []uint32
		path []uint32
	)
	for _, id := range taxIDs {
		path = path[:0]
		verdict := false
		cur := id
		for steps := 0; steps <= len(t.nodes); steps++ {
			if inside.Contains(cur) {
				verdict = true
				break
			}
			if outside.Contains(cur) {
				break
			}
			n, ok := t.nodes[cur]
			if !ok {
				break
			}
			path = append(path, cur)
			p, ok := t.parent(n)
			if !ok {
				break
			}
			cur = p.ID
		}
		if verdict {
			inside.AddMany(path)
			if t.NodeExists(id) {
				out = append(out, id)
			}
		} else {
			outside.AddMany(path)
		}
	}
	return out
}
