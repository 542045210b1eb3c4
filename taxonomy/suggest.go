package taxonomy

import (
	"cmp"
	"slices"
	"strings"
)

// DefaultSuggestLimit caps Suggest when limit is not positive.
const DefaultSuggestLimit = 10

// Suggest returns up to limit distinct taxa on the lineages of taxIDs whose
// scientific name contains query, ignoring case. The root is never
// suggested. Members are scanned in order, so earlier members win when the
// limit is reached. The result is sorted by id.
func (t *Tree) Suggest(taxIDs []uint32, query string, limit int) []Node {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	q := strings.ToLower(query)
	seen := make(map[uint32]Node)

scan:
	for _, id := range taxIDs {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		for steps := 0; steps <= len(t.nodes) && n.ID != RootID; steps++ {
			if len(seen) >= limit {
				break scan
			}
			if _, dup := seen[n.ID]; dup {
				break
			}
			if strings.Contains(strings.ToLower(n.Name), q) {
				seen[n.ID] = n
			}
			p, ok := t.parent(n)
			if !ok {
				break
			}
			n = p
		}
	}

	out := make([]Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
