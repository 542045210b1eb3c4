package taxonomy

import (
	"cmp"
	"slices"
)

// DefaultCollapseRanks is the rank allow-list used by Collapse when no
// WithRanks option is given.
var DefaultCollapseRanks = []Rank{
	RankSuperkingdom,
	RankKingdom,
	RankPhylum,
	RankFamily,
	RankGenus,
	RankSpecies,
}

// GraphNode is a taxon kept by Collapse.
type GraphNode struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank"`
}

// GraphLink connects the nearest allowed ancestor (Source) to Target.
// Value counts the member ids whose lineage crosses the link.
type GraphLink struct {
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
	Value  int    `json:"value"`
}

// Graph is the rank-collapsed taxonomy of a set of members. Nodes are in
// ascending id order, links in first-seen order.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// CollapseOption configures Collapse.
type CollapseOption func(*collapseConfig)

type collapseConfig struct {
	allowed [256]bool
}

// WithRanks replaces the rank allow-list.
func WithRanks(ranks ...Rank) CollapseOption {
	return func(c *collapseConfig) {
		c.allowed = [256]bool{}
		for _, r := range ranks {
			c.allowed[r] = true
		}
	}
}

// Collapse builds the graph of taxIDs restricted to allowed ranks.
//
// Every member climbs its lineage. Nodes of an allowed rank are kept, and
// each kept node is linked to the nearest kept ancestor. The root is never
// emitted, and members absent from the tree are skipped.
func (t *Tree) Collapse(taxIDs []uint32, opts ...CollapseOption) Graph {
	c := &collapseConfig{}
	WithRanks(DefaultCollapseRanks...)(c)
	for _, opt := range opts {
		opt(c)
	}

	type edge struct{ parent, child uint32 }
	kept := make(map[uint32]Node)
	edgeIndex := make(map[edge]int)
	var links []GraphLink

	for _, id := range taxIDs {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		cur, ok := t.nearestAllowed(n, c)
		for ok {
			kept[cur.ID] = cur
			p, hasParent := t.parent(cur)
			if !hasParent {
				break
			}
			var anc Node
			anc, ok = t.nearestAllowed(p, c)
			if !ok {
				break
			}
			e := edge{anc.ID, cur.ID}
			if i, seen := edgeIndex[e]; seen {
				links[i].Value++
			} else {
				edgeIndex[e] = len(links)
				links = append(links, GraphLink{Source: anc.ID, Target: cur.ID, Value: 1})
			}
			cur = anc
		}
	}

	g := Graph{Nodes: make([]GraphNode, 0, len(kept)), Links: links}
	for _, n := range kept {
		g.Nodes = append(g.Nodes, GraphNode{ID: n.ID, Name: n.Name, Rank: n.RankName()})
	}
	slices.SortFunc(g.Nodes, func(a, b GraphNode) int { return cmp.Compare(a.ID, b.ID) })
	if g.Links == nil {
		g.Links = []GraphLink{}
	}
	return g
}

// nearestAllowed returns n or its closest ancestor with an allowed rank,
// stopping before the root.
func (t *Tree) nearestAllowed(n Node, c *collapseConfig) (Node, bool) {
	cur := n
	for steps := 0; steps <= len(t.nodes); steps++ {
		if cur.ID == RootID {
			return Node{}, false
		}
		if c.allowed[cur.Rank] {
			return cur, true
		}
		p, ok := t.parent(cur)
		if !ok {
			return Node{}, false
		}
		cur = p
	}
	return Node{}, false
}
