package taxonomy

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Tree is an immutable taxonomy keyed by taxon id.
type Tree struct {
	nodes map[uint32]Node
}

// New builds a tree from nodes. Later duplicates replace earlier ones.
// The result is not validated; call Validate when the input is untrusted.
func New(nodes []Node) *Tree {
	m := make(map[uint32]Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return &Tree{nodes: m}
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NodeExists reports whether id is in the tree.
func (t *Tree) NodeExists(id uint32) bool {
	_, ok := t.nodes[id]
	return ok
}

// Node returns the node for id.
func (t *Tree) Node(id uint32) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// RankName returns the readable rank of id, or "" when id is absent.
func (t *Tree) RankName(id uint32) string {
	n, ok := t.nodes[id]
	if !ok {
		return ""
	}
	return n.RankName()
}

// Nodes yields every node in ascending id order.
func (t *Tree) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, id := range t.sortedIDs() {
			if !yield(t.nodes[id]) {
				return
			}
		}
	}
}

func (t *Tree) sortedIDs() []uint32 {
	return slices.Sorted(maps.Keys(t.nodes))
}

// FirstChild returns the lowest-id node whose parent is parentID, excluding
// the root self loop.
func (t *Tree) FirstChild(parentID uint32) (Node, bool) {
	var (
		best  Node
		found bool
	)
	for _, n := range t.nodes {
		if n.ParentID != parentID || n.ID == parentID {
			continue
		}
		if !found || n.ID < best.ID {
			best, found = n, true
		}
	}
	return best, found
}

// FindByName returns the nodes whose scientific name equals name, ignoring
// case, in ascending id order.
func (t *Tree) FindByName(name string) []Node {
	var out []Node
	for _, n := range t.nodes {
		if strings.EqualFold(n.Name, name) {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// parent returns the parent of n, or false at the root or when the parent
// is missing.
func (t *Tree) parent(n Node) (Node, bool) {
	if n.ID == RootID || n.ParentID == n.ID {
		return Node{}, false
	}
	p, ok := t.nodes[n.ParentID]
	return p, ok
}

// Lineage returns n followed by its ancestors up to the root inclusive.
//
// The walk stops early at a missing parent and never visits more nodes than
// the tree holds, so it terminates on malformed tables too.
func (t *Tree) Lineage(n Node) []Node {
	out := []Node{n}
	for cur := n; len(out) <= len(t.nodes); {
		p, ok := t.parent(cur)
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out
}

// Depth returns len(Lineage(n)) without allocating.
func (t *Tree) Depth(n Node) int {
	d := 1
	for cur := n; d <= len(t.nodes); d++ {
		p, ok := t.parent(cur)
		if !ok {
			break
		}
		cur = p
	}
	return d
}

// IsChildOf reports whether ancestorID is on the lineage of n. A node is a
// child of itself.
func (t *Tree) IsChildOf(n Node, ancestorID uint32) bool {
	cur := n
	for steps := 0; steps <= len(t.nodes); steps++ {
		if cur.ID == ancestorID {
			return true
		}
		p, ok := t.parent(cur)
		if !ok {
			return false
		}
		cur = p
	}
	return false
}

// Validate checks that the root exists and is its own parent, that every
// parent exists, and that the parent links are acyclic apart from the root.
func (t *Tree) Validate() error {
	root, ok := t.nodes[RootID]
	if !ok {
		return fmt.Errorf("%w: root %d missing", ErrInvalidTree, RootID)
	}
	if root.ParentID != RootID {
		return fmt.Errorf("%w: root parent is %d", ErrInvalidTree, root.ParentID)
	}

	// good holds nodes known to reach the root.
	good := map[uint32]bool{RootID: true}
	for _, id := range t.sortedIDs() {
		path := map[uint32]bool{}
		var order []uint32
		cur := id
		for !good[cur] {
			if path[cur] {
				return fmt.Errorf("%w: cycle through %d", ErrInvalidTree, cur)
			}
			n, ok := t.nodes[cur]
			if !ok {
				return fmt.Errorf("%w: node %d has missing parent %d", ErrInvalidTree, order[len(order)-1], cur)
			}
			path[cur] = true
			order = append(order, cur)
			cur = n.ParentID
		}
		for _, p := range order {
			good[p] = true
		}
	}
	return nil
}
