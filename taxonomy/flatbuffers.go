package taxonomy

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/afdb/taxonomy/internal/fb"
)

// snapshotVersion is written into every binary snapshot.
const snapshotVersion = 1

// MarshalFlatBuffers encodes t as a binary snapshot. Nodes are stored
// sorted by id so FlatView can binary search them.
func MarshalFlatBuffers(t *Tree) []byte {
	ids := t.sortedIDs()
	builder := flatbuffers.NewBuilder(len(ids) * 48)

	offsets := make([]flatbuffers.UOffsetT, len(ids))
	for i, id := range ids {
		n := t.nodes[id]
		var name flatbuffers.UOffsetT
		if n.Name != "" {
			name = builder.CreateString(n.Name)
		}
		fb.NodeStart(builder)
		fb.NodeAddId(builder, n.ID)
		fb.NodeAddParent(builder, n.ParentID)
		fb.NodeAddRank(builder, byte(n.Rank))
		if name != 0 {
			fb.NodeAddName(builder, name)
		}
		offsets[i] = fb.NodeEnd(builder)
	}

	fb.TaxonomyStartNodesVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	nodes := builder.EndVector(len(offsets))

	fb.TaxonomyStart(builder)
	fb.TaxonomyAddVersion(builder, snapshotVersion)
	fb.TaxonomyAddNodes(builder, nodes)
	builder.Finish(fb.TaxonomyEnd(builder))
	return builder.FinishedBytes()
}

// FlatView reads nodes directly from a binary snapshot without building a
// map. Lookups are O(log n).
type FlatView struct {
	root *fb.Taxonomy
}

// NewFlatView parses the header of a binary snapshot. data is retained and
// must not be modified.
func NewFlatView(data []byte) (v *FlatView, err error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedSnapshot, len(data))
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, r)
		}
	}()
	root := fb.GetRootAsTaxonomy(data, 0)
	if ver := root.Version(); ver != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, ver)
	}
	return &FlatView{root: root}, nil
}

// Len returns the number of nodes.
func (v *FlatView) Len() int {
	return v.root.NodesLength()
}

// Node returns the node for id.
func (v *FlatView) Node(id uint32) (Node, bool) {
	var n fb.Node
	if !v.root.NodesByKey(&n, id) {
		return Node{}, false
	}
	return nodeFromFlatBuffers(&n), true
}

func nodeFromFlatBuffers(n *fb.Node) Node {
	return Node{
		ID:       n.Id(),
		ParentID: n.Parent(),
		Rank:     normalizeRank(n.Rank()),
		Name:     string(n.Name()),
	}
}

// UnmarshalFlatBuffers decodes a binary snapshot into a Tree.
func UnmarshalFlatBuffers(data []byte) (t *Tree, err error) {
	v, err := NewFlatView(data)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, r)
		}
	}()

	count := v.Len()
	nodes := make(map[uint32]Node, count)
	var n fb.Node
	for i := range count {
		if !v.root.Nodes(&n, i) {
			break
		}
		node := nodeFromFlatBuffers(&n)
		nodes[node.ID] = node
	}
	return &Tree{nodes: nodes}, nil
}
