package taxonomy

// RootID is the id of the taxonomy root. The root is its own parent.
const RootID uint32 = 1

// Node is one taxon.
type Node struct {
	ID       uint32 `json:"id"`
	ParentID uint32 `json:"parent"`
	Rank     Rank   `json:"-"`
	Name     string `json:"name"`
}

// RankName returns the human-readable rank.
func (n Node) RankName() string {
	return n.Rank.String()
}

// IsRoot reports whether n is the taxonomy root.
func (n Node) IsRoot() bool {
	return n.ID == RootID
}
