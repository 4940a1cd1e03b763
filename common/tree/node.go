package tree

import (
	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
)

// Node wraps one member and the members attached under it
type Node struct {
	Member   models.Member `json:"member"`
	Children []*Node       `json:"children,omitempty"`
}

// Spouses returns children tagged as spouse; they share this node's row
func (n *Node) Spouses() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Member.Relation.IsSpouse() {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns the non-spouse children, drawn one row below
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if !c.Member.Relation.IsSpouse() {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits nodes depth first, parent before children.
// Returning false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the node holding id, or nil
func (n *Node) Find(id uuid.UUID) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.Member.ID == id {
			found = x
			return false
		}
		return true
	})
	return found
}

// Size counts the nodes in the subtree
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Depth is the number of generation rows below and including n.
// Spouses share their partner's row.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		d := c.Depth()
		if c.Member.Relation.IsSpouse() {
			d--
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// SubtreeIDs returns every id in the subtree, children before their parent
func (n *Node) SubtreeIDs() []uuid.UUID {
	var ids []uuid.UUID
	var post func(*Node)
	post = func(x *Node) {
		for _, c := range x.Children {
			post(c)
		}
		ids = append(ids, x.Member.ID)
	}
	post(n)
	return ids
}
