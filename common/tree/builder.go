// Package tree assembles flat member rows into a rooted hierarchy and lays it out.
package tree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
)

var (
	// ErrNoRoot means members exist but none of them is parentless
	ErrNoRoot = errors.New("no root member")

	// ErrMultipleRoots means more than one member is parentless
	ErrMultipleRoots = errors.New("multiple root members")

	// ErrDuplicateID means the same member id appears twice in the input
	ErrDuplicateID = errors.New("duplicate member id")

	// ErrCycle means a member is its own transitive ancestor
	ErrCycle = errors.New("parent cycle")
)

// Build returns the single displayed root of members.
// An empty list yields (nil, nil): there is no tree.
func Build(members []models.Member) (*Node, error) {
	if len(members) == 0 {
		return nil, nil
	}

	roots, err := BuildForest(members)
	if err != nil {
		return nil, err
	}

	switch len(roots) {
	case 0:
		return nil, ErrNoRoot
	case 1:
		return roots[0], nil
	default:
		ids := make([]string, len(roots))
		for i, r := range roots {
			ids[i] = r.Member.ID.String()
		}
		return nil, fmt.Errorf("%w: %v", ErrMultipleRoots, ids)
	}
}

// BuildForest returns one node per parentless member, in flat order.
// Children keep the order they have in members.
func BuildForest(members []models.Member) ([]*Node, error) {
	seen := make(map[uuid.UUID]struct{}, len(members))
	children := make(map[uuid.UUID][]int, len(members))
	var rootIdx []int

	for i := range members {
		m := &members[i]
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		seen[m.ID] = struct{}{}

		if m.ParentID == nil {
			rootIdx = append(rootIdx, i)
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], i)
	}

	roots := make([]*Node, 0, len(rootIdx))
	for _, i := range rootIdx {
		roots = append(roots, attach(members, children, i))
	}
	return roots, nil
}

// attach descends from a parentless member. Ids are unique and every row has
// one parent, so no node is reached twice; rows on a parent cycle are never
// reached and show up in Detached.
func attach(members []models.Member, children map[uuid.UUID][]int, i int) *Node {
	n := &Node{Member: members[i]}
	for _, ci := range children[n.Member.ID] {
		n.Children = append(n.Children, attach(members, children, ci))
	}
	return n
}

// Detached lists members not reachable from root, in flat order.
// These are orphans left behind by a delete and members caught in a cycle.
func Detached(members []models.Member, root *Node) []models.Member {
	reachable := make(map[uuid.UUID]struct{}, len(members))
	root.Walk(func(n *Node) bool {
		reachable[n.Member.ID] = struct{}{}
		return true
	})

	var out []models.Member
	for _, m := range members {
		if _, ok := reachable[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// Ancestors walks the parent chain of id through members, nearest first.
// Returns ErrCycle if the chain loops back on itself.
func Ancestors(members []models.Member, id uuid.UUID) ([]uuid.UUID, error) {
	parent := make(map[uuid.UUID]*uuid.UUID, len(members))
	for i := range members {
		parent[members[i].ID] = members[i].ParentID
	}

	var chain []uuid.UUID
	seen := map[uuid.UUID]struct{}{id: {}}
	cur := parent[id]
	for cur != nil {
		if _, ok := seen[*cur]; ok {
			return chain, fmt.Errorf("%w: through %s", ErrCycle, *cur)
		}
		seen[*cur] = struct{}{}
		chain = append(chain, *cur)
		cur = parent[*cur]
	}
	return chain, nil
}

// WouldCycle reports whether attaching id under newParent makes id its own ancestor
func WouldCycle(members []models.Member, id, newParent uuid.UUID) (bool, error) {
	if id == newParent {
		return true, nil
	}
	chain, err := Ancestors(members, newParent)
	if err != nil {
		return true, err
	}
	for _, a := range chain {
		if a == id {
			return true, nil
		}
	}
	return false, nil
}
