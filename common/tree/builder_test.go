package tree

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/models"
)

func id(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func member(n int, parent int, rel models.Relation) models.Member {
	m := models.Member{ID: id(n), Name: fmt.Sprintf("m%d", n), Relation: rel, GenerationID: 1}
	if parent > 0 {
		p := id(parent)
		m.ParentID = &p
	}
	return m
}

func TestBuild_Empty(t *testing.T) {
	root, err := Build(nil)
	require.NoError(t, err)
	assert.Nil(t, root)

	root, err = Build([]models.Member{})
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestBuild_SpouseAndChildUnderRoot(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.ParseRelation("root")),
		member(2, 1, models.RelationSpouse),
		member(3, 1, models.RelationChild),
	}

	root, err := Build(members)
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.Equal(t, id(1), root.Member.ID)
	assert.Equal(t, models.RelationOther, root.Member.Relation)

	spouses := root.Spouses()
	require.Len(t, spouses, 1)
	assert.Equal(t, id(2), spouses[0].Member.ID)
	assert.Empty(t, spouses[0].Children)

	kids := root.Descendants()
	require.Len(t, kids, 1)
	assert.Equal(t, id(3), kids[0].Member.ID)

	assert.Equal(t, 3, root.Size())
	assert.Equal(t, 2, root.Depth())
}

func TestBuild_EveryReachableMemberOnce(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationSpouse),
		member(3, 1, models.RelationChild),
		member(4, 1, models.RelationChild),
		member(5, 3, models.RelationChild),
		member(6, 5, models.RelationSpouse),
		member(7, 2, models.RelationChild),
	}

	root, err := Build(members)
	require.NoError(t, err)

	counts := map[uuid.UUID]int{}
	root.Walk(func(n *Node) bool {
		counts[n.Member.ID]++
		return true
	})
	require.Len(t, counts, len(members))
	for _, m := range members {
		assert.Equal(t, 1, counts[m.ID], "member %s", m.ID)
	}

	parents := map[uuid.UUID]uuid.UUID{}
	root.Walk(func(n *Node) bool {
		for _, c := range n.Children {
			_, dup := parents[c.Member.ID]
			assert.False(t, dup, "member %s has two parents", c.Member.ID)
			parents[c.Member.ID] = n.Member.ID
			assert.True(t, c.Member.HasParent(n.Member.ID))
		}
		return true
	})
}

func TestBuild_ChildrenKeepFlatOrder(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(4, 1, models.RelationChild),
		member(2, 1, models.RelationChild),
		member(3, 1, models.RelationSibling),
	}

	root, err := Build(members)
	require.NoError(t, err)

	var got []uuid.UUID
	for _, c := range root.Children {
		got = append(got, c.Member.ID)
	}
	assert.Equal(t, []uuid.UUID{id(4), id(2), id(3)}, got)
}

func TestBuild_Idempotent(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationSpouse),
		member(3, 1, models.RelationChild),
		member(4, 3, models.RelationChild),
	}

	first, err := Build(members)
	require.NoError(t, err)
	second, err := Build(members)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rebuild differs (-first +second):\n%s", diff)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		members []models.Member
		want    error
	}{
		{
			name: "no parentless member",
			members: []models.Member{
				member(1, 2, models.RelationChild),
				member(2, 1, models.RelationChild),
			},
			want: ErrNoRoot,
		},
		{
			name: "two roots",
			members: []models.Member{
				member(1, 0, models.RelationOther),
				member(2, 0, models.RelationOther),
			},
			want: ErrMultipleRoots,
		},
		{
			name: "duplicate id",
			members: []models.Member{
				member(1, 0, models.RelationOther),
				member(2, 1, models.RelationChild),
				member(2, 1, models.RelationChild),
			},
			want: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build(tt.members)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, root)
		})
	}
}

func TestBuild_CycleBesideRootTerminates(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationChild),
		member(3, 4, models.RelationChild),
		member(4, 3, models.RelationChild),
		member(5, 5, models.RelationChild),
	}

	root, err := Build(members)
	require.NoError(t, err)
	assert.Equal(t, 2, root.Size())

	detached := Detached(members, root)
	var ids []uuid.UUID
	for _, m := range detached {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []uuid.UUID{id(3), id(4), id(5)}, ids)
}

func TestBuildForest(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(2, 0, models.RelationOther),
		member(3, 2, models.RelationChild),
	}

	roots, err := BuildForest(members)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, id(1), roots[0].Member.ID)
	assert.Equal(t, id(2), roots[1].Member.ID)
	assert.Equal(t, 2, roots[1].Size())
}

func TestDetached_Orphans(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(3, 2, models.RelationChild),
		member(4, 3, models.RelationChild),
	}

	root, err := Build(members)
	require.NoError(t, err)

	detached := Detached(members, root)
	require.Len(t, detached, 2)
	assert.Equal(t, id(3), detached[0].ID)
	assert.Equal(t, id(4), detached[1].ID)
}

func TestAncestorsAndWouldCycle(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationChild),
		member(3, 2, models.RelationChild),
	}

	chain, err := Ancestors(members, id(3))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id(2), id(1)}, chain)

	cycle, err := WouldCycle(members, id(1), id(3))
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = WouldCycle(members, id(2), id(2))
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = WouldCycle(members, id(3), id(1))
	require.NoError(t, err)
	assert.False(t, cycle)

	looped := []models.Member{
		member(1, 2, models.RelationChild),
		member(2, 1, models.RelationChild),
	}
	_, err = Ancestors(looped, id(1))
	assert.ErrorIs(t, err, ErrCycle)
}

func TestNode_FindAndSubtreeIDs(t *testing.T) {
	members := []models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationChild),
		member(3, 2, models.RelationChild),
		member(4, 1, models.RelationSpouse),
	}
	root, err := Build(members)
	require.NoError(t, err)

	n := root.Find(id(2))
	require.NotNil(t, n)
	assert.Equal(t, []uuid.UUID{id(3), id(2)}, n.SubtreeIDs())
	assert.Nil(t, root.Find(id(9)))
	assert.Equal(t, 3, root.Depth())
}

func ptr[T any](v T) *T {
	return &v
}
