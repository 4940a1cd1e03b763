package tree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/models"
)

func TestComputeLayout_Nil(t *testing.T) {
	l := ComputeLayout(nil)
	assert.Zero(t, l.Width)
	assert.Empty(t, l.Cards)
	assert.Empty(t, l.Links)
}

func TestComputeLayout_CoupleWithChild(t *testing.T) {
	root, err := Build([]models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationSpouse),
		member(3, 1, models.RelationChild),
	})
	require.NoError(t, err)

	l := ComputeLayout(root)
	assert.Equal(t, CardWidth*2+SpouseLink, l.Width)
	assert.Equal(t, CardHeight*2+RowGap, l.Height)

	c1, ok := l.Card(id(1))
	require.True(t, ok)
	c2, _ := l.Card(id(2))
	c3, _ := l.Card(id(3))

	assert.Equal(t, Card{ID: id(1), Name: "m1", Relation: models.RelationOther, Generation: 1, Depth: 0, X: 0, Y: 0}, c1)
	assert.Equal(t, c1.Y, c2.Y)
	assert.Equal(t, 0, c2.Depth)
	assert.Equal(t, CardWidth+SpouseLink, c2.X)

	assert.Equal(t, 1, c3.Depth)
	assert.Equal(t, CardHeight+RowGap, c3.Y)
	// centred under the couple
	assert.Equal(t, l.Width/2, c3.Center().X)

	kinds := map[LinkKind]int{}
	for _, link := range l.Links {
		kinds[link.Kind]++
	}
	assert.Equal(t, map[LinkKind]int{LinkSpouse: 1, LinkDescent: 1, LinkBus: 1, LinkDrop: 1}, kinds)

	for _, link := range l.Links {
		if link.Kind == LinkDescent {
			assert.Equal(t, l.Width/2, link.From.X)
		}
	}
}

func TestComputeLayout_ChildOfSpouseIsOffset(t *testing.T) {
	root, err := Build([]models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationSpouse),
		member(3, 2, models.RelationChild),
	})
	require.NoError(t, err)

	l := ComputeLayout(root)
	c2, _ := l.Card(id(2))
	c3, _ := l.Card(id(3))

	assert.Equal(t, c2.Center().X, c3.Center().X)
	assert.NotEqual(t, l.Width/2, c3.Center().X)
	assert.Equal(t, 1, c3.Depth)
}

func TestComputeLayout_ChildrenDoNotOverlap(t *testing.T) {
	root, err := Build([]models.Member{
		member(1, 0, models.RelationOther),
		member(2, 1, models.RelationChild),
		member(3, 1, models.RelationChild),
		member(4, 1, models.RelationChild),
		member(5, 3, models.RelationSpouse),
	})
	require.NoError(t, err)

	l := ComputeLayout(root)
	require.Len(t, l.Cards, 5)

	row := map[float64][]Card{}
	for _, c := range l.Cards {
		row[c.Y] = append(row[c.Y], c)
	}
	for y, cards := range row {
		for i := 0; i < len(cards); i++ {
			for j := i + 1; j < len(cards); j++ {
				a, b := cards[i], cards[j]
				overlap := a.X < b.X+CardWidth && b.X < a.X+CardWidth
				assert.False(t, overlap, "cards %s and %s overlap on row %v", a.ID, b.ID, y)
			}
		}
	}

	c1, _ := l.Card(id(1))
	assert.Equal(t, l.Width/2, c1.Center().X)
	assert.Equal(t, 3, countKind(l, LinkDrop))
}

func countKind(l *Layout, k LinkKind) int {
	n := 0
	for _, link := range l.Links {
		if link.Kind == k {
			n++
		}
	}
	return n
}

func TestRenderText(t *testing.T) {
	members := []models.Member{
		{ID: id(1), Name: "Ram"},
		{ID: id(2), Name: "Sita", ParentID: ptr(id(1)), Relation: models.RelationSpouse},
		{ID: id(3), Name: "Lav", ParentID: ptr(id(1)), Relation: models.RelationChild},
		{ID: id(4), Name: "Kush", ParentID: ptr(id(2)), Relation: models.RelationChild},
	}
	root, err := Build(members)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, root))
	assert.Equal(t, "Ram = Sita\n  Lav\n  Kush\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderText(&buf, nil))
	assert.Equal(t, "(no tree)\n", buf.String())
}
