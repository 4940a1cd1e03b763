package tree

import (
	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
)

// Layout dimensions, in pixels
const (
	CardWidth  = 280.0
	CardHeight = 96.0
	SpouseLink = 80.0
	ChildGap   = 64.0
	RowGap     = 96.0
)

// LinkKind names the connector types drawn between cards
type LinkKind string

const (
	LinkSpouse  LinkKind = "spouse"
	LinkDescent LinkKind = "descent"
	LinkBus     LinkKind = "bus"
	LinkDrop    LinkKind = "drop"
)

// Point is a position on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Card is one positioned member box; X/Y is its top-left corner
type Card struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Relation   models.Relation `json:"relation"`
	Generation int             `json:"generation"`
	Depth      int             `json:"depth"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
}

// Center returns the card's midpoint
func (c Card) Center() Point {
	return Point{X: c.X + CardWidth/2, Y: c.Y + CardHeight/2}
}

// Link is a straight connector
type Link struct {
	Kind LinkKind `json:"kind"`
	From Point    `json:"from"`
	To   Point    `json:"to"`
}

// Layout is the computed drawing of a tree
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Cards  []Card  `json:"cards"`
	Links  []Link  `json:"links"`
}

// Card returns the card for id
func (l *Layout) Card(id uuid.UUID) (Card, bool) {
	for _, c := range l.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

type extent struct {
	width     float64 // whole block
	height    float64
	rowWidth  float64 // card plus spouse blocks
	rowHeight float64
	kidsWidth float64
}

// ComputeLayout positions root and everything below it.
// Spouses sit to the right of their partner on the same row. Other children
// form a centred row below the couple, hung from a shared bus. A spouse is
// laid out with the same rule, so its own children sit under the spouse.
func ComputeLayout(root *Node) *Layout {
	l := &Layout{Cards: []Card{}, Links: []Link{}}
	if root == nil {
		return l
	}

	ext := make(map[*Node]extent)
	measure(root, ext)

	l.Width = ext[root].width
	l.Height = ext[root].height
	place(l, root, ext, 0, 0, 0)
	return l
}

func measure(n *Node, ext map[*Node]extent) extent {
	e := extent{rowWidth: CardWidth, rowHeight: CardHeight}

	for _, s := range n.Spouses() {
		se := measure(s, ext)
		e.rowWidth += SpouseLink + se.width
		if se.height > e.rowHeight {
			e.rowHeight = se.height
		}
	}

	kids := n.Descendants()
	var kidsHeight float64
	for i, k := range kids {
		ke := measure(k, ext)
		if i > 0 {
			e.kidsWidth += ChildGap
		}
		e.kidsWidth += ke.width
		if ke.height > kidsHeight {
			kidsHeight = ke.height
		}
	}

	e.width = max(e.rowWidth, e.kidsWidth)
	e.height = e.rowHeight
	if len(kids) > 0 {
		e.height += RowGap + kidsHeight
	}
	ext[n] = e
	return e
}

// place lays out n's block with its top-left corner at (x, y) and returns
// the card emitted for n.
func place(l *Layout, n *Node, ext map[*Node]extent, x, y float64, depth int) Card {
	e := ext[n]
	rowX := x + (e.width-e.rowWidth)/2

	card := Card{
		ID:         n.Member.ID,
		Name:       n.Member.Name,
		Relation:   n.Member.Relation,
		Generation: n.Member.GenerationID,
		Depth:      depth,
		X:          rowX,
		Y:          y,
	}
	l.Cards = append(l.Cards, card)

	midY := y + CardHeight/2
	descentFrom := Point{X: rowX + CardWidth/2, Y: y + CardHeight}

	prevRight := rowX + CardWidth
	cursor := prevRight + SpouseLink
	for i, s := range n.Spouses() {
		sc := place(l, s, ext, cursor, y, depth)
		l.Links = append(l.Links, Link{
			Kind: LinkSpouse,
			From: Point{X: prevRight, Y: midY},
			To:   Point{X: sc.X, Y: midY},
		})
		if i == 0 {
			descentFrom = Point{X: (prevRight + sc.X) / 2, Y: midY}
		}
		prevRight = sc.X + CardWidth
		cursor += ext[s].width + SpouseLink
	}

	kids := n.Descendants()
	if len(kids) == 0 {
		return card
	}

	busY := y + e.rowHeight + RowGap/2
	kidsY := y + e.rowHeight + RowGap
	kx := x + (e.width-e.kidsWidth)/2

	l.Links = append(l.Links, Link{
		Kind: LinkDescent,
		From: descentFrom,
		To:   Point{X: descentFrom.X, Y: busY},
	})

	busLeft, busRight := descentFrom.X, descentFrom.X
	for _, k := range kids {
		kc := place(l, k, ext, kx, kidsY, depth+1)
		cx := kc.X + CardWidth/2
		busLeft = min(busLeft, cx)
		busRight = max(busRight, cx)
		l.Links = append(l.Links, Link{
			Kind: LinkDrop,
			From: Point{X: cx, Y: busY},
			To:   Point{X: cx, Y: kidsY},
		})
		kx += ext[k].width + ChildGap
	}

	l.Links = append(l.Links, Link{
		Kind: LinkBus,
		From: Point{X: busLeft, Y: busY},
		To:   Point{X: busRight, Y: busY},
	})
	return card
}
