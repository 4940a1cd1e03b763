package tree

import (
	"fmt"
	"io"
	"strings"
)

// RenderText writes an indented outline of the tree, one generation per
// indent level. Spouses share their partner's line, joined by " = ".
func RenderText(w io.Writer, root *Node) error {
	if root == nil {
		_, err := fmt.Fprintln(w, "(no tree)")
		return err
	}
	return renderLine(w, root, 0)
}

func renderLine(w io.Writer, n *Node, level int) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), label(n)); err != nil {
		return err
	}
	for _, kid := range rowChildren(n) {
		if err := renderLine(w, kid, level+1); err != nil {
			return err
		}
	}
	return nil
}

func label(n *Node) string {
	parts := []string{n.Member.Name}
	for _, s := range n.Spouses() {
		parts = append(parts, label(s))
	}
	return strings.Join(parts, " = ")
}

// rowChildren collects the next-row members of n and of every spouse on its line
func rowChildren(n *Node) []*Node {
	kids := n.Descendants()
	for _, s := range n.Spouses() {
		kids = append(kids, rowChildren(s)...)
	}
	return kids
}
