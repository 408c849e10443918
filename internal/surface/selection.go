package surface

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Boundary is a position inside the node tree.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// IsZero reports whether the boundary has no container.
func (b Boundary) IsZero() bool {
	return b.Node == nil
}

// Range is a selection between two boundaries.
// Start is expected to precede or equal End in document order.
type Range struct {
	Start Boundary
	End   Boundary
}

// Collapsed returns an empty range at b.
func Collapsed(b Boundary) Range {
	return Range{Start: b, End: b}
}

// IsCollapsed returns true if both boundaries are the same point.
func (r Range) IsCollapsed() bool {
	return r.Start == r.End
}

// Contains reports whether n is root or a descendant of root.
func Contains(root, n *html.Node) bool {
	if root == nil {
		return false
	}
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// TextLen returns the length of s in runes.
func TextLen(s string) int {
	return utf8.RuneCountInString(s)
}

// ContentLength returns the length of a boundary's container: runes for a
// text node, child count for anything else.
func ContentLength(n *html.Node) int {
	if n == nil {
		return 0
	}
	if n.Type == html.TextNode {
		return TextLen(n.Data)
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// TextNodes returns every text node under root in document order.
func TextNodes(root *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			nodes = append(nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return nodes
}

// PlainText returns the concatenation of all text under root.
func PlainText(root *html.Node) string {
	var buf []byte
	for _, n := range TextNodes(root) {
		buf = append(buf, n.Data...)
	}
	return string(buf)
}

// PlainTextLen returns the rune length of PlainText(root).
func PlainTextLen(root *html.Node) int {
	total := 0
	for _, n := range TextNodes(root) {
		total += TextLen(n.Data)
	}
	return total
}
