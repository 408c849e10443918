package history

import (
	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/surface"
)

// Capture converts a live range into flat offsets relative to root.
// A range that is not wholly inside root captures as {0, 0}. The result
// always satisfies 0 <= Start <= End <= surface.PlainTextLen(root).
func Capture(root *html.Node, r surface.Range) Selection {
	start, ok := flatOffset(root, r.Start)
	if !ok {
		return Selection{}
	}
	end, ok := flatOffset(root, r.End)
	if !ok {
		return Selection{}
	}
	if end < start {
		start, end = end, start
	}
	return Selection{Start: start, End: end}
}

// flatOffset returns the number of plain-text runes before b.
func flatOffset(root *html.Node, b surface.Boundary) (int, bool) {
	if !surface.Contains(root, b.Node) {
		return 0, false
	}

	total := 0
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n == b.Node {
			if n.Type == html.TextNode {
				total += clamp(b.Offset, 0, surface.TextLen(n.Data))
				return true
			}
			i := 0
			for c := n.FirstChild; c != nil && i < b.Offset; c = c.NextSibling {
				total += surface.PlainTextLen(c)
				i++
			}
			return true
		}
		if n.Type == html.TextNode {
			total += surface.TextLen(n.Data)
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return total, true
}

// Resolve maps flat offsets back onto the text nodes under root.
//
// Each boundary binds to the first text node whose cumulative end is at or
// past the target, so a target on a node joint lands at the end of the
// earlier node. Targets past the end clamp to the end of the last text node.
// Returns false if root has no text nodes; callers then place the caret at
// the start of root.
func Resolve(root *html.Node, sel Selection) (surface.Range, bool) {
	nodes := surface.TextNodes(root)
	if len(nodes) == 0 {
		return surface.Range{}, false
	}

	start, end := sel.Start, sel.End
	if end < start {
		start, end = end, start
	}
	return surface.Range{
		Start: locate(nodes, start),
		End:   locate(nodes, end),
	}, true
}

// locate finds the boundary for a single flat offset.
func locate(nodes []*html.Node, target int) surface.Boundary {
	if target < 0 {
		target = 0
	}
	cumStart := 0
	for _, n := range nodes {
		cumEnd := cumStart + surface.TextLen(n.Data)
		if cumEnd >= target {
			return surface.Boundary{Node: n, Offset: target - cumStart}
		}
		cumStart = cumEnd
	}
	last := nodes[len(nodes)-1]
	return surface.Boundary{Node: last, Offset: surface.TextLen(last.Data)}
}

// CaretAtStart returns a collapsed range at the start of root.
func CaretAtStart(root *html.Node) surface.Range {
	return surface.Collapsed(surface.Boundary{Node: root, Offset: 0})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
