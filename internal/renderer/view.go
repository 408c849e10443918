package renderer

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/surface"
)

// Status is the content of the status line.
type Status struct {
	Version int // 1-based cursor position
	Count   int
	Path    string
	Message string
}

func (s Status) String() string {
	name := s.Path
	if name == "" {
		name = "[scratch]"
	}
	line := fmt.Sprintf(" %s  v%d/%d", name, s.Version, s.Count)
	if s.Message != "" {
		line += "  " + s.Message
	}
	return line
}

// StyleFor returns the terminal style for a text node from its ancestors.
func StyleFor(n *html.Node) tcell.Style {
	style := tcell.StyleDefault
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "b", "strong":
			style = style.Bold(true)
		case "i", "em":
			style = style.Italic(true)
		case "u":
			style = style.Underline(true)
		case "s", "strike":
			style = style.StrikeThrough(true)
		}
	}
	return style
}

// Draw renders the document text, the selection and the status line, and
// places the cursor at the selection end.
func Draw(t *Terminal, root *html.Node, sel history.Selection, status Status) {
	width, height := t.Size()
	t.Clear()
	if width <= 0 || height <= 0 {
		t.Show()
		return
	}

	textRows := height - 1
	x, y, pos := 0, 0, 0
	cursorX, cursorY := 0, 0
	lo, hi := min(sel.Start, sel.End), max(sel.Start, sel.End)

	place := func() {
		if pos == sel.End {
			cursorX, cursorY = x, y
		}
	}

	for _, n := range surface.TextNodes(root) {
		style := StyleFor(n)
		for _, r := range n.Data {
			place()
			if r == '\n' {
				x, y = 0, y+1
				pos++
				continue
			}
			if x >= width {
				x, y = 0, y+1
			}
			cs := style
			if pos >= lo && pos < hi {
				cs = cs.Reverse(true)
			}
			if y < textRows {
				t.SetCell(x, y, r, cs)
			}
			x++
			pos++
		}
	}
	place()

	bar := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range status.String() {
		if col >= width {
			break
		}
		t.SetCell(col, height-1, r, bar)
		col++
	}
	for ; col < width; col++ {
		t.SetCell(col, height-1, ' ', bar)
	}

	if cursorX >= width {
		cursorX, cursorY = 0, cursorY+1
	}
	if cursorY < textRows {
		t.ShowCursor(cursorX, cursorY)
	} else {
		t.HideCursor()
	}
	t.Show()
}
