package command

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/surface"
)

// Built-in command names.
const (
	NameInsertText = "insertText"
	NameBold       = "bold"
	NameItalic     = "italic"
	NameUnderline  = "underline"
	NameSetContent = "setContent"
)

// InsertText replaces the selection with text and leaves a caret after it.
// With no selection the text is appended.
type InsertText struct {
	Text string
}

// Name implements Command.
func (c InsertText) Name() string { return NameInsertText }

// Apply implements Command.
func (c InsertText) Apply(_ context.Context, s surface.Editable) (<-chan struct{}, error) {
	return Insert(s, c.Text), nil
}

// inlineTags are the elements a wrap may create.
var inlineTags = map[string]bool{
	"b": true, "strong": true,
	"i": true, "em": true,
	"u": true, "s": true, "strike": true,
	"span": true, "mark": true, "code": true,
	"sub": true, "sup": true,
}

// IsInlineTag reports whether tag names an inline formatting element.
func IsInlineTag(tag string) bool {
	return inlineTags[strings.ToLower(tag)]
}

// Wrap wraps the selected text in an inline element. A collapsed selection
// is left alone.
type Wrap struct {
	Tag  string
	name string
}

// Bold returns a command wrapping the selection in <b>.
func Bold() Wrap { return Wrap{Tag: "b", name: NameBold} }

// Italic returns a command wrapping the selection in <i>.
func Italic() Wrap { return Wrap{Tag: "i", name: NameItalic} }

// Underline returns a command wrapping the selection in <u>.
func Underline() Wrap { return Wrap{Tag: "u", name: NameUnderline} }

// Name implements Command.
func (c Wrap) Name() string {
	if c.name != "" {
		return c.name
	}
	return "wrap:" + c.Tag
}

// Apply implements Command.
func (c Wrap) Apply(_ context.Context, s surface.Editable) (<-chan struct{}, error) {
	if !IsInlineTag(c.Tag) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTag, c.Tag)
	}
	return WrapSelection(s, c.Tag), nil
}

// SetContent replaces the whole surface.
type SetContent struct {
	Markup string
}

// Name implements Command.
func (c SetContent) Name() string { return NameSetContent }

// Apply implements Command.
func (c SetContent) Apply(_ context.Context, s surface.Editable) (<-chan struct{}, error) {
	return s.ReplaceContent(c.Markup), nil
}

// Builtins returns the built-in commands that take no arguments.
func Builtins() []Command {
	return []Command{Bold(), Italic(), Underline()}
}

// SelectionOf returns the flat selection of s, or a caret at the end of the
// text when s has no selection.
func SelectionOf(s surface.Editable) history.Selection {
	root := s.Root()
	if r, ok := s.Selection(); ok {
		return history.Capture(root, r)
	}
	n := surface.PlainTextLen(root)
	return history.Selection{Start: n, End: n}
}

// SelectFlat places the live selection at flat offsets.
func SelectFlat(s surface.Editable, sel history.Selection) {
	root := s.Root()
	if r, ok := history.Resolve(root, sel); ok {
		s.Select(r)
		return
	}
	s.Select(history.CaretAtStart(root))
}

// Insert replaces the selection of s with text.
func Insert(s surface.Editable, text string) <-chan struct{} {
	sel := SelectionOf(s)
	done := s.Mutate(func(root *html.Node) {
		deleteRange(root, sel.Start, sel.End)
		insertAt(root, sel.Start, text)
	})
	caret := sel.Start + surface.TextLen(text)
	SelectFlat(s, history.Selection{Start: caret, End: caret})
	return done
}

// WrapSelection wraps the selected text of s in tag elements, one per
// intersecting text node. Text already inside a tag element is skipped.
func WrapSelection(s surface.Editable, tag string) <-chan struct{} {
	sel := SelectionOf(s)
	if sel.IsCollapsed() {
		return settled()
	}
	tag = strings.ToLower(tag)
	done := s.Mutate(func(root *html.Node) {
		wrapRange(root, sel.Start, sel.End, tag)
	})
	SelectFlat(s, sel)
	return done
}

// deleteRange removes the text between flat offsets start and end.
func deleteRange(root *html.Node, start, end int) {
	if start >= end {
		return
	}
	pos := 0
	for _, n := range surface.TextNodes(root) {
		runes := []rune(n.Data)
		nStart := pos
		pos += len(runes)

		lo, hi := max(start, nStart), min(end, pos)
		if lo >= hi {
			continue
		}
		n.Data = string(runes[:lo-nStart]) + string(runes[hi-nStart:])
		if n.Data == "" && n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// insertAt inserts text at flat offset at. With no text nodes the text is
// appended to root.
func insertAt(root *html.Node, at int, text string) {
	if text == "" {
		return
	}
	r, ok := history.Resolve(root, history.Selection{Start: at, End: at})
	if !ok {
		root.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return
	}
	n := r.Start.Node
	runes := []rune(n.Data)
	n.Data = string(runes[:r.Start.Offset]) + text + string(runes[r.Start.Offset:])
}

// wrapRange splits every text node intersecting [start, end) and wraps the
// selected slice in a new tag element.
func wrapRange(root *html.Node, start, end int, tag string) {
	pos := 0
	for _, n := range surface.TextNodes(root) {
		runes := []rune(n.Data)
		nStart := pos
		pos += len(runes)

		lo, hi := max(start, nStart)-nStart, min(end, pos)-nStart
		if lo >= hi || hasAncestor(root, n, tag) {
			continue
		}

		parent := n.Parent
		if lo > 0 {
			parent.InsertBefore(textNode(runes[:lo]), n)
		}
		el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
		el.AppendChild(textNode(runes[lo:hi]))
		parent.InsertBefore(el, n)
		if hi < len(runes) {
			parent.InsertBefore(textNode(runes[hi:]), n)
		}
		parent.RemoveChild(n)
	}
}

func hasAncestor(root, n *html.Node, tag string) bool {
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func textNode(runes []rune) *html.Node {
	return &html.Node{Type: html.TextNode, Data: string(runes)}
}
