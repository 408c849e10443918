package surface

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotInDocument indicates a boundary refers to a node outside the document.
var ErrNotInDocument = errors.New("boundary not in document")

// Editable is the surface contract consumed by the history engine and the
// command layer.
type Editable interface {
	// Root returns the live root element. Its children change identity
	// whenever content is replaced. Walking it is only safe on the goroutine
	// that mutates the surface; other goroutines use Read.
	Root() *html.Node

	// Read runs fn with the tree held still. fn sees the root and the
	// selection as one consistent state and must not call back into the
	// surface.
	Read(fn func(root *html.Node, sel Range, hasSel bool))

	// Content returns the serialized markup of the root's children.
	Content() string

	// ReplaceContent parses markup and swaps it in for the current children.
	// The returned channel is closed once change listeners have run.
	ReplaceContent(markup string) <-chan struct{}

	// Mutate runs fn against the live tree and notifies change listeners.
	Mutate(fn func(root *html.Node)) <-chan struct{}

	// Selection returns the live selection, if any.
	Selection() (Range, bool)

	// Select sets the live selection.
	Select(r Range)
}

// ChangeListener is called after every content change.
type ChangeListener func()

// Document is an in-memory Editable backed by an html.Node tree.
//
// Writes to the node tree happen on one host goroutine under tree's write
// lock. Readers on other goroutines (debounce and settle timers) go through
// Read or Content, which take the read lock. mu guards selection and
// listener state and is always taken after tree.
type Document struct {
	tree sync.RWMutex
	mu   sync.Mutex

	id   uuid.UUID
	root *html.Node

	sel    Range
	hasSel bool

	listeners map[uint64]ChangeListener
	nextID    uint64
}

// NewDocument creates a document from serialized markup.
func NewDocument(markup string) (*Document, error) {
	d := &Document{
		id:        uuid.New(),
		root:      newRoot(),
		listeners: make(map[uint64]ChangeListener),
	}
	nodes, err := parse(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		d.root.AppendChild(n)
	}
	return d, nil
}

// MustDocument is like NewDocument but panics on parse errors.
func MustDocument(markup string) *Document {
	d, err := NewDocument(markup)
	if err != nil {
		panic(err)
	}
	return d
}

func newRoot() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "contenteditable", Val: "true"}},
	}
}

func parse(markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), newRoot())
	if err != nil {
		return nil, fmt.Errorf("parsing content: %w", err)
	}
	return nodes, nil
}

// Parse builds a detached root element holding the parsed markup.
func Parse(markup string) (*html.Node, error) {
	nodes, err := parse(markup)
	if err != nil {
		return nil, err
	}
	root := newRoot()
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// ID returns the document's identifier.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Root returns the root element.
func (d *Document) Root() *html.Node {
	return d.root
}

// Content renders the root's children.
func (d *Document) Content() string {
	d.tree.RLock()
	defer d.tree.RUnlock()
	return Render(d.root)
}

// Read implements Editable.
func (d *Document) Read(fn func(root *html.Node, sel Range, hasSel bool)) {
	d.tree.RLock()
	defer d.tree.RUnlock()

	d.mu.Lock()
	sel, hasSel := d.sel, d.hasSel
	d.mu.Unlock()

	fn(d.root, sel, hasSel)
}

// Render serializes the children of root.
func Render(root *html.Node) string {
	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		// Render only fails on writer errors; strings.Builder never returns one.
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// ReplaceContent rebuilds the tree from markup. Markup that fails to parse
// leaves the document empty. The selection is dropped because it points at
// nodes that no longer exist.
func (d *Document) ReplaceContent(markup string) <-chan struct{} {
	nodes, err := parse(markup)
	if err != nil {
		nodes = nil
	}

	d.write(func() {
		for c := d.root.FirstChild; c != nil; {
			next := c.NextSibling
			d.root.RemoveChild(c)
			c = next
		}
		for _, n := range nodes {
			d.root.AppendChild(n)
		}

		d.mu.Lock()
		d.sel = Range{}
		d.hasSel = false
		d.mu.Unlock()
	})

	return d.changed()
}

// Mutate runs fn on the live tree, then notifies listeners. A selection that
// no longer points into the document is dropped. fn runs under the tree's
// write lock and must not call back into the document.
func (d *Document) Mutate(fn func(root *html.Node)) <-chan struct{} {
	d.write(func() {
		fn(d.root)

		d.mu.Lock()
		if d.hasSel && (!Contains(d.root, d.sel.Start.Node) || !Contains(d.root, d.sel.End.Node)) {
			d.sel = Range{}
			d.hasSel = false
		}
		d.mu.Unlock()
	})
	return d.changed()
}

// write runs fn under the tree's write lock. The lock is released even if
// fn panics.
func (d *Document) write(fn func()) {
	d.tree.Lock()
	defer d.tree.Unlock()
	fn()
}

// Selection returns the current selection.
func (d *Document) Selection() (Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel, d.hasSel
}

// Select sets the selection. Offsets are clamped to their container.
func (d *Document) Select(r Range) {
	r.Start.Offset = clampOffset(r.Start)
	r.End.Offset = clampOffset(r.End)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sel = r
	d.hasSel = !r.Start.IsZero() && !r.End.IsZero()
}

// SetSelection validates that both boundaries are inside the document
// before selecting.
func (d *Document) SetSelection(r Range) error {
	if !Contains(d.root, r.Start.Node) || !Contains(d.root, r.End.Node) {
		return ErrNotInDocument
	}
	d.Select(r)
	return nil
}

// ClearSelection removes the selection.
func (d *Document) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sel = Range{}
	d.hasSel = false
}

// OnChange registers a listener and returns a function that removes it.
func (d *Document) OnChange(fn ChangeListener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.listeners[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// changed calls listeners outside the lock and returns a closed channel:
// listeners run synchronously, so the mutation has settled on return.
func (d *Document) changed() <-chan struct{} {
	d.mu.Lock()
	listeners := make([]ChangeListener, 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}

	done := make(chan struct{})
	close(done)
	return done
}

func clampOffset(b Boundary) int {
	if b.Offset < 0 {
		return 0
	}
	if n := ContentLength(b.Node); b.Offset > n {
		return n
	}
	return b.Offset
}
