package history

import (
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/surface"
)

// settled polls until the current snapshot matches the document.
func settled(t *testing.T, h *History, doc *surface.Document) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		cur, ok := h.Current()
		if ok && cur.Content == doc.Content() {
			return cur
		}
		if time.Now().After(deadline) {
			t.Fatalf("Current() = %q, want %q", cur.Content, doc.Content())
		}
		time.Sleep(time.Millisecond)
	}
}

// Debounce callbacks fire on timer goroutines while the test goroutine keeps
// editing. Run with -race.
func TestRecordSystemClockWhileTyping(t *testing.T) {
	doc := surface.MustDocument("<p>a</p>")
	h := New(doc, WithDebounce(time.Millisecond), WithMinInterval(0))
	t.Cleanup(h.Close)
	unsubscribe := doc.OnChange(func() { h.Record() })
	defer unsubscribe()

	n := 1
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		appendText(doc, "x")
		n++
		if r, ok := Resolve(doc.Root(), Selection{Start: n, End: n}); ok {
			doc.Select(r)
		}
		time.Sleep(50 * time.Microsecond)
	}

	cur := settled(t, h, doc)
	if h.Len() < 2 {
		t.Errorf("Len() = %d, want coalesced records", h.Len())
	}
	if cur.Selection.Start > cur.Selection.End || cur.Selection.End > n {
		t.Errorf("Selection = %+v, want within [0, %d]", cur.Selection, n)
	}
}

func TestUndoSystemClockWhileRecording(t *testing.T) {
	doc := surface.MustDocument("<p>a</p>")
	h := New(doc, WithDebounce(time.Millisecond), WithMinInterval(0), WithSettleDelay(time.Millisecond))
	t.Cleanup(h.Close)
	unsubscribe := doc.OnChange(func() { h.Record() })
	defer unsubscribe()

	for i := 0; i < 50; i++ {
		appendText(doc, "x")
		if i%5 == 4 {
			h.Undo()
		}
		time.Sleep(100 * time.Microsecond)
	}

	settled(t, h, doc)
}
