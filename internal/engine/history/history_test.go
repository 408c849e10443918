package history

import (
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/notify"
	"github.com/dshills/inkwell/internal/surface"
)

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Helper to create a document, clock and history
func newTestHistory(t *testing.T, markup string, opts ...Option) (*History, *surface.Document, *ManualClock) {
	t.Helper()
	doc := surface.MustDocument(markup)
	clock := NewManualClock(testEpoch)
	opts = append([]Option{WithClock(clock)}, opts...)
	h := New(doc, opts...)
	t.Cleanup(h.Close)
	return h, doc, clock
}

// appendText types text at the end of the last text node.
func appendText(doc *surface.Document, text string) {
	doc.Mutate(func(root *html.Node) {
		nodes := surface.TextNodes(root)
		if len(nodes) == 0 {
			root.AppendChild(&html.Node{Type: html.TextNode, Data: text})
			return
		}
		nodes[len(nodes)-1].Data += text
	})
}

// signalSurface controls the completion signal returned by ReplaceContent.
type signalSurface struct {
	*surface.Document
	done     chan struct{}
	noSignal bool
}

func (s *signalSurface) ReplaceContent(markup string) <-chan struct{} {
	s.Document.ReplaceContent(markup)
	if s.noSignal {
		return nil
	}
	return s.done
}

func TestNewRecordsInitialSnapshot(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>hello</p>")

	if h.Len() != 1 || h.Cursor() != 0 {
		t.Fatalf("Len() = %d, Cursor() = %d, want 1, 0", h.Len(), h.Cursor())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("fresh history should not undo or redo")
	}
	cur, ok := h.Current()
	if !ok || cur.Content != doc.Content() {
		t.Errorf("Current() = %q, want %q", cur.Content, doc.Content())
	}
	if !cur.Timestamp.Equal(testEpoch) {
		t.Errorf("Timestamp = %v, want %v", cur.Timestamp, testEpoch)
	}
}

func TestRecordImmediateDedup(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>hello</p>")

	appendText(doc, " world")
	if got := h.RecordImmediate(); got != Applied {
		t.Fatalf("RecordImmediate() = %v, want applied", got)
	}
	if got := h.RecordImmediate(); got != Duplicate {
		t.Errorf("second RecordImmediate() = %v, want duplicate", got)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>hello</p>")
	c0 := doc.Content()

	appendText(doc, " world")
	h.RecordImmediate()
	c1 := doc.Content()

	if got := h.Undo(); got != Applied {
		t.Fatalf("Undo() = %v, want applied", got)
	}
	if doc.Content() != c0 {
		t.Errorf("after Undo content = %q, want %q", doc.Content(), c0)
	}
	if !h.CanRedo() {
		t.Error("should be able to redo")
	}

	if got := h.Redo(); got != Applied {
		t.Fatalf("Redo() = %v, want applied", got)
	}
	if doc.Content() != c1 {
		t.Errorf("after Redo content = %q, want %q", doc.Content(), c1)
	}
}

func TestUndoRedoAtBoundaries(t *testing.T) {
	h, _, _ := newTestHistory(t, "<p>hello</p>")

	if got := h.Undo(); got != Noop {
		t.Errorf("Undo() = %v, want noop", got)
	}
	if got := h.Redo(); got != Noop {
		t.Errorf("Redo() = %v, want noop", got)
	}
	if h.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", h.Cursor())
	}
}

func TestCapacityScenario(t *testing.T) {
	h, doc, _ := newTestHistory(t, "A", WithCapacity(3))

	for _, c := range []string{"B", "C", "D"} {
		doc.ReplaceContent(c)
		h.RecordImmediate()
	}

	var got []string
	for _, e := range h.GetHistory() {
		got = append(got, e.Content)
	}
	if strings.Join(got, ",") != "B,C,D" || h.Cursor() != 2 {
		t.Fatalf("entries = %v cursor %d, want [B C D] cursor 2", got, h.Cursor())
	}

	steps := []struct {
		op     func() Outcome
		want   string
		cursor int
	}{
		{h.Undo, "C", 1},
		{h.Undo, "B", 0},
		{h.Redo, "C", 1},
	}
	for i, step := range steps {
		step.op()
		if doc.Content() != step.want || h.Cursor() != step.cursor {
			t.Errorf("step %d: content %q cursor %d, want %q cursor %d",
				i, doc.Content(), h.Cursor(), step.want, step.cursor)
		}
	}
}

func TestRecordTruncatesRedo(t *testing.T) {
	h, doc, _ := newTestHistory(t, "zero")

	for _, c := range []string{"one", "two"} {
		doc.ReplaceContent(c)
		h.RecordImmediate()
	}
	h.Undo()
	h.Undo()

	doc.ReplaceContent("three")
	h.RecordImmediate()

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	if h.CanRedo() {
		t.Error("redo history should be discarded")
	}
	entries := h.GetHistory()
	if entries[1].Content != "three" {
		t.Errorf("entries[1] = %q, want 'three'", entries[1].Content)
	}
}

func TestRecordCoalesces(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>a</p>")
	clock.Advance(time.Second)

	for _, ch := range []string{"b", "c", "d"} {
		appendText(doc, ch)
		if got := h.Record(); got != Pending {
			t.Fatalf("Record() = %v, want pending", got)
		}
		clock.Advance(100 * time.Millisecond)
	}

	clock.Advance(399 * time.Millisecond)
	if h.Len() != 1 {
		t.Fatalf("Len() = %d before quantum expired, want 1", h.Len())
	}

	clock.Advance(time.Millisecond)
	if h.Len() != 2 {
		t.Fatalf("Len() = %d after quantum, want 2", h.Len())
	}
	cur, _ := h.Current()
	if cur.Content != "<p>abcd</p>" {
		t.Errorf("coalesced content = %q, want state at last call", cur.Content)
	}
}

func TestRecordThrottledByMinInterval(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>a</p>", WithMinInterval(2*time.Second))

	appendText(doc, "b")
	h.Record()
	clock.Advance(DefaultDebounce)

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (throttled)", h.Len())
	}

	// Outside the interval the next record lands
	clock.Advance(2 * time.Second)
	h.Record()
	clock.Advance(DefaultDebounce)
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestRecordImmediateIgnoresMinInterval(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>a</p>", WithMinInterval(time.Hour))

	appendText(doc, "b")
	h.RecordImmediate()
	appendText(doc, "c")
	h.RecordImmediate()

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestRecordImmediateCancelsPending(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>a</p>")
	clock.Advance(time.Second)

	appendText(doc, "b")
	h.Record()
	h.RecordImmediate()

	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
	clock.Advance(time.Second)
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestSuppressionDuringRestore(t *testing.T) {
	doc := surface.MustDocument("<p>one</p>")
	s := &signalSurface{Document: doc, noSignal: true}
	clock := NewManualClock(testEpoch)
	h := New(s, WithClock(clock))
	defer h.Close()

	doc.ReplaceContent("<p>two</p>")
	h.RecordImmediate()
	h.Undo()

	if !h.Restoring() {
		t.Fatal("should be restoring until the settle delay passes")
	}

	before := h.Len()
	doc.ReplaceContent("<p>typed during restore</p>")
	if got := h.Record(); got != Suppressed {
		t.Errorf("Record() = %v, want suppressed", got)
	}
	if got := h.RecordImmediate(); got != Suppressed {
		t.Errorf("RecordImmediate() = %v, want suppressed", got)
	}
	if h.Len() != before {
		t.Errorf("Len() = %d, want %d", h.Len(), before)
	}

	clock.Advance(DefaultSettleDelay)
	if h.Restoring() {
		t.Error("should be idle after settle delay")
	}
	if h.Len() != before {
		t.Errorf("Len() = %d after settle, want %d", h.Len(), before)
	}
}

func TestSuppressionOfListenerFeedback(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>one</p>")

	var outcomes []Outcome
	doc.OnChange(func() {
		outcomes = append(outcomes, h.Record())
	})

	doc.ReplaceContent("<p>two</p>")
	h.RecordImmediate()
	outcomes = nil

	h.Undo()

	if len(outcomes) != 1 || outcomes[0] != Suppressed {
		t.Fatalf("listener outcomes = %v, want [suppressed]", outcomes)
	}
	if h.Restoring() {
		t.Error("document signals completion synchronously; restore should be settled")
	}

	clock.Advance(time.Second)
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestRestoreWaitsForCompletionSignal(t *testing.T) {
	doc := surface.MustDocument("<p>one</p>")
	s := &signalSurface{Document: doc, done: make(chan struct{})}
	h := New(s, WithClock(NewManualClock(testEpoch)))
	defer h.Close()

	doc.ReplaceContent("<p>two</p>")
	h.RecordImmediate()
	h.Undo()

	if !h.Restoring() {
		t.Fatal("should be restoring until the surface signals completion")
	}

	close(s.done)

	deadline := time.Now().Add(time.Second)
	for h.Restoring() {
		if time.Now().After(deadline) {
			t.Fatal("restore did not settle after completion signal")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRestoreSelection(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>hello world</p>")

	text := surface.TextNodes(doc.Root())[0]
	doc.Select(surface.Range{
		Start: surface.Boundary{Node: text, Offset: 6},
		End:   surface.Boundary{Node: text, Offset: 11},
	})
	h.Clear()

	doc.ReplaceContent("<p>goodbye</p>")
	h.RecordImmediate()
	h.Undo()

	r, ok := doc.Selection()
	if !ok {
		t.Fatal("selection not restored")
	}
	if r.Start.Node == text {
		t.Error("selection points at a stale node")
	}
	if got := Capture(doc.Root(), r); got != (Selection{6, 11}) {
		t.Errorf("restored selection = %+v, want {6 11}", got)
	}
}

func TestRestoreSelectionFallback(t *testing.T) {
	h, doc, _ := newTestHistory(t, `<img src="a.png">`)

	doc.ReplaceContent("<p>text</p>")
	h.RecordImmediate()
	h.Undo()

	r, ok := doc.Selection()
	if !ok {
		t.Fatal("selection not set")
	}
	if r.Start.Node != doc.Root() || r.Start.Offset != 0 || !r.IsCollapsed() {
		t.Errorf("selection = %+v, want caret at start of root", r)
	}
}

func TestRestoreSelectionClampsToShorterContent(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>short</p>")

	// A snapshot whose offsets exceed its own content cannot be produced by
	// Capture, so push one directly.
	h.mu.Lock()
	h.store.Push(NewSnapshot("<p>ab</p>", Selection{Start: 1, End: 40}, testEpoch))
	h.mu.Unlock()

	doc.ReplaceContent("<p>longer text</p>")
	h.RecordImmediate()
	h.Undo()

	r, _ := doc.Selection()
	if got := Capture(doc.Root(), r); got != (Selection{1, 2}) {
		t.Errorf("selection = %+v, want {1 2}", got)
	}
}

func TestUndoFlushesPendingRecord(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>a</p>")
	clock.Advance(time.Second)
	c0 := doc.Content()

	appendText(doc, "bc")
	h.Record()
	typed := doc.Content()

	h.Undo()

	if doc.Content() != c0 {
		t.Errorf("after Undo content = %q, want %q", doc.Content(), c0)
	}
	h.Redo()
	if doc.Content() != typed {
		t.Errorf("after Redo content = %q, want %q", doc.Content(), typed)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestUndoFlushIgnoresMinInterval(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>a</p>", WithMinInterval(time.Hour))

	appendText(doc, "b")
	h.RecordImmediate()
	saved := doc.Content()

	appendText(doc, "c")
	h.Record()
	typed := doc.Content()
	clock.Advance(time.Millisecond)

	if out := h.Undo(); out != Applied {
		t.Fatalf("Undo() = %v, want applied", out)
	}
	if doc.Content() != saved {
		t.Errorf("after Undo content = %q, want %q", doc.Content(), saved)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	h.Redo()
	if doc.Content() != typed {
		t.Errorf("after Redo content = %q, want %q", doc.Content(), typed)
	}
}

func TestFlush(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>a</p>", WithMinInterval(time.Hour))

	if got := h.Flush(); got != Noop {
		t.Errorf("Flush() with nothing pending = %v, want noop", got)
	}

	appendText(doc, "b")
	h.Record()
	if got := h.Flush(); got != Applied {
		t.Errorf("Flush() = %v, want applied", got)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestClear(t *testing.T) {
	h, doc, clock := newTestHistory(t, "<p>a</p>")

	for _, c := range []string{"<p>b</p>", "<p>c</p>"} {
		doc.ReplaceContent(c)
		h.RecordImmediate()
	}
	h.Record()

	if got := h.Clear(); got != Applied {
		t.Fatalf("Clear() = %v, want applied", got)
	}
	if h.Len() != 1 || h.Cursor() != 0 {
		t.Errorf("Len() = %d, Cursor() = %d, want 1, 0", h.Len(), h.Cursor())
	}
	cur, _ := h.Current()
	if cur.Content != "<p>c</p>" {
		t.Errorf("Current() = %q, want '<p>c</p>'", cur.Content)
	}

	clock.Advance(time.Second)
	if h.Len() != 1 {
		t.Errorf("pending record survived Clear: Len() = %d", h.Len())
	}
}

func TestJump(t *testing.T) {
	h, doc, _ := newTestHistory(t, "v0")
	for _, c := range []string{"v1", "v2", "v3"} {
		doc.ReplaceContent(c)
		h.RecordImmediate()
	}

	if got := h.Jump(1); got != Applied {
		t.Fatalf("Jump(1) = %v, want applied", got)
	}
	if doc.Content() != "v1" || h.Cursor() != 1 {
		t.Errorf("content %q cursor %d, want 'v1' cursor 1", doc.Content(), h.Cursor())
	}
	if got := h.Jump(9); got != Noop {
		t.Errorf("Jump(9) = %v, want noop", got)
	}
}

func TestGetHistory(t *testing.T) {
	h, doc, _ := newTestHistory(t, "<p>hello</p>")

	doc.ReplaceContent("<p>hello world</p>")
	h.RecordImmediate()
	doc.ReplaceContent("<p><b>hello</b> world</p>")
	h.RecordImmediate()
	h.Undo()

	entries := h.GetHistory()
	if len(entries) != 3 {
		t.Fatalf("len(GetHistory()) = %d, want 3", len(entries))
	}

	wantSummaries := []string{"initial", "+6 -0", "formatting"}
	for i, e := range entries {
		if e.Index != i {
			t.Errorf("entries[%d].Index = %d", i, e.Index)
		}
		if e.Summary != wantSummaries[i] {
			t.Errorf("entries[%d].Summary = %q, want %q", i, e.Summary, wantSummaries[i])
		}
		if e.Current != (i == 1) {
			t.Errorf("entries[%d].Current = %v", i, e.Current)
		}
	}
}

func TestRestoredNotification(t *testing.T) {
	n := notify.New()
	defer n.Close()

	h, doc, _ := newTestHistory(t, "<p>a</p>", WithNotifier(n), WithSource("doc-1"))

	var mu sync.Mutex
	var events []RestoredEvent
	var canRedo bool
	n.SubscribeTopic(TopicRestored, func(ev notify.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev.Payload.(RestoredEvent))
		// Toolbars query state from inside the callback
		canRedo = h.CanRedo()
		if ev.Source != "doc-1" {
			t.Errorf("Source = %q, want 'doc-1'", ev.Source)
		}
	})

	doc.ReplaceContent("<p>b</p>")
	h.RecordImmediate()
	h.Undo()
	h.Undo() // noop: no notification

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("received %d restored events, want 1", len(events))
	}
	if events[0].Direction != "undo" || events[0].Index != 0 {
		t.Errorf("event = %+v", events[0])
	}
	if !canRedo {
		t.Error("CanRedo() inside observer = false, want true")
	}
}

func TestApplySettings(t *testing.T) {
	h, doc, _ := newTestHistory(t, "0")
	for _, c := range []string{"1", "2", "3", "4"} {
		doc.ReplaceContent(c)
		h.RecordImmediate()
	}

	h.Apply(Settings{Capacity: 2, Debounce: time.Second, MinInterval: 0, SettleDelay: -1})

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	got := h.Settings()
	if got.Debounce != time.Second || got.SettleDelay != DefaultSettleDelay {
		t.Errorf("Settings() = %+v", got)
	}
}

func TestClose(t *testing.T) {
	h, doc, clock := newTestHistory(t, "a")

	appendText(doc, "b")
	h.Record()
	h.Close()
	h.Close()

	clock.Advance(time.Second)
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}

	tests := []struct {
		name string
		op   func() Outcome
	}{
		{"Record", h.Record},
		{"RecordImmediate", h.RecordImmediate},
		{"Undo", h.Undo},
		{"Redo", h.Redo},
		{"Clear", h.Clear},
	}
	for _, tt := range tests {
		if got := tt.op(); got != Closed {
			t.Errorf("%s() after Close = %v, want closed", tt.name, got)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{Noop, "noop"},
		{Applied, "applied"},
		{Duplicate, "duplicate"},
		{Suppressed, "suppressed"},
		{Throttled, "throttled"},
		{Pending, "pending"},
		{Closed, "closed"},
		{Outcome(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
