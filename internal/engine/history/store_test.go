package history

import (
	"testing"
	"time"
)

func snap(content string) Snapshot {
	return NewSnapshot(content, Selection{}, time.Now())
}

func contents(s *Store) []string {
	var result []string
	for _, e := range s.Entries() {
		result = append(result, e.Content)
	}
	return result
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewStore(t *testing.T) {
	s := NewStore(0)
	if s.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", s.Capacity(), DefaultCapacity)
	}
	if s.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", s.Cursor())
	}
	if s.CanUndo() || s.CanRedo() {
		t.Error("empty store should not undo or redo")
	}
	if _, ok := s.Current(); ok {
		t.Error("empty store should have no current snapshot")
	}
}

func TestStorePush(t *testing.T) {
	s := NewStore(10)

	if !s.Push(snap("a")) {
		t.Fatal("first push rejected")
	}
	if !s.Push(snap("b")) {
		t.Fatal("second push rejected")
	}

	if s.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want 1", s.Cursor())
	}
	if !s.CanUndo() {
		t.Error("should be able to undo")
	}
	if s.CanRedo() {
		t.Error("should not be able to redo")
	}
}

func TestStorePushDuplicate(t *testing.T) {
	s := NewStore(10)
	s.Push(snap("a"))

	if s.Push(snap("a")) {
		t.Error("duplicate push accepted")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	// Only the current entry counts for dedup
	s.Push(snap("b"))
	s.Back()
	if !s.Push(snap("b")) {
		t.Error("push equal to a non-current entry should be accepted")
	}
}

func TestStoreTruncation(t *testing.T) {
	s := NewStore(10)
	for _, c := range []string{"a", "b", "c", "d"} {
		s.Push(snap(c))
	}
	s.Back()
	s.Back()

	s.Push(snap("x"))

	want := []string{"a", "b", "x"}
	if got := contents(s); !equalStrings(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	if s.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", s.Cursor())
	}
	if s.CanRedo() {
		t.Error("redo tail should be discarded")
	}
}

func TestStoreEviction(t *testing.T) {
	s := NewStore(3)
	for _, c := range []string{"A", "B", "C", "D"} {
		s.Push(snap(c))
	}

	want := []string{"B", "C", "D"}
	if got := contents(s); !equalStrings(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	if s.Cursor() != 2 {
		t.Fatalf("Cursor() = %d, want 2", s.Cursor())
	}

	steps := []struct {
		name   string
		move   func() (Snapshot, bool)
		want   string
		cursor int
	}{
		{"undo", s.Back, "C", 1},
		{"undo", s.Back, "B", 0},
		{"redo", s.Forward, "C", 1},
	}
	for _, step := range steps {
		got, ok := step.move()
		if !ok {
			t.Fatalf("%s failed", step.name)
		}
		if got.Content != step.want {
			t.Errorf("%s content = %q, want %q", step.name, got.Content, step.want)
		}
		if s.Cursor() != step.cursor {
			t.Errorf("%s cursor = %d, want %d", step.name, s.Cursor(), step.cursor)
		}
	}
}

func TestStoreBoundaries(t *testing.T) {
	s := NewStore(10)
	s.Push(snap("a"))

	if _, ok := s.Back(); ok {
		t.Error("Back() on single entry should fail")
	}
	if _, ok := s.Forward(); ok {
		t.Error("Forward() at tail should fail")
	}
	if s.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", s.Cursor())
	}
}

func TestStoreMoveTo(t *testing.T) {
	s := NewStore(10)
	for _, c := range []string{"a", "b", "c"} {
		s.Push(snap(c))
	}

	tests := []struct {
		index  int
		ok     bool
		cursor int
	}{
		{0, true, 0},
		{0, false, 0},
		{5, false, 0},
		{-1, false, 0},
		{2, true, 2},
	}
	for _, tt := range tests {
		_, ok := s.MoveTo(tt.index)
		if ok != tt.ok {
			t.Errorf("MoveTo(%d) ok = %v, want %v", tt.index, ok, tt.ok)
		}
		if s.Cursor() != tt.cursor {
			t.Errorf("after MoveTo(%d) cursor = %d, want %d", tt.index, s.Cursor(), tt.cursor)
		}
	}
}

func TestStoreSetCapacity(t *testing.T) {
	s := NewStore(10)
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		s.Push(snap(c))
	}
	s.Back() // cursor on "d"

	s.SetCapacity(3)

	want := []string{"c", "d", "e"}
	if got := contents(s); !equalStrings(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	cur, _ := s.Current()
	if cur.Content != "d" {
		t.Errorf("current = %q, want 'd'", cur.Content)
	}

	// Cursor snapshot evicted: lands on oldest survivor
	s.MoveTo(0)
	s.SetCapacity(1)
	cur, _ = s.Current()
	if cur.Content != "e" || s.Cursor() != 0 {
		t.Errorf("current = %q at %d, want 'e' at 0", cur.Content, s.Cursor())
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore(5)
	s.Push(snap("a"))
	s.Push(snap("b"))

	s.Reset()

	if s.Len() != 0 || s.Cursor() != -1 {
		t.Errorf("after Reset: Len() = %d, Cursor() = %d", s.Len(), s.Cursor())
	}
	if s.Capacity() != 5 {
		t.Errorf("Capacity() = %d, want 5", s.Capacity())
	}
}

func TestStoreEntriesIsCopy(t *testing.T) {
	s := NewStore(5)
	s.Push(snap("a"))

	entries := s.Entries()
	entries[0].Content = "changed"

	cur, _ := s.Current()
	if cur.Content != "a" {
		t.Error("Entries() exposed internal state")
	}
}
