package history

// DefaultCapacity is the default maximum number of snapshots kept.
const DefaultCapacity = 100

// Store is a bounded, truncating version stack.
//
// entries[cursor] is the current snapshot; cursor is -1 only while the store
// is empty. Store is not safe for concurrent use; History serializes access.
type Store struct {
	entries  []Snapshot
	cursor   int
	capacity int
}

// NewStore creates an empty store.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		cursor:   -1,
		capacity: capacity,
	}
}

// Push appends a snapshot after the cursor.
// Returns false without changing anything if snap's content equals the
// current snapshot's content. Entries after the cursor are discarded and
// the oldest entry is evicted when the store is full.
func (s *Store) Push(snap Snapshot) bool {
	if cur, ok := s.Current(); ok && cur.Content == snap.Content {
		return false
	}

	// Drop the redo tail
	if s.cursor < len(s.entries)-1 {
		clear(s.entries[s.cursor+1:])
		s.entries = s.entries[:s.cursor+1]
	}

	s.entries = append(s.entries, snap)

	// Enforce capacity
	if len(s.entries) > s.capacity {
		excess := len(s.entries) - s.capacity
		s.entries = append(s.entries[:0:0], s.entries[excess:]...)
	}

	s.cursor = len(s.entries) - 1
	return true
}

// Current returns the snapshot at the cursor.
func (s *Store) Current() (Snapshot, bool) {
	if s.cursor < 0 {
		return Snapshot{}, false
	}
	return s.entries[s.cursor], true
}

// CanUndo returns true if there is a snapshot before the cursor.
func (s *Store) CanUndo() bool {
	return s.cursor > 0
}

// CanRedo returns true if there is a snapshot after the cursor.
func (s *Store) CanRedo() bool {
	return s.cursor < len(s.entries)-1
}

// Back moves the cursor one step toward the oldest entry.
func (s *Store) Back() (Snapshot, bool) {
	if !s.CanUndo() {
		return Snapshot{}, false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Forward moves the cursor one step toward the newest entry.
func (s *Store) Forward() (Snapshot, bool) {
	if !s.CanRedo() {
		return Snapshot{}, false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// MoveTo moves the cursor to index. Moving to the current index or out of
// range does nothing.
func (s *Store) MoveTo(index int) (Snapshot, bool) {
	if index < 0 || index >= len(s.entries) || index == s.cursor {
		return Snapshot{}, false
	}
	s.cursor = index
	return s.entries[s.cursor], true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Cursor returns the current index, or -1 if empty.
func (s *Store) Cursor() int {
	return s.cursor
}

// Capacity returns the maximum number of entries.
func (s *Store) Capacity() int {
	return s.capacity
}

// SetCapacity changes the capacity.
// If the store is larger, the oldest entries are removed and the cursor
// follows its snapshot; if that snapshot was evicted the cursor lands on the
// oldest survivor.
func (s *Store) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s.capacity = capacity

	if len(s.entries) > capacity {
		excess := len(s.entries) - capacity
		s.entries = append(s.entries[:0:0], s.entries[excess:]...)
		s.cursor -= excess
		if s.cursor < 0 {
			s.cursor = 0
		}
	}
}

// Entries returns a copy of all snapshots, oldest first.
func (s *Store) Entries() []Snapshot {
	result := make([]Snapshot, len(s.entries))
	copy(result, s.entries)
	return result
}

// Reset removes every entry. Capacity is kept.
func (s *Store) Reset() {
	s.entries = nil
	s.cursor = -1
}
