package history

import (
	"time"

	"github.com/google/uuid"
)

// Selection is a pair of flat offsets into the plain-text projection of a
// snapshot's content.
type Selection struct {
	Start int
	End   int
}

// IsCollapsed returns true if the selection is a caret.
func (s Selection) IsCollapsed() bool {
	return s.Start == s.End
}

// Len returns the number of characters selected.
func (s Selection) Len() int {
	return s.End - s.Start
}

// Snapshot is an immutable capture of the surface at one point in time.
type Snapshot struct {
	ID        uuid.UUID
	Content   string
	Selection Selection
	Timestamp time.Time
}

// NewSnapshot creates a snapshot stamped with t.
func NewSnapshot(content string, sel Selection, t time.Time) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Content:   content,
		Selection: sel,
		Timestamp: t,
	}
}

// Entry is a read-only view of one history version.
// Used for displaying the version list to users.
type Entry struct {
	ID        uuid.UUID
	Index     int
	Content   string
	Selection Selection
	Timestamp time.Time
	Current   bool   // Entry is at the cursor
	Summary   string // Change relative to the previous entry
}
