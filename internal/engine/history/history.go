package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/notify"
	"github.com/dshills/inkwell/internal/surface"
)

// History manages undo/redo state for one editing surface.
//
// All methods are safe to call from timer goroutines. Surface writes happen
// outside the lock so change listeners may call back into History.
type History struct {
	mu sync.Mutex

	surface surface.Editable
	store   *Store

	// Configuration
	settings Settings
	clock    Clock
	logger   *slog.Logger
	notifier *notify.Notifier
	source   string

	// Recorder state
	timer     Timer
	timerGen  uint64
	lastPush  time.Time
	hasPushed bool

	// Restorer state
	restoring   bool
	restoreSeq  uint64
	settleTimer Timer

	summaries *summarizer

	closed bool
	done   chan struct{}
}

// New creates a history for s and records its current state as the first
// snapshot.
func New(s surface.Editable, opts ...Option) *History {
	h := &History{
		surface:   s,
		settings:  DefaultSettings(),
		clock:     SystemClock(),
		logger:    slog.New(slog.DiscardHandler),
		summaries: newSummarizer(),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.store = NewStore(h.settings.Capacity)

	h.mu.Lock()
	snap, _ := h.pushLocked()
	h.mu.Unlock()

	h.logger.Debug("history initialized",
		slog.Int("capacity", h.settings.Capacity),
		slog.Int("content_len", len(snap.Content)))

	return h
}

// Undo restores the previous snapshot.
func (h *History) Undo() Outcome {
	return h.restore("undo", (*Store).Back)
}

// Redo restores the next snapshot.
func (h *History) Redo() Outcome {
	return h.restore("redo", (*Store).Forward)
}

// Jump restores the snapshot at index.
func (h *History) Jump(index int) Outcome {
	return h.restore("jump", func(s *Store) (Snapshot, bool) {
		return s.MoveTo(index)
	})
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.CanUndo()
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.CanRedo()
}

// Len returns the number of snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Len()
}

// Cursor returns the index of the current snapshot.
func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Cursor()
}

// Current returns the snapshot at the cursor.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Current()
}

// Settings returns the active settings.
func (h *History) Settings() Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// Apply changes the settings of a live history.
// Shrinking capacity evicts the oldest snapshots immediately; timing
// changes take effect on the next record.
func (h *History) Apply(s Settings) {
	s = s.normalize()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.settings = s
	h.store.SetCapacity(s.Capacity)
}

// Clear empties the history and records the current surface state, so the
// stack always has a current snapshot afterwards.
func (h *History) Clear() Outcome {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Closed
	}

	h.cancelPendingLocked()
	h.store.Reset()
	h.hasPushed = false
	h.summaries.flush()
	snap, _ := h.pushLocked()
	h.mu.Unlock()

	h.publish(TopicCleared, RecordedEvent{Snapshot: snap, Index: 0, Immediate: true})
	return Applied
}

// GetHistory returns every version, oldest first.
func (h *History) GetHistory() []Entry {
	h.mu.Lock()
	snaps := h.store.Entries()
	cursor := h.store.Cursor()
	h.mu.Unlock()

	entries := make([]Entry, len(snaps))
	for i, snap := range snaps {
		summary := "initial"
		if i > 0 {
			summary = h.summaries.Summarize(snaps[i-1], snap)
		}
		entries[i] = Entry{
			ID:        snap.ID,
			Index:     i,
			Content:   snap.Content,
			Selection: snap.Selection,
			Timestamp: snap.Timestamp,
			Current:   i == cursor,
			Summary:   summary,
		}
	}
	return entries
}

// Close stops all timers and discards pending state. Further records are
// ignored. It is safe to call Close multiple times.
func (h *History) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.cancelPendingLocked()
	if h.settleTimer != nil {
		h.settleTimer.Stop()
		h.settleTimer = nil
	}
	h.summaries.flush()
	close(h.done)
}

// publish sends a notification. Must be called without holding mu.
func (h *History) publish(topic string, payload any) {
	if h.notifier == nil {
		return
	}
	h.notifier.Publish(notify.Event{
		Topic:   topic,
		Source:  h.source,
		Payload: payload,
		Time:    h.clock.Now(),
	})
}
