package history

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/surface"
)

// Record requests a coalesced snapshot.
//
// Calls within the debounce quantum collapse into one push that captures the
// surface when the quantum expires. The push is dropped if a restore is in
// progress or if the previous successful push was less than MinInterval ago.
// Returns Pending when a push has been scheduled.
func (h *History) Record() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Closed
	}
	if h.restoring {
		h.logger.Debug("record suppressed during restore")
		return Suppressed
	}

	if h.timer != nil {
		h.timer.Stop()
	}
	h.timerGen++
	gen := h.timerGen
	h.timer = h.clock.AfterFunc(h.settings.Debounce, func() {
		h.fireCoalesced(gen)
	})
	return Pending
}

// RecordImmediate captures the surface synchronously.
// It skips the minimum-interval guard, so a command bracketed by two calls
// always gets its own undo step. A pending coalesced record is cancelled
// because its state is included in this capture.
func (h *History) RecordImmediate() Outcome {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Closed
	}
	if h.restoring {
		h.mu.Unlock()
		h.logger.Debug("immediate record suppressed during restore")
		return Suppressed
	}

	h.cancelPendingLocked()
	snap, pushed := h.pushLocked()
	index := h.store.Cursor()
	h.mu.Unlock()

	if !pushed {
		return Duplicate
	}
	h.publish(TopicRecorded, RecordedEvent{Snapshot: snap, Index: index, Immediate: true})
	return Applied
}

// Flush runs a pending coalesced record now. Unlike the debounce timer it
// does not wait out the quantum and skips the minimum-interval guard, so a
// burst of typing shorter than MinInterval still gets its own snapshot.
// Undo, Redo and Jump flush the same way before moving. Returns Noop if
// nothing is pending.
func (h *History) Flush() Outcome {
	h.mu.Lock()
	out, ev := h.flushLocked()
	h.mu.Unlock()

	if ev != nil {
		h.publish(TopicRecorded, *ev)
	}
	return out
}

// Restoring reports whether a restore has not yet settled.
func (h *History) Restoring() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restoring
}

// fireCoalesced is the debounce timer callback.
func (h *History) fireCoalesced(gen uint64) {
	h.mu.Lock()
	if h.closed || gen != h.timerGen {
		h.mu.Unlock()
		return
	}
	h.timer = nil

	if h.restoring {
		h.mu.Unlock()
		h.logger.Debug("coalesced record suppressed during restore")
		return
	}
	if h.hasPushed && h.clock.Now().Sub(h.lastPush) < h.settings.MinInterval {
		h.mu.Unlock()
		h.logger.Debug("coalesced record throttled",
			slog.Duration("min_interval", h.settings.MinInterval))
		return
	}

	snap, pushed := h.pushLocked()
	index := h.store.Cursor()
	h.mu.Unlock()

	if pushed {
		h.publish(TopicRecorded, RecordedEvent{Snapshot: snap, Index: index})
	}
}

// flushLocked pushes the pending coalesced state, if any.
func (h *History) flushLocked() (Outcome, *RecordedEvent) {
	if h.timer == nil || h.closed {
		return Noop, nil
	}
	h.cancelPendingLocked()

	if h.restoring {
		return Suppressed, nil
	}
	snap, pushed := h.pushLocked()
	if !pushed {
		return Duplicate, nil
	}
	return Applied, &RecordedEvent{Snapshot: snap, Index: h.store.Cursor()}
}

// cancelPendingLocked stops the debounce timer.
func (h *History) cancelPendingLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.timerGen++
}

// pushLocked captures the surface and pushes it into the store.
func (h *History) pushLocked() (Snapshot, bool) {
	snap := h.captureLocked()
	if !h.store.Push(snap) {
		h.logger.Debug("duplicate snapshot skipped")
		return snap, false
	}

	h.lastPush = snap.Timestamp
	h.hasPushed = true
	h.logger.Debug("snapshot recorded",
		slog.Int("index", h.store.Cursor()),
		slog.Int("len", h.store.Len()),
		slog.Int("sel_start", snap.Selection.Start),
		slog.Int("sel_end", snap.Selection.End))
	return snap, true
}

// captureLocked reads the surface into a new snapshot. Timer callbacks
// land here off the host goroutine, so the tree is only read through Read.
func (h *History) captureLocked() Snapshot {
	var (
		content string
		sel     Selection
	)
	h.surface.Read(func(root *html.Node, r surface.Range, ok bool) {
		if ok {
			sel = Capture(root, r)
		}
		content = surface.Render(root)
	})
	return NewSnapshot(content, sel, h.clock.Now())
}
