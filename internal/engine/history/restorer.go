package history

import (
	"log/slog"
)

// restore moves the cursor with move and applies the target snapshot.
//
// Recording is suppressed from the moment the cursor moves until the surface
// signals that the replacement has settled. Any pending coalesced record is
// flushed first, ignoring the debounce quantum and MinInterval, so the edits
// it covers can be redone.
func (h *History) restore(direction string, move func(*Store) (Snapshot, bool)) Outcome {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Closed
	}

	_, flushed := h.flushLocked()

	snap, ok := move(h.store)
	if !ok {
		h.mu.Unlock()
		if flushed != nil {
			h.publish(TopicRecorded, *flushed)
		}
		return Noop
	}

	h.restoreSeq++
	seq := h.restoreSeq
	h.restoring = true
	if h.settleTimer != nil {
		h.settleTimer.Stop()
		h.settleTimer = nil
	}
	index := h.store.Cursor()
	s := h.surface
	h.mu.Unlock()

	if flushed != nil {
		h.publish(TopicRecorded, *flushed)
	}

	// Surface writes happen unlocked: change listeners may call Record,
	// which sees restoring and drops the call.
	done := s.ReplaceContent(snap.Content)
	root := s.Root()
	if r, ok := Resolve(root, snap.Selection); ok {
		s.Select(r)
	} else {
		s.Select(CaretAtStart(root))
	}

	h.awaitSettle(seq, done)

	h.logger.Debug("snapshot restored",
		slog.String("direction", direction),
		slog.Int("index", index),
		slog.Int("sel_start", snap.Selection.Start),
		slog.Int("sel_end", snap.Selection.End))

	h.publish(TopicRestored, RestoredEvent{Snapshot: snap, Index: index, Direction: direction})
	return Applied
}

// awaitSettle leaves the restoring state once done is closed. A nil channel
// means the surface has no completion signal; the settle delay is used
// instead.
func (h *History) awaitSettle(seq uint64, done <-chan struct{}) {
	if done == nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed || seq != h.restoreSeq {
			return
		}
		h.settleTimer = h.clock.AfterFunc(h.settings.SettleDelay, func() {
			h.endRestore(seq)
		})
		return
	}

	select {
	case <-done:
		h.endRestore(seq)
		return
	default:
	}

	go func() {
		select {
		case <-done:
			h.endRestore(seq)
		case <-h.done:
		}
	}()
}

// endRestore clears the restoring flag if seq is still the latest restore.
func (h *History) endRestore(seq uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if seq != h.restoreSeq {
		return
	}
	h.restoring = false
	h.settleTimer = nil
}
