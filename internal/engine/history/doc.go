// Package history provides undo/redo for a rich-text editing surface.
//
// The history system records whole-surface snapshots rather than inverse
// operations. Each snapshot holds the serialized markup plus the selection
// expressed as flat character offsets, so it stays meaningful after the
// surface has been rebuilt from markup. Key concepts:
//
// # Snapshot Store
//
// Store is a bounded version stack with a single cursor:
//   - Pushing while the cursor is not at the tail discards the redo tail
//   - Pushing past capacity evicts the oldest entry
//   - Pushing content identical to the current entry is a no-op
//
// # Offset Mapping
//
// Capture turns a live selection into flat offsets over the plain-text
// projection of the surface. Resolve maps offsets back onto a (possibly
// rebuilt) tree. A boundary sitting exactly between two text nodes binds to
// the end of the earlier one.
//
// # Recording
//
//	h := history.New(doc)
//
//	// Free typing: debounced, throttled
//	h.Record()
//
//	// Programmatic commands: synchronous, bracketed
//	h.RecordImmediate()
//	// ... apply command ...
//	h.RecordImmediate()
//
// # Restoring
//
// Undo and Redo move the cursor, replace the surface content, re-resolve the
// selection and suppress recording until the surface signals that the
// replacement has settled. Every operation reports an Outcome instead of an
// error; nothing in this package fails the host editor.
package history
