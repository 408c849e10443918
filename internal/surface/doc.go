// Package surface provides the editable document model used by the editor.
//
// A Document holds a root element whose children are the serialized markup
// the user edits. Content is parsed and rendered with golang.org/x/net/html,
// so replacing content rebuilds the node tree: node identities from before a
// replacement are never valid afterwards.
//
// # Selections
//
// A Boundary is a DOM-style point: a container node plus an offset. For text
// nodes the offset counts runes into the node's data; for element nodes it is
// a child index. A Range is an ordered pair of boundaries.
//
// # Completion Signals
//
// ReplaceContent and Mutate return a channel that is closed once the
// mutation has propagated to every change listener. Callers that must not
// observe their own mutation (the history engine, the command layer) wait on
// it instead of guessing a settle delay.
package surface
