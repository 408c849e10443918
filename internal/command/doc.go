// Package command applies named edits to an editing surface.
//
// Every command run through an Executor is bracketed by two immediate
// history records: one before Apply, and one after the command's completion
// signal fires (or after the history's settle delay when the command gives
// none). A single toolbar action therefore produces exactly one undo step,
// independent of whatever coalesced typing window is active.
//
// Built-in commands work in flat plain-text offsets so they behave the same
// regardless of how the surface's markup is nested:
//
//	exec := command.NewExecutor(doc, hist)
//	exec.Register(command.Bold())
//	exec.Run(ctx, "bold")
package command
