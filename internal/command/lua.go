package command

import (
	"context"
	"fmt"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/plugin/lua"
	"github.com/dshills/inkwell/internal/surface"
)

// LuaCommand runs a Lua script against the surface. Each run gets a fresh
// sandboxed state with these globals:
//
//	content()          serialized markup
//	set_content(m)     replace the markup
//	text()             plain text
//	selection()        flat start, end (caret at end of text if none)
//	select(s, e)       set the selection by flat offsets
//	insert(t)          replace the selection with t
//	wrap(tag)          wrap the selection in an inline tag (b, i, u, span...)
type LuaCommand struct {
	name   string
	script string
	opts   []lua.StateOption
}

// NewLuaCommand creates a command named name that runs script.
func NewLuaCommand(name, script string, opts ...lua.StateOption) *LuaCommand {
	return &LuaCommand{name: name, script: script, opts: opts}
}

// Name implements Command.
func (c *LuaCommand) Name() string { return c.name }

// Apply implements Command. The completion signal is the one returned by
// the script's last mutation.
func (c *LuaCommand) Apply(ctx context.Context, s surface.Editable) (<-chan struct{}, error) {
	state, err := lua.NewState(c.opts...)
	if err != nil {
		return nil, fmt.Errorf("lua command %s: %w", c.name, err)
	}
	defer state.Close()

	done := settled()
	track := func(ch <-chan struct{}) { done = ch }

	state.RegisterFunc("content", func(L *glua.LState) int {
		L.Push(glua.LString(s.Content()))
		return 1
	})
	state.RegisterFunc("set_content", func(L *glua.LState) int {
		track(s.ReplaceContent(L.CheckString(1)))
		return 0
	})
	state.RegisterFunc("text", func(L *glua.LState) int {
		L.Push(glua.LString(surface.PlainText(s.Root())))
		return 1
	})
	state.RegisterFunc("selection", func(L *glua.LState) int {
		sel := SelectionOf(s)
		L.Push(glua.LNumber(sel.Start))
		L.Push(glua.LNumber(sel.End))
		return 2
	})
	state.RegisterFunc("select", func(L *glua.LState) int {
		start := L.CheckInt(1)
		end := L.OptInt(2, start)
		if end < start {
			start, end = end, start
		}
		SelectFlat(s, history.Selection{Start: start, End: end})
		return 0
	})
	state.RegisterFunc("insert", func(L *glua.LState) int {
		track(Insert(s, L.CheckString(1)))
		return 0
	})
	state.RegisterFunc("wrap", func(L *glua.LState) int {
		tag := L.CheckString(1)
		if !IsInlineTag(tag) {
			L.ArgError(1, fmt.Sprintf("unsupported tag %q", tag))
			return 0
		}
		track(WrapSelection(s, tag))
		return 0
	})

	if err := state.DoString(ctx, c.script); err != nil {
		return nil, fmt.Errorf("lua command %s: %w", c.name, err)
	}
	return done, nil
}
