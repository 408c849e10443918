// Package lua hosts sandboxed gopher-lua states for user-scripted edit
// commands.
//
// A State opens only the base, table, string and math libraries, removes
// the file and chunk loaders, and restricts require to those libraries plus
// modules registered with PreloadModule. Every execution runs under a
// context bounded by the state's execution timeout:
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	state.RegisterFunc("text", textFn)
//	if err := state.DoString(ctx, script); err != nil {
//	    return err
//	}
//
// gopher-lua's LState is not goroutine-safe; State serializes access with a
// mutex, so Go functions registered on a State must not call back into it.
package lua
