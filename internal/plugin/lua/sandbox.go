package lua

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// builtinModules are the libraries require may hand out.
var builtinModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	mu      sync.RWMutex
	modules map[string]bool
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		L:       L,
		modules: make(map[string]bool),
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	dangerousFuncs := []string{
		"dofile",     // Load and execute file
		"loadfile",   // Load file as function
		"load",       // Load string as function
		"loadstring", // Load string as function
	}

	for _, name := range dangerousFuncs {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installSafeRequire()
}

// Allowed reports whether require may load the named module.
func (s *Sandbox) Allowed(name string) bool {
	if builtinModules[name] {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modules[name]
}

func (s *Sandbox) allow(name string) {
	s.mu.Lock()
	s.modules[name] = true
	s.mu.Unlock()
}

// installSafeRequire replaces require with a version that only loads
// built-in libraries and preloaded modules, never files from disk.
func (s *Sandbox) installSafeRequire() {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	s.L.SetField(pkg, "path", lua.LString(""))
	s.L.SetField(pkg, "cpath", lua.LString(""))

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)
		if !s.Allowed(modName) {
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}
