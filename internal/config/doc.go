// Package config loads inkwell's settings.
//
// Settings are resolved in layers, later layers overriding earlier ones:
//
//	┌──────────────────────────────┐
//	│  3. Environment (INKWELL_*)  │  ← Highest priority
//	├──────────────────────────────┤
//	│  2. Config file (TOML/YAML)  │
//	├──────────────────────────────┤
//	│  1. Built-in defaults        │  ← Lowest priority
//	└──────────────────────────────┘
//
// A file may set any subset of keys. Durations are Go duration strings:
//
//	[history]
//	capacity = 200
//	debounce = "300ms"
//
//	[editor.shortcuts]
//	"Alt+U" = "undo"
//
// Load validates the merged result. A Reloader watches the file and hands
// every successfully reloaded Config to its subscribers; a file that fails
// to load or validate is logged and the previous Config is kept.
package config
