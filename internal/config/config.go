package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/input/shortcut"
	"github.com/dshills/inkwell/internal/logging"
	"github.com/dshills/inkwell/internal/plugin/lua"
)

// Config is the complete inkwell configuration.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history"`
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// HistoryConfig tunes the undo history.
type HistoryConfig struct {
	Capacity    int      `toml:"capacity" yaml:"capacity"`
	Debounce    Duration `toml:"debounce" yaml:"debounce"`
	MinInterval Duration `toml:"minInterval" yaml:"minInterval"`
	SettleDelay Duration `toml:"settleDelay" yaml:"settleDelay"`
}

// EditorConfig holds shortcut overrides and scripted commands.
type EditorConfig struct {
	// Shortcuts maps key specs like "Ctrl+Z" to "undo", "redo" or "none".
	Shortcuts map[string]string `toml:"shortcuts" yaml:"shortcuts"`

	// Scripts maps command names to Lua source.
	Scripts map[string]string `toml:"scripts" yaml:"scripts"`

	// ScriptTimeout bounds a single script run.
	ScriptTimeout Duration `toml:"scriptTimeout" yaml:"scriptTimeout"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			Capacity:    history.DefaultCapacity,
			Debounce:    Duration(history.DefaultDebounce),
			MinInterval: Duration(history.DefaultMinInterval),
			SettleDelay: Duration(history.DefaultSettleDelay),
		},
		Editor: EditorConfig{
			ScriptTimeout: Duration(lua.DefaultExecutionTimeout),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// HistorySettings converts the history section for History.Apply.
func (c Config) HistorySettings() history.Settings {
	return history.Settings{
		Capacity:    c.History.Capacity,
		Debounce:    c.History.Debounce.Std(),
		MinInterval: c.History.MinInterval.Std(),
		SettleDelay: c.History.SettleDelay.Std(),
	}
}

// LogConfig converts the logging section. Call Validate first; invalid
// values fall back to defaults.
func (c Config) LogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		cfg.Level = level
	}
	if format, err := logging.ParseFormat(c.Logging.Format); err == nil {
		cfg.Format = format
	}
	return cfg
}

// Validate checks every setting and returns all failures joined.
func (c Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if c.History.Capacity < 1 {
		fail("history.capacity", "must be at least 1", c.History.Capacity)
	}
	durations := []struct {
		path string
		d    Duration
	}{
		{"history.debounce", c.History.Debounce},
		{"history.minInterval", c.History.MinInterval},
		{"history.settleDelay", c.History.SettleDelay},
		{"editor.scriptTimeout", c.Editor.ScriptTimeout},
	}
	for _, d := range durations {
		if d.d < 0 {
			fail(d.path, "must not be negative", d.d)
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		fail("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		fail("logging.format", "must be text or json", c.Logging.Format)
	}

	for spec, action := range c.Editor.Shortcuts {
		path := "editor.shortcuts." + spec
		if _, err := shortcut.ParseBinding(spec); err != nil {
			fail(path, err.Error(), spec)
		}
		if action != "none" {
			if _, err := shortcut.ParseAction(action); err != nil {
				fail(path, "action must be undo, redo or none", action)
			}
		}
	}

	for name, src := range c.Editor.Scripts {
		if name == "" {
			fail("editor.scripts", "command name must not be empty", src)
		}
	}

	return errors.Join(errs...)
}

// Duration is a time.Duration read from a Go duration string.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the Go duration string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}
