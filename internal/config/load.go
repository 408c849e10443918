package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INKWELL_"

// Format identifies a config file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load builds a Config from defaults, the file at path, and the
// environment, then validates it. An empty path or a missing file skips
// the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return Decode(path, bytes.NewReader(data), format, cfg)
}

// Decode reads one config document into cfg. Keys absent from the document
// keep their current values; unknown keys are rejected.
func Decode(source string, r io.Reader, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			perr := &ParseError{Path: source, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: source, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	return nil
}

// envSetter applies one environment value.
type envSetter func(cfg *Config, val string) error

// envMapping maps environment variables to settings.
var envMapping = map[string]envSetter{
	EnvPrefix + "HISTORY_CAPACITY": func(cfg *Config, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		cfg.History.Capacity = n
		return nil
	},
	EnvPrefix + "HISTORY_DEBOUNCE":     durationSetter(func(c *Config) *Duration { return &c.History.Debounce }),
	EnvPrefix + "HISTORY_MIN_INTERVAL": durationSetter(func(c *Config) *Duration { return &c.History.MinInterval }),
	EnvPrefix + "HISTORY_SETTLE_DELAY": durationSetter(func(c *Config) *Duration { return &c.History.SettleDelay }),
	EnvPrefix + "SCRIPT_TIMEOUT":       durationSetter(func(c *Config) *Duration { return &c.Editor.ScriptTimeout }),
	EnvPrefix + "LOG_LEVEL": func(cfg *Config, val string) error {
		cfg.Logging.Level = val
		return nil
	},
	EnvPrefix + "LOG_FORMAT": func(cfg *Config, val string) error {
		cfg.Logging.Format = val
		return nil
	},
}

func durationSetter(field func(*Config) *Duration) envSetter {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*field(cfg) = Duration(d)
		return nil
	}
}

// ApplyEnv overrides cfg from INKWELL_* environment variables.
// Empty values are treated as unset.
func ApplyEnv(cfg *Config) error {
	for name, set := range envMapping {
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if err := set(cfg, strings.TrimSpace(val)); err != nil {
			return &ParseError{Path: "$" + name, Message: err.Error(), Err: err}
		}
	}
	return nil
}

// Encode writes cfg in the given format.
func Encode(w io.Writer, cfg Config, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
}
