package history

import (
	"log/slog"
	"time"

	"github.com/dshills/inkwell/internal/notify"
)

// Default timing values.
const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultMinInterval = 500 * time.Millisecond
	DefaultSettleDelay = 100 * time.Millisecond
)

// Notification topics published by History.
const (
	TopicRestored = "history.restored"
	TopicRecorded = "history.recorded"
	TopicCleared  = "history.cleared"
)

// Settings holds the tunable history parameters.
type Settings struct {
	// Capacity is the maximum number of snapshots kept.
	Capacity int

	// Debounce is the quiet period that coalesces Record calls.
	Debounce time.Duration

	// MinInterval is the minimum time between a successful push and the
	// next coalesced push.
	MinInterval time.Duration

	// SettleDelay is used when the surface gives no completion signal.
	SettleDelay time.Duration
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		Capacity:    DefaultCapacity,
		Debounce:    DefaultDebounce,
		MinInterval: DefaultMinInterval,
		SettleDelay: DefaultSettleDelay,
	}
}

// normalize replaces invalid values with defaults.
func (s Settings) normalize() Settings {
	if s.Capacity <= 0 {
		s.Capacity = DefaultCapacity
	}
	if s.Debounce < 0 {
		s.Debounce = DefaultDebounce
	}
	if s.MinInterval < 0 {
		s.MinInterval = DefaultMinInterval
	}
	if s.SettleDelay < 0 {
		s.SettleDelay = DefaultSettleDelay
	}
	return s
}

// RestoredEvent is the payload of TopicRestored.
type RestoredEvent struct {
	Snapshot  Snapshot
	Index     int
	Direction string // "undo", "redo" or "jump"
}

// RecordedEvent is the payload of TopicRecorded.
type RecordedEvent struct {
	Snapshot  Snapshot
	Index     int
	Immediate bool
}

// Option configures a History during creation.
type Option func(*History)

// WithSettings replaces all tunable settings.
func WithSettings(s Settings) Option {
	return func(h *History) {
		h.settings = s.normalize()
	}
}

// WithCapacity sets the maximum number of snapshots.
func WithCapacity(capacity int) Option {
	return func(h *History) {
		if capacity > 0 {
			h.settings.Capacity = capacity
		}
	}
}

// WithDebounce sets the coalescing quantum for Record.
func WithDebounce(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.settings.Debounce = d
		}
	}
}

// WithMinInterval sets the minimum interval between coalesced pushes.
func WithMinInterval(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.settings.MinInterval = d
		}
	}
}

// WithSettleDelay sets the fallback settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.settings.SettleDelay = d
		}
	}
}

// WithClock sets the clock used for timestamps and timers.
func WithClock(c Clock) Option {
	return func(h *History) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithNotifier publishes history events to n.
func WithNotifier(n *notify.Notifier) Option {
	return func(h *History) {
		h.notifier = n
	}
}

// WithSource sets the Source of published events.
func WithSource(source string) Option {
	return func(h *History) {
		h.source = source
	}
}
