// Package shortcut routes undo/redo keyboard shortcuts to a history.
package shortcut

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/engine/history"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty shortcut specification")
	ErrInvalidSpec = errors.New("invalid shortcut specification")
)

// Action is what a shortcut does.
type Action int

const (
	None Action = iota
	Undo
	Redo
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Undo:
		return "undo"
	case Redo:
		return "redo"
	default:
		return "none"
	}
}

// ParseAction parses an action name.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "undo":
		return Undo, nil
	case "redo":
		return Redo, nil
	}
	return None, fmt.Errorf("unknown action %q", s)
}

// Target receives routed actions.
type Target interface {
	Undo() history.Outcome
	Redo() history.Outcome
}

// Binding is a normalized key chord: a lower-case letter plus modifiers.
type Binding struct {
	Rune rune
	Mod  tcell.ModMask
}

// String returns the canonical "Ctrl+Shift+Z" form.
func (b Binding) String() string {
	var sb strings.Builder
	if b.Mod&tcell.ModCtrl != 0 {
		sb.WriteString("Ctrl+")
	}
	if b.Mod&tcell.ModAlt != 0 {
		sb.WriteString("Alt+")
	}
	if b.Mod&tcell.ModMeta != 0 {
		sb.WriteString("Meta+")
	}
	if b.Mod&tcell.ModShift != 0 {
		sb.WriteString("Shift+")
	}
	sb.WriteRune(unicode.ToUpper(b.Rune))
	return sb.String()
}

// Event synthesizes the key event a terminal would deliver for b.
func (b Binding) Event() *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, b.Rune, b.Mod)
}

// ParseBinding parses specs like "Ctrl+Z", "Ctrl+Shift+Z" or "Meta+y".
// A shortcut needs at least one of Ctrl, Alt or Meta.
func ParseBinding(spec string) (Binding, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Binding{}, ErrEmptySpec
	}

	parts := strings.Split(spec, "+")
	keyPart := parts[len(parts)-1]
	runes := []rune(keyPart)
	if len(runes) != 1 || !unicode.IsLetter(runes[0]) {
		return Binding{}, fmt.Errorf("%w: key %q in %q", ErrInvalidSpec, keyPart, spec)
	}

	b := Binding{Rune: unicode.ToLower(runes[0])}
	for _, m := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "ctrl", "control", "c":
			b.Mod |= tcell.ModCtrl
		case "alt", "option", "a":
			b.Mod |= tcell.ModAlt
		case "meta", "cmd", "super", "m":
			b.Mod |= tcell.ModMeta
		case "shift", "s":
			b.Mod |= tcell.ModShift
		default:
			return Binding{}, fmt.Errorf("%w: modifier %q in %q", ErrInvalidSpec, m, spec)
		}
	}
	if b.Mod&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
		return Binding{}, fmt.Errorf("%w: %q has no command modifier", ErrInvalidSpec, spec)
	}
	return b, nil
}

// FromEvent normalizes a key event. Control-key codes and upper-case
// letters are folded into a lower-case rune plus modifiers.
func FromEvent(ev *tcell.EventKey) (Binding, bool) {
	mod := ev.Modifiers()
	var r rune

	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		r = ev.Rune()
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		r = 'a' + rune(k-tcell.KeyCtrlA)
		if unicode.IsUpper(ev.Rune()) {
			r = ev.Rune()
		}
		mod |= tcell.ModCtrl
	case k >= tcell.KeySOH && k <= tcell.KeySUB && mod&tcell.ModCtrl != 0:
		// raw control characters from a terminal
		r = 'a' + rune(k-tcell.KeySOH)
	default:
		return Binding{}, false
	}

	if !unicode.IsLetter(r) {
		return Binding{}, false
	}
	if unicode.IsUpper(r) {
		mod |= tcell.ModShift
		r = unicode.ToLower(r)
	}
	return Binding{Rune: r, Mod: mod}, true
}

// DefaultBindings maps the platform undo/redo shortcuts.
func DefaultBindings() map[string]Action {
	return map[string]Action{
		"Ctrl+Z":       Undo,
		"Meta+Z":       Undo,
		"Ctrl+Shift+Z": Redo,
		"Meta+Shift+Z": Redo,
		"Ctrl+Y":       Redo,
		"Meta+Y":       Redo,
	}
}

// Router maps key events to actions on a Target.
type Router struct {
	mu       sync.RWMutex
	bindings map[Binding]Action

	target Target
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a router for t with the default bindings.
func NewRouter(t Target, opts ...Option) *Router {
	r := &Router{
		bindings: make(map[Binding]Action),
		target:   t,
		logger:   slog.New(slog.DiscardHandler),
	}
	for spec, a := range DefaultBindings() {
		// Default specs are known to parse.
		b, _ := ParseBinding(spec)
		r.bindings[b] = a
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind maps spec to a. Binding None removes the shortcut.
func (r *Router) Bind(spec string, a Action) error {
	b, err := ParseBinding(spec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a == None {
		delete(r.bindings, b)
		return nil
	}
	r.bindings[b] = a
	return nil
}

// Lookup returns the action bound to ev.
func (r *Router) Lookup(ev *tcell.EventKey) Action {
	b, ok := FromEvent(ev)
	if !ok {
		return None
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bindings[b]
}

// HandleEvent routes ev. It reports false when ev is not a bound shortcut,
// so the caller can pass it on as ordinary input.
func (r *Router) HandleEvent(ev tcell.Event) (history.Outcome, bool) {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return history.Noop, false
	}

	var out history.Outcome
	switch a := r.Lookup(kev); a {
	case Undo:
		out = r.target.Undo()
	case Redo:
		out = r.target.Redo()
	default:
		return history.Noop, false
	}

	r.logger.Debug("shortcut routed",
		slog.String("key", kev.Name()),
		slog.String("outcome", out.String()))
	return out, true
}
