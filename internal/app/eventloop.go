package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/notify"
	"github.com/dshills/inkwell/internal/renderer"
	"github.com/dshills/inkwell/internal/surface"
)

// Terminal key bindings outside the undo/redo shortcuts.
//
//	Ctrl+B  bold       Ctrl+E  italic     Ctrl+U  underline
//	Ctrl+S  save       Esc, Ctrl+Q  quit
//	arrows, Home, End move the caret; Shift extends the selection

// RunTerminal runs the interactive editor on t until quit or ctx is done.
// t must already be initialized.
func (s *Session) RunTerminal(ctx context.Context, t *renderer.Terminal) error {
	loop := &eventLoop{session: s, term: t}

	// Coalesced records land on timer goroutines; wake the loop to redraw.
	sub := s.notifier.SubscribeTopic(history.TopicRecorded, func(ev notify.Event) {
		if rec, ok := ev.Payload.(history.RecordedEvent); ok && !rec.Immediate {
			t.Wake(nil)
		}
	})
	defer sub.Unsubscribe()

	stop := context.AfterFunc(ctx, func() { t.Wake(ctx) })
	defer stop()

	for {
		loop.draw()
		if err := ctx.Err(); err != nil {
			return err
		}

		ev := t.PollEvent()
		if ev == nil {
			return nil
		}
		if err := loop.handle(ctx, ev); err != nil {
			return err
		}
	}
}

type eventLoop struct {
	session *Session
	term    *renderer.Terminal
	message string

	// direction of the selection, which the surface does not keep
	anchor, focus int
	tracked       bool
}

func (l *eventLoop) draw() {
	h := l.session.history
	status := renderer.Status{
		Version: h.Cursor() + 1,
		Count:   h.Len(),
		Path:    l.session.Path(),
		Message: l.message,
	}
	anchor, focus := l.ends()
	renderer.Draw(l.term, l.session.doc.Root(), history.Selection{Start: anchor, End: focus}, status)
}

func (l *eventLoop) handle(ctx context.Context, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		l.term.Sync()
	case *tcell.EventKey:
		return l.handleKey(ctx, ev)
	}
	return nil
}

func (l *eventLoop) handleKey(ctx context.Context, ev *tcell.EventKey) error {
	s := l.session

	if out, ok := s.HandleKey(ev); ok {
		l.message = fmt.Sprintf("%s: %s", s.router.Lookup(ev), out)
		return nil
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlQ:
		return ErrQuit
	case tcell.KeyCtrlB:
		l.run(ctx, command.NameBold)
	case tcell.KeyCtrlE:
		l.run(ctx, command.NameItalic)
	case tcell.KeyCtrlU:
		l.run(ctx, command.NameUnderline)
	case tcell.KeyCtrlS:
		if err := s.Save(""); err != nil {
			l.message = err.Error()
		} else {
			l.message = "saved"
		}
	case tcell.KeyLeft:
		l.move(-1, ev.Modifiers()&tcell.ModShift != 0)
	case tcell.KeyRight:
		l.move(1, ev.Modifiers()&tcell.ModShift != 0)
	case tcell.KeyHome:
		l.moveTo(0, ev.Modifiers()&tcell.ModShift != 0)
	case tcell.KeyEnd:
		l.moveTo(surface.PlainTextLen(s.doc.Root()), ev.Modifiers()&tcell.ModShift != 0)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		l.erase(-1)
	case tcell.KeyDelete:
		l.erase(1)
	case tcell.KeyEnter:
		l.typeText("\n")
	case tcell.KeyRune:
		l.typeText(string(ev.Rune()))
	}
	return nil
}

func (l *eventLoop) run(ctx context.Context, name string) {
	out, err := l.session.Run(ctx, name)
	if err != nil {
		l.message = err.Error()
		l.session.logger.Warn("command failed", slog.String("command", name), slog.String("error", err.Error()))
		return
	}
	l.message = fmt.Sprintf("%s: %s", name, out)
}

func (l *eventLoop) typeText(text string) {
	if err := l.session.Type(text); err != nil && !errors.Is(err, ErrClosed) {
		l.message = err.Error()
		return
	}
	l.message = ""
}

// erase deletes the selection, or one character in direction dir.
func (l *eventLoop) erase(dir int) {
	doc := l.session.doc
	sel := command.SelectionOf(doc)
	if sel.IsCollapsed() {
		n := surface.PlainTextLen(doc.Root())
		other := min(max(sel.Start+dir, 0), n)
		if other == sel.Start {
			return
		}
		sel = history.Selection{Start: min(sel.Start, other), End: max(sel.Start, other)}
		command.SelectFlat(doc, sel)
	}
	l.typeText("")
}

// ends returns the anchor and focus of the selection.
func (l *eventLoop) ends() (int, int) {
	sel := command.SelectionOf(l.session.doc)
	if l.tracked && min(l.anchor, l.focus) == sel.Start && max(l.anchor, l.focus) == sel.End {
		return l.anchor, l.focus
	}
	return sel.Start, sel.End
}

func (l *eventLoop) move(delta int, extend bool) {
	anchor, focus := l.ends()
	if !extend && anchor != focus {
		// collapse to the edge in the direction of travel
		edge := min(anchor, focus)
		if delta > 0 {
			edge = max(anchor, focus)
		}
		l.moveTo(edge, false)
		return
	}
	l.moveTo(focus+delta, extend)
}

func (l *eventLoop) moveTo(pos int, extend bool) {
	doc := l.session.doc
	anchor, focus := l.ends()
	pos = min(max(pos, 0), surface.PlainTextLen(doc.Root()))
	if extend {
		focus = pos
	} else {
		anchor, focus = pos, pos
	}
	l.anchor, l.focus, l.tracked = anchor, focus, true
	command.SelectFlat(doc, history.Selection{Start: min(anchor, focus), End: max(anchor, focus)})
}
