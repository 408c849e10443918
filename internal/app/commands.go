package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/inkwell/internal/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/input/shortcut"
)

// ErrUsage reports a malformed session command.
var ErrUsage = errors.New("usage")

// Help lists the commands understood by Exec.
const Help = `commands:
  type <text>        insert text at the selection
  select <s> <e>     select plain-text offsets s..e
  run <name>         run a registered command (bold, italic, underline, scripts)
  commands           list registered commands
  undo | redo        step through history
  jump <n>           restore version n
  key <spec>         press a shortcut such as Ctrl+Z
  history            list versions
  flush              record pending typing now
  show               print the document
  save [path]        write the document
  clear              drop all versions but the current one
  quit               exit`

// Exec runs one line-oriented session command and writes its output to w.
// It returns ErrQuit for "quit".
func (s *Session) Exec(ctx context.Context, line string, w io.Writer) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	args := strings.Fields(rest)

	switch strings.ToLower(verb) {
	case "":
		return nil
	case "help", "?":
		fmt.Fprintln(w, Help)
	case "quit", "exit":
		return ErrQuit

	case "type":
		if rest == "" {
			return fmt.Errorf("%w: type <text>", ErrUsage)
		}
		return s.Type(rest)

	case "select":
		if len(args) != 2 {
			return fmt.Errorf("%w: select <start> <end>", ErrUsage)
		}
		start, err1 := strconv.Atoi(args[0])
		end, err2 := strconv.Atoi(args[1])
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("%w: select <start> <end>: %v", ErrUsage, err)
		}
		command.SelectFlat(s.doc, history.Selection{Start: start, End: end})

	case "run":
		if len(args) != 1 {
			return fmt.Errorf("%w: run <name>", ErrUsage)
		}
		out, err := s.Run(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)

	case "commands":
		fmt.Fprintln(w, strings.Join(s.executor.Names(), " "))

	case "undo":
		fmt.Fprintln(w, s.Undo())
	case "redo":
		fmt.Fprintln(w, s.Redo())

	case "jump":
		if len(args) != 1 {
			return fmt.Errorf("%w: jump <index>", ErrUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: jump <index>: %v", ErrUsage, err)
		}
		fmt.Fprintln(w, s.history.Jump(n))

	case "key":
		b, err := shortcut.ParseBinding(rest)
		if err != nil {
			return err
		}
		out, handled := s.HandleKey(b.Event())
		if !handled {
			fmt.Fprintf(w, "%s is not bound\n", b)
			return nil
		}
		fmt.Fprintln(w, out)

	case "history":
		for _, e := range s.history.GetHistory() {
			marker := " "
			if e.Current {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %2d  %s  %s\n", marker, e.Index, e.Timestamp.Format("15:04:05.000"), e.Summary)
		}

	case "flush":
		fmt.Fprintln(w, s.history.Flush())

	case "show":
		fmt.Fprintln(w, s.doc.Content())

	case "save":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return s.Save(path)

	case "clear":
		fmt.Fprintln(w, s.history.Clear())

	default:
		return fmt.Errorf("%w: unknown command %q, try help", ErrUsage, verb)
	}
	return nil
}
