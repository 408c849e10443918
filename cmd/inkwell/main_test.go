package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/inkwell/internal/app"
)

func TestREPL(t *testing.T) {
	s, err := app.New(app.Options{Content: "hello"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	in := strings.NewReader("select 0 5\nrun bold\nshow\nbogus\nquit\nshow\n")
	var out bytes.Buffer
	err = repl(context.Background(), s, in, &out)
	if !errors.Is(err, app.ErrQuit) {
		t.Fatalf("repl() error = %v, want ErrQuit", err)
	}

	got := out.String()
	if !strings.Contains(got, "<b>hello</b>") {
		t.Errorf("output missing bolded document:\n%s", got)
	}
	if !strings.Contains(got, "error: usage") {
		t.Errorf("output missing usage error:\n%s", got)
	}
	if strings.Count(got, "<b>hello</b>") != 1 {
		t.Errorf("commands after quit were executed:\n%s", got)
	}
}

func TestREPLEndOfInput(t *testing.T) {
	s, err := app.New(app.Options{Content: "a"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if err := repl(context.Background(), s, strings.NewReader("show\n"), &bytes.Buffer{}); err != nil {
		t.Errorf("repl() error = %v, want nil at EOF", err)
	}
}
