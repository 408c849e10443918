package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/plugin/lua"
	"github.com/dshills/inkwell/internal/surface"
)

func TestLuaCommand(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		script string
		want   string
	}{
		{"set content", "<p>hi</p>", `set_content("<p>" .. string.upper(text()) .. "</p>")`, "<p>HI</p>"},
		{"select and wrap", "hello world", `select(6, 11); wrap("i")`, "hello <i>world</i>"},
		{"insert at selection", "ab", `local s, e = selection(); select(0); insert(tostring(e))`, "2ab"},
		{"read only", "x", `local c = content()`, "x"},
		{"wrap strong", "hello", `select(0, 5); wrap("STRONG")`, "<strong>hello</strong>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := surface.MustDocument(tt.markup)
			cmd := NewLuaCommand(tt.name, tt.script)

			done, err := cmd.Apply(context.Background(), d)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			<-done

			if got := d.Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLuaCommandErrors(t *testing.T) {
	d := surface.MustDocument("x")

	if _, err := NewLuaCommand("bad", `error("nope")`).Apply(context.Background(), d); err == nil {
		t.Error("Apply() should fail on a Lua error")
	}

	if _, err := NewLuaCommand("io", `io.write("x")`).Apply(context.Background(), d); err == nil {
		t.Error("Apply() should fail without io")
	}

	for _, tag := range []string{"script", "style", "iframe"} {
		script := `select(0, 1); wrap("` + tag + `")`
		if _, err := NewLuaCommand("inject", script).Apply(context.Background(), d); err == nil {
			t.Errorf("wrap(%q) should fail", tag)
		}
	}
	if got := d.Content(); got != "x" {
		t.Errorf("Content() after rejected wraps = %q, want %q", got, "x")
	}

	slow := NewLuaCommand("spin", `while true do end`, lua.WithExecutionTimeout(20*time.Millisecond))
	if _, err := slow.Apply(context.Background(), d); !errors.Is(err, lua.ErrExecutionTimeout) {
		t.Errorf("Apply() error = %v, want ErrExecutionTimeout", err)
	}
}

func TestLuaCommandThroughExecutor(t *testing.T) {
	f := newFixture(t, "draft")
	f.exec.Register(NewLuaCommand("shout", `set_content(string.upper(content()))`))

	res, err := f.exec.Run(context.Background(), "shout")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out, _ := receive(t, res.After); out != history.Applied {
		t.Errorf("After = %v, want Applied", out)
	}

	f.hist.Undo()
	if got := f.doc.Content(); got != "draft" {
		t.Errorf("after undo Content() = %q, want %q", got, "draft")
	}
}
