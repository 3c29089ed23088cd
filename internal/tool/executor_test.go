package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestExecutorUnknownTool(t *testing.T) {
	known := &mockTool{name: "known"}
	r := NewRegistry()
	r.MustRegister(known)
	ex := NewExecutor(r)

	res, err := ex.Invoke(context.Background(), Call{Name: "unknown_tool"})
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
	if !IsUnknownTool(err) {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
	if known.calls != 0 {
		t.Fatalf("no handler should run, got %d calls", known.calls)
	}
}

func TestExecutorInvokesOnce(t *testing.T) {
	m := &mockTool{name: "once"}
	r := NewRegistry()
	r.MustRegister(m)

	res, err := NewExecutor(r).Invoke(context.Background(), Call{Name: "once", Arguments: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if m.calls != 1 {
		t.Fatalf("expected 1 call, got %d", m.calls)
	}
	if !strings.Contains(string(res.Output), "once") {
		t.Fatalf("unexpected output %s", res.Output)
	}
}

func TestExecutorHandlerFailures(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]func(context.Context, json.RawMessage) (*Result, error){
		"go_error":     func(context.Context, json.RawMessage) (*Result, error) { return nil, boom },
		"error_result": func(context.Context, json.RawMessage) (*Result, error) { return ErrorResult("bad args"), nil },
		"nil_result":   func(context.Context, json.RawMessage) (*Result, error) { return nil, nil },
		"panic":        func(context.Context, json.RawMessage) (*Result, error) { panic("kaboom") },
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			r := NewRegistry()
			r.MustRegister(&Func{ToolName: name, Handler: handler})

			_, err := NewExecutor(r).Invoke(context.Background(), Call{Name: name})
			var te *ToolError
			if !errors.As(err, &te) {
				t.Fatalf("expected ToolError, got %v", err)
			}
			if te.Type != ErrorHandlerFailed {
				t.Fatalf("expected handler_failed, got %s", te.Type)
			}
		})
	}
}

func TestExecutorWrapsHandlerError(t *testing.T) {
	sentinel := errors.New("disk gone")
	r := NewRegistry()
	r.MustRegister(&Func{ToolName: "io", Handler: func(context.Context, json.RawMessage) (*Result, error) {
		return nil, sentinel
	}})

	_, err := NewExecutor(r).Invoke(context.Background(), Call{Name: "io"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestExecutorDefaultsEmptyArguments(t *testing.T) {
	var got json.RawMessage
	r := NewRegistry()
	r.MustRegister(&Func{ToolName: "args", Handler: func(_ context.Context, args json.RawMessage) (*Result, error) {
		got = args
		return JSONResult(nil)
	}})

	if _, err := NewExecutor(r).Invoke(context.Background(), Call{Name: "args"}); err != nil {
		t.Fatal(err)
	}
	if string(got) != "{}" {
		t.Fatalf("expected {}, got %q", got)
	}
}

func TestExecutorNarration(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewExerciseTool([]string{"Count backwards from 100 by sevens."}, func(int) int { return 0 }))
	r.MustRegister(&mockTool{name: "plain"})
	ex := NewExecutor(r)

	res, err := ex.Invoke(context.Background(), Call{Name: "propose_brain_exercise"})
	if err != nil {
		t.Fatal(err)
	}
	got := ex.Narration("propose_brain_exercise", res)
	if !strings.Contains(got, "encourage them to try it") || !strings.Contains(got, "sevens") {
		t.Fatalf("unexpected narration %q", got)
	}

	plain := ex.Narration("plain", &Result{Output: json.RawMessage(`{"x":1}`)})
	if !strings.Contains(plain, `{"x":1}`) {
		t.Fatalf("default narration should embed output, got %q", plain)
	}
}
