package tool

import (
	"context"
	"encoding/json"
	"testing"
)

// mockTool is a simple tool for testing.
type mockTool struct {
	name  string
	calls int
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return "test tool" }
func (m *mockTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}
func (m *mockTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	m.calls++
	return JSONResult(map[string]string{"executed": m.name})
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&mockTool{name: "test1"}, &mockTool{name: "test2"})

	tool, err := r.Get("test1")
	if err != nil {
		t.Fatal(err)
	}
	if tool.Name() != "test1" {
		t.Fatalf("expected test1, got %s", tool.Name())
	}
	if !r.Has("test2") {
		t.Fatal("expected test2 to be registered")
	}

	_, err = r.Get("nonexistent")
	if err == nil {
		t.Fatal("expected error for nonexistent tool")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockTool{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&mockTool{name: "dup"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 tool, got %d", r.Len())
	}
	if err := r.Register(&mockTool{name: ""}); err == nil {
		t.Fatal("expected empty name to fail")
	}
}

func TestRegistryMustRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	r := NewRegistry()
	r.MustRegister(&mockTool{name: "a"}, &mockTool{name: "a"})
}

func TestRegistryListKeepsOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		r.MustRegister(&mockTool{name: n})
	}

	tools := r.List()
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	for i, n := range names {
		if tools[i].Name() != n {
			t.Fatalf("position %d: expected %s, got %s", i, n, tools[i].Name())
		}
	}
}

func TestRegistryDefinitions(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewExerciseTool(nil, nil))
	r.MustRegister(&Func{ToolName: "bare", ToolDescription: "no schema"})

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "propose_brain_exercise" || defs[0].Type != "function" {
		t.Fatalf("unexpected first definition %+v", defs[0])
	}
	if string(defs[1].Parameters) != `{"type":"object","properties":{}}` {
		t.Fatalf("expected empty object schema, got %s", defs[1].Parameters)
	}

	data, err := json.Marshal(defs[0])
	if err != nil {
		t.Fatal(err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"type", "name", "description", "parameters"} {
		if _, ok := wire[key]; !ok {
			t.Fatalf("wire definition missing %q: %s", key, data)
		}
	}
}
