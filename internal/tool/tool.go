package tool

import (
	"context"
	"encoding/json"
)

// Tool is the interface for functions the realtime backend may call.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
	Execute(ctx context.Context, args json.RawMessage) (*Result, error)
}

// Narrator is implemented by tools that want to phrase their own
// follow-up instruction once a result is ready.
type Narrator interface {
	Narrate(res *Result) string
}

// Result is the output of a tool execution.
type Result struct {
	Output  json.RawMessage `json:"output,omitempty"`
	Error   string          `json:"error,omitempty"`
	IsError bool            `json:"is_error"`
}

// JSONResult marshals v into a successful Result.
func JSONResult(v any) (*Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Result{Output: data}, nil
}

// ErrorResult reports a handled failure, e.g. malformed arguments.
func ErrorResult(msg string) *Result {
	return &Result{Error: msg, IsError: true}
}

// Definition is the wire shape of a tool inside the registration event.
type Definition struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Call is a backend request to run a tool.
type Call struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Func adapts a plain handler into a Tool.
type Func struct {
	ToolName        string
	ToolDescription string
	Schema          json.RawMessage
	Handler         func(ctx context.Context, args json.RawMessage) (*Result, error)
	Narration       func(res *Result) string
}

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

func (f *Func) Name() string        { return f.ToolName }
func (f *Func) Description() string { return f.ToolDescription }

func (f *Func) Parameters() json.RawMessage {
	if len(f.Schema) == 0 {
		return emptyObjectSchema
	}
	return f.Schema
}

func (f *Func) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	return f.Handler(ctx, args)
}

func (f *Func) Narrate(res *Result) string {
	if f.Narration == nil {
		return DefaultNarration(f.ToolName, res)
	}
	return f.Narration(res)
}

// DefaultNarration builds the continuation instruction for tools without a Narrator.
func DefaultNarration(name string, res *Result) string {
	if res == nil || len(res.Output) == 0 {
		return "The " + name + " tool finished. Let the user know and continue the conversation."
	}
	return "The " + name + " tool returned " + string(res.Output) + ". Share this result with the user in a natural, spoken way."
}
