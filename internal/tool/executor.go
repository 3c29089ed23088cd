package tool

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType classifies tool invocation failures.
type ErrorType int

const (
	ErrorUnknownTool ErrorType = iota + 1
	ErrorHandlerFailed
)

func (t ErrorType) String() string {
	switch t {
	case ErrorUnknownTool:
		return "unknown_tool"
	case ErrorHandlerFailed:
		return "handler_failed"
	default:
		return "unknown"
	}
}

// ToolError is returned by Executor.Invoke.
type ToolError struct {
	Type    ErrorType
	Tool    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Tool)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsUnknownTool reports whether err is an ErrorUnknownTool ToolError.
func IsUnknownTool(err error) bool {
	var te *ToolError
	return errors.As(err, &te) && te.Type == ErrorUnknownTool
}

// Executor looks up and runs tools from a registry.
type Executor struct {
	registry *Registry
}

// NewExecutor creates an executor bound to a registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Invoke runs the tool named by call exactly once. It never retries and never
// lets a handler panic escape.
func (e *Executor) Invoke(ctx context.Context, call Call) (res *Result, err error) {
	t, lookupErr := e.registry.Get(call.Name)
	if lookupErr != nil {
		return nil, &ToolError{Type: ErrorUnknownTool, Tool: call.Name, Err: lookupErr}
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &ToolError{Type: ErrorHandlerFailed, Tool: call.Name, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	args := call.Arguments
	if len(args) == 0 {
		args = []byte("{}")
	}

	res, err = t.Execute(ctx, args)
	switch {
	case err != nil:
		return nil, &ToolError{Type: ErrorHandlerFailed, Tool: call.Name, Message: err.Error(), Err: err}
	case res == nil:
		return nil, &ToolError{Type: ErrorHandlerFailed, Tool: call.Name, Message: "handler returned no result"}
	case res.IsError:
		return res, &ToolError{Type: ErrorHandlerFailed, Tool: call.Name, Message: res.Error}
	}
	return res, nil
}

// Narration returns the continuation instruction for a finished call.
func (e *Executor) Narration(name string, res *Result) string {
	t, err := e.registry.Get(name)
	if err == nil {
		if n, ok := t.(Narrator); ok {
			return n.Narrate(res)
		}
	}
	return DefaultNarration(name, res)
}
