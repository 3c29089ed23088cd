package session

import (
	"brainvoice/internal/realtime"
	"brainvoice/internal/tool"
)

// ActionKind names a side effect requested by Reduce.
type ActionKind int

const (
	// ActionRegister asks for the tool registration event to be sent.
	ActionRegister ActionKind = iota + 1
	// ActionInvoke asks for a known tool to be run.
	ActionInvoke
	// ActionReject reports a call to a tool that is not registered.
	ActionReject
)

func (k ActionKind) String() string {
	switch k {
	case ActionRegister:
		return "register"
	case ActionInvoke:
		return "invoke"
	case ActionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Action is a side effect for the controller to perform.
type Action struct {
	Kind ActionKind
	Call tool.Call
}

// Reduce folds one inbound event into the state. It performs no I/O;
// known reports whether a tool name is registered.
//
// Events must be fed exactly once, in arrival order.
func Reduce(s State, ev realtime.Event, known func(name string) bool) (State, []Action) {
	switch e := ev.(type) {
	case realtime.SessionCreated:
		if s.Phase == PhaseIdle {
			s = State{Phase: PhaseAwaitingRegistration}
		}
		if s.Registered {
			return s, nil
		}
		return s, []Action{{Kind: ActionRegister}}

	case realtime.ResponseDone:
		if !s.Live() {
			return s, nil
		}
		var actions []Action
		for _, fc := range e.FunctionCalls() {
			if fc.CallID != "" {
				if s.Handled(fc.CallID) {
					continue
				}
				s = s.withHandled(fc.CallID)
			}
			call := tool.Call{ID: fc.CallID, Name: fc.Name, Arguments: fc.Arguments}
			if known(fc.Name) {
				actions = append(actions, Action{Kind: ActionInvoke, Call: call})
			} else {
				actions = append(actions, Action{Kind: ActionReject, Call: call})
			}
		}
		return s, actions

	default:
		return s, nil
	}
}
