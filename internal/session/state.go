package session

import (
	"encoding/json"
	"time"
)

// Phase is the lifecycle position of a realtime session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingRegistration
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingRegistration:
		return "awaiting_registration"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// InvocationResult is the outcome of the most recent successful tool call.
type InvocationResult struct {
	ToolName string
	CallID   string
	Output   json.RawMessage
	At       time.Time
}

// State is the per-session bookkeeping. The zero value is an idle session.
type State struct {
	Phase      Phase
	Registered bool
	LastResult *InvocationResult

	// handled holds call IDs already dispatched in this session. It is
	// copied on write so a State value can be shared safely.
	handled map[string]struct{}
}

// Live reports whether tool calls are processed in this state.
func (s State) Live() bool {
	return s.Phase == PhaseAwaitingRegistration || s.Phase == PhaseActive
}

// Handled reports whether callID was already dispatched in this session.
func (s State) Handled(callID string) bool {
	_, ok := s.handled[callID]
	return ok
}

func (s State) withHandled(callID string) State {
	next := make(map[string]struct{}, len(s.handled)+1)
	for id := range s.handled {
		next[id] = struct{}{}
	}
	next[callID] = struct{}{}
	s.handled = next
	return s
}

// markRegistered records a delivered registration.
func markRegistered(s State) State {
	s.Registered = true
	s.Phase = PhaseActive
	return s
}
