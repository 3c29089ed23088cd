package realtime

import "brainvoice/internal/tool"

// Outbound event types.
const (
	TypeSessionUpdate  = "session.update"
	TypeResponseCreate = "response.create"
)

// SessionUpdate registers the client's tools with the backend.
type SessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// SessionConfig is the session payload of a SessionUpdate.
type SessionConfig struct {
	Tools      []tool.Definition `json:"tools"`
	ToolChoice string            `json:"tool_choice"`
}

// ResponseCreate asks the backend to produce another response.
type ResponseCreate struct {
	Type     string         `json:"type"`
	Response ResponseConfig `json:"response"`
}

// ResponseConfig carries the instruction for a continuation.
type ResponseConfig struct {
	Instructions string `json:"instructions"`
}

// NewSessionUpdate builds the registration event. An empty toolChoice means "auto".
func NewSessionUpdate(defs []tool.Definition, toolChoice string) SessionUpdate {
	if toolChoice == "" {
		toolChoice = "auto"
	}
	if defs == nil {
		defs = []tool.Definition{}
	}
	return SessionUpdate{
		Type:    TypeSessionUpdate,
		Session: SessionConfig{Tools: defs, ToolChoice: toolChoice},
	}
}

// NewResponseCreate builds a continuation event.
func NewResponseCreate(instructions string) ResponseCreate {
	return ResponseCreate{
		Type:     TypeResponseCreate,
		Response: ResponseConfig{Instructions: instructions},
	}
}
