package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound event types this package understands.
const (
	TypeSessionCreated = "session.created"
	TypeResponseDone   = "response.done"
	TypeError          = "error"
)

// Event is an inbound realtime event. The set of implementations is closed.
type Event interface {
	Type() string
	isEvent()
}

// SessionCreated signals the backend opened a session.
type SessionCreated struct {
	EventID   string
	SessionID string
}

// ResponseDone signals a model response finished; Outputs may contain tool calls.
type ResponseDone struct {
	EventID    string
	ResponseID string
	Status     string
	Outputs    []OutputItem
}

// ServerError is an error reported by the backend.
type ServerError struct {
	EventID string
	Code    string
	Message string
}

// Unrecognized is every other event type. It carries no semantics.
type Unrecognized struct {
	EventType string
}

func (SessionCreated) Type() string { return TypeSessionCreated }
func (ResponseDone) Type() string   { return TypeResponseDone }
func (ServerError) Type() string    { return TypeError }
func (u Unrecognized) Type() string { return u.EventType }

func (SessionCreated) isEvent() {}
func (ResponseDone) isEvent()   {}
func (ServerError) isEvent()    {}
func (Unrecognized) isEvent()   {}

// OutputItem is one entry of a response's output list.
type OutputItem interface {
	isOutputItem()
}

// FunctionCall asks the client to run a tool. CallID may be empty.
type FunctionCall struct {
	ItemID    string
	CallID    string
	Name      string
	Arguments json.RawMessage
}

// OtherOutput is any non-tool output (messages, audio); ignored by dispatch.
type OtherOutput struct {
	ItemType string
}

func (FunctionCall) isOutputItem() {}
func (OtherOutput) isOutputItem()  {}

// FunctionCalls returns the tool calls of a response in output order.
func (r ResponseDone) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, item := range r.Outputs {
		if fc, ok := item.(FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// DecodeError reports an inbound frame that could not be decoded.
type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badFrame(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_frame", Message: message, Param: param}
}

type wireOutputItem struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// DecodeEvent parses one inbound text frame.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type    string `json:"type"`
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badFrame("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badFrame("missing type", "type")
	}

	switch typ {
	case TypeSessionCreated:
		var msg struct {
			Session struct {
				ID string `json:"id"`
			} `json:"session"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid session.created", "session")
		}
		return SessionCreated{EventID: envelope.EventID, SessionID: msg.Session.ID}, nil

	case TypeResponseDone:
		var msg struct {
			Response struct {
				ID     string           `json:"id"`
				Status string           `json:"status"`
				Output []wireOutputItem `json:"output"`
			} `json:"response"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid response.done", "response")
		}
		ev := ResponseDone{
			EventID:    envelope.EventID,
			ResponseID: msg.Response.ID,
			Status:     msg.Response.Status,
		}
		for i, item := range msg.Response.Output {
			if item.Type != "function_call" {
				ev.Outputs = append(ev.Outputs, OtherOutput{ItemType: item.Type})
				continue
			}
			// A nameless call names no registered tool; it is kept so the
			// session rejects it alone instead of losing its siblings.
			args, err := normalizeArguments(item.Arguments)
			if err != nil {
				return nil, badFrame(err.Error(), fmt.Sprintf("response.output[%d].arguments", i))
			}
			ev.Outputs = append(ev.Outputs, FunctionCall{
				ItemID:    item.ID,
				CallID:    item.CallID,
				Name:      strings.TrimSpace(item.Name),
				Arguments: args,
			})
		}
		return ev, nil

	case TypeError:
		var msg struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid error event", "error")
		}
		code := msg.Error.Code
		if code == "" {
			code = msg.Error.Type
		}
		return ServerError{EventID: envelope.EventID, Code: code, Message: msg.Error.Message}, nil

	default:
		return Unrecognized{EventType: typ}, nil
	}
}

// normalizeArguments accepts the backend's JSON-encoded string form as well
// as an inline object. Missing or empty arguments become {}.
func normalizeArguments(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	if trimmed[0] != '"' {
		return json.RawMessage(trimmed), nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("arguments string is not valid JSON")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return json.RawMessage("{}"), nil
	}
	// Undecodable argument text is passed through; handlers reject it.
	return json.RawMessage(s), nil
}
