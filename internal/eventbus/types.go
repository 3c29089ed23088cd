package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicSessionCreated   Topic = "session_created"
	TopicToolsRegistered  Topic = "tools_registered"
	TopicToolCall         Topic = "tool_call"
	TopicToolResult       Topic = "tool_result"
	TopicToolError        Topic = "tool_error"
	TopicContinuationSent Topic = "continuation_sent"
	TopicSessionEnded     Topic = "session_ended"
	TopicSummaryStored    Topic = "summary_stored"
	TopicError            Topic = "error"
)

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler processes an event.
type Handler func(Event)
