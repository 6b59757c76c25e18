// Package stream defines the typed events written to a chat stream.
package stream

// EventType enumerates every frame the streaming endpoint can emit.
type EventType string

const (
	EventConnected EventType = "connected"
	EventToolStart EventType = "tool-start"
	EventToolEnd   EventType = "tool-end"
	EventToken     EventType = "token"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event is one transient frame of a response stream. Within a stream,
// Connected always precedes the first Token and exactly one of Done or
// Error terminates the sequence.
type Event struct {
	Type   EventType `json:"type"`
	Tool   string    `json:"tool,omitempty"`
	Input  any       `json:"input,omitempty"`
	Output any       `json:"output,omitempty"`
	Token  string    `json:"token,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Connected returns the stream-opened frame.
func Connected() Event { return Event{Type: EventConnected} }

// ToolStart marks the beginning of a tool invocation.
func ToolStart(tool string, input any) Event {
	return Event{Type: EventToolStart, Tool: tool, Input: input}
}

// ToolEnd marks the completion of a tool invocation.
func ToolEnd(tool string, output any) Event {
	return Event{Type: EventToolEnd, Tool: tool, Output: output}
}

// Token carries one increment of response text.
func Token(text string) Event { return Event{Type: EventToken, Token: text} }

// Done terminates a successful stream.
func Done() Event { return Event{Type: EventDone} }

// Error terminates a failed stream.
func Error(msg string) Event { return Event{Type: EventError, Error: msg} }
