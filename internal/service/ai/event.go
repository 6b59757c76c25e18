// Package ai runs the conversational tool-calling agent and relays its
// activity as vendor-neutral events.
package ai

// EventKind tags the agent event union.
type EventKind int

const (
	// EventToken carries an increment of generated answer text.
	EventToken EventKind = iota
	// EventToolStart marks the beginning of a tool invocation.
	EventToolStart
	// EventToolEnd marks the completion of a tool invocation.
	EventToolEnd
)

// Event is one occurrence during an agent run, decoupled from the shapes
// of any particular agent framework. An adapter translates vendor events
// into this union.
type Event struct {
	Kind   EventKind
	Token  string
	Tool   string
	Input  any
	Output any
}
