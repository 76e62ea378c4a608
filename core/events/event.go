package events

import "streampay/core/types"

// Event represents a structured state change emitted by the settlement core.
type Event interface {
	EventType() string
}

// Payloader is implemented by events that carry a full attribute payload in
// addition to their type. The journal uses it to persist attributes.
type Payloader interface {
	Payload() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
