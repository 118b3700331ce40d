package events

import "time"

// Kind is the wire-stable name of an event variant.
type Kind string

// Event is implemented by every variant in this package. Subscribers switch
// on the concrete type; Kind exists for registries keyed by name.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and creation time shared by all variants.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
