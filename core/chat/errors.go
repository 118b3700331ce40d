package chat

import "fmt"

// TransportError is a non-success HTTP response from the chat backend. The
// caller decides what the user sees; the transport only carries the facts.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chat backend returned status %d: %s", e.Status, e.Body)
}

// ProtocolError is a successful HTTP response whose body does not match the
// documented shape.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed chat backend response: %s", e.Reason)
}
