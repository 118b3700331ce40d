package events

const (
	// KindMessageReceived identifies an informational backend message.
	KindMessageReceived Kind = "message.received"
)

// MessageReceived carries a backend message of a subtype that holds no
// transcript text, such as a function invocation or a conversation-state
// update. The decoded payload is passed through for diagnostic subscribers
// and is never converted into a transcript entry.
type MessageReceived struct {
	Base
	Subtype string
	Raw     map[string]any
}

// NewMessageReceived creates an informational message event.
func NewMessageReceived(subtype string, raw map[string]any) MessageReceived {
	return MessageReceived{Base: NewBase(KindMessageReceived), Subtype: subtype, Raw: raw}
}
