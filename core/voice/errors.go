package voice

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when a call is attempted before Initialize,
// or after Destroy.
var ErrNotInitialized = errors.New("voice client not initialized")

// ErrCallActive is returned when a call is attempted while one is underway.
var ErrCallActive = errors.New("voice call already active")

// ProtocolError is a realtime frame that does not match the documented
// taxonomy. It is surfaced through the error event, never propagated as
// untyped data.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed realtime frame: %s", e.Reason)
}
