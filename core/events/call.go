package events

const (
	// KindCallStarted identifies establishment of the realtime session.
	KindCallStarted Kind = "call.started"
	// KindCallEnded identifies termination of the realtime session.
	KindCallEnded Kind = "call.ended"
	// KindCallErrored identifies a backend or connection failure.
	KindCallErrored Kind = "call.errored"
)

// CallStarted marks when the realtime session is established.
type CallStarted struct{ Base }

// NewCallStarted creates a call started event.
func NewCallStarted() CallStarted {
	return CallStarted{Base: NewBase(KindCallStarted)}
}

// CallEnded marks when the realtime session terminates. It is terminal for
// the session regardless of which side initiated the teardown.
type CallEnded struct{ Base }

// NewCallEnded creates a call ended event.
func NewCallEnded() CallEnded {
	return CallEnded{Base: NewBase(KindCallEnded)}
}

// CallErrored carries a failure reported by the backend or the connection.
type CallErrored struct {
	Base
	Err error
}

func (e CallErrored) String() string {
	if e.Err == nil {
		return "an error occurred"
	}
	return e.Err.Error()
}

// NewCallErrored creates a call errored event.
func NewCallErrored(err error) CallErrored {
	return CallErrored{Base: NewBase(KindCallErrored), Err: err}
}
