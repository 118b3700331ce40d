package widget

import (
	"context"
	"time"

	"github.com/courtneylabs/widget-core/core/chat"
	"github.com/courtneylabs/widget-core/core/events"
	"github.com/courtneylabs/widget-core/core/feedback"
	"github.com/courtneylabs/widget-core/core/voice"
)

type Option func(*Widget)

// ChatTransport is the request/reply text transport contract the controller
// drives. *chat.Client satisfies it.
type ChatTransport interface {
	Send(ctx context.Context, input string, contextVariables map[string]string) ([]chat.Turn, error)
	Reset()
	ChatID() *string
}

// WithChatTransport sets the text transport client.
func WithChatTransport(client ChatTransport) Option {
	return func(w *Widget) { w.chat.set(client) }
}

// VoiceTransport is the realtime voice transport contract the controller
// drives. *voice.Client satisfies it.
type VoiceTransport interface {
	Initialize()
	StartCall(ctx context.Context, variableValues map[string]string) error
	Stop()
	SetMuted(muted bool)
	IsMuted() bool
	On(kind events.Kind, handler func(events.Event)) voice.Subscription
	Off(sub voice.Subscription)
	Destroy()
}

// WithVoiceTransport sets the realtime voice transport client.
func WithVoiceTransport(client VoiceTransport) Option {
	return func(w *Widget) { w.voice.set(client) }
}

// WithFeedbackRecorder sets the external collector that receives accepted
// feedback submissions.
func WithFeedbackRecorder(recorder feedback.Recorder) Option {
	return func(w *Widget) {
		w.feedback = feedback.NewCollector(feedback.WithRecorder(recorder))
	}
}

// WithTickInterval shortens the call-duration tick. Used by tests; the
// counter still advances by one per tick.
func WithTickInterval(interval time.Duration) Option {
	return func(w *Widget) {
		if interval > 0 {
			w.timer.interval = interval
		}
	}
}
