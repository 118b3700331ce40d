// Package widget implements the session orchestration layer: the widget
// lifecycle state machine, the wiring of user actions and transport events
// into the transcript, and the teardown sequence into feedback capture.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/courtneylabs/widget-core/core/events"
	"github.com/courtneylabs/widget-core/core/feedback"
	"github.com/courtneylabs/widget-core/core/transcript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// State is the widget lifecycle position. It has exactly one writer, the
// Widget itself; transports and the rendering layer only read it.
type State string

const (
	StateClosed State = "closed"
	StateForm   State = "form"
	StateChat   State = "chat"
	StateVoice  State = "voice"
)

// ErrInvalidTransition is returned when an operation is not available from
// the current state, such as starting a call while a session is underway.
var ErrInvalidTransition = errors.New("operation not valid in current widget state")

const apologyMessage = "Sorry, I encountered an error. Please try again."

// Widget owns the session lifecycle. Exactly one text transport and one
// voice transport exist per widget lifetime, and the widget is the sole
// caller of their mutating operations.
type Widget struct {
	mu            sync.Mutex
	state         State
	sessionActive bool
	muted         bool
	userContext   *UserContext

	log      *transcript.Log
	chat     chatTransport
	voice    voiceTransport
	feedback *feedback.Collector
	timer    *callTimer

	closeOnce sync.Once
}

func New(opts ...Option) *Widget {
	w := &Widget{
		state:    StateClosed,
		log:      transcript.NewLog(),
		feedback: feedback.NewCollector(),
		timer:    newCallTimer(time.Second),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.voice.initialize()
	w.wireVoiceEvents()
	return w
}

// wireVoiceEvents routes transport events into transcript mutations and
// lifecycle transitions. Transcript deduplication happens in the log, so
// repeated frame delivery is harmless here.
func (w *Widget) wireVoiceEvents() {
	w.voice.on(events.KindTranscriptFinal, func(event events.Event) {
		if final, ok := event.(events.TranscriptFinal); ok {
			w.log.Append(final.Role, final.Transcript)
		}
	})
	w.voice.on(events.KindCallEnded, func(events.Event) {
		w.EndSession()
	})
	w.voice.on(events.KindCallErrored, func(event events.Event) {
		if errored, ok := event.(events.CallErrored); ok {
			w.log.Append(transcript.RoleSystem, "Error: "+errored.String())
		}
	})
}

// Open shows the pre-session form.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		w.state = StateForm
	}
}

// CloseWidget hides the widget. Only available from the form; active
// sessions end through EndSession or NewSession first.
func (w *Widget) CloseWidget() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateForm {
		w.state = StateClosed
	}
}

// StartChat validates the context and opens a text session. Validation
// failure reports per-field errors and does not transition state.
func (w *Widget) StartChat(ctx context.Context, userContext UserContext) error {
	_, span := tracer.Start(ctx, "start chat session")
	defer span.End()

	if err := userContext.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateForm {
		span.SetStatus(codes.Error, ErrInvalidTransition.Error())
		return ErrInvalidTransition
	}

	w.state = StateChat
	w.sessionActive = true
	w.userContext = &userContext
	w.log.Clear()
	w.chat.reset()
	span.SetAttributes(attribute.String("session.transport", "chat"))
	return nil
}

// StartCall validates the context and opens a voice session. If the
// transport rejects the call the widget rolls back to the form, so a failed
// connection never leaves a stuck voice state.
func (w *Widget) StartCall(ctx context.Context, userContext UserContext) error {
	ctx, span := tracer.Start(ctx, "start voice session")
	defer span.End()

	if err := userContext.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	w.mu.Lock()
	if w.state != StateForm {
		w.mu.Unlock()
		span.SetStatus(codes.Error, ErrInvalidTransition.Error())
		return ErrInvalidTransition
	}
	w.state = StateVoice
	w.sessionActive = true
	w.userContext = &userContext
	w.log.Clear()
	w.mu.Unlock()

	if err := w.voice.startCall(ctx, userContext.variableValues()); err != nil {
		w.mu.Lock()
		w.state = StateForm
		w.sessionActive = false
		w.userContext = nil
		w.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// The backend can end the call on the event path before startCall
	// returns; the timer must not outlive such a session.
	w.mu.Lock()
	if w.sessionActive && w.state == StateVoice {
		w.timer.reset()
		w.timer.start()
	}
	w.mu.Unlock()
	span.SetAttributes(attribute.String("session.transport", "voice"))
	return nil
}

// SendMessage handles user-typed input. The content is always echoed as a
// user transcript entry first. In a chat session it is sent to the backend,
// with a failed send surfaced as a single assistant apology rather than an
// error. In a voice session outbound content is deliberately not sent: voice
// input arrives only via the transcript event path.
func (w *Widget) SendMessage(ctx context.Context, content string) {
	w.mu.Lock()
	if !w.sessionActive {
		w.mu.Unlock()
		return
	}
	state := w.state
	var contextVariables map[string]string
	if state == StateChat && w.chat.chatID() == nil && w.userContext != nil {
		contextVariables = w.userContext.variableValues()
	}
	w.mu.Unlock()

	w.log.Append(transcript.RoleUser, content)

	if state != StateChat {
		return
	}

	responses, err := w.chat.send(ctx, content, contextVariables)
	if err != nil {
		logger.Warn("failed to send chat message", "error", err)
		w.log.Append(transcript.RoleAssistant, apologyMessage)
		return
	}
	for _, response := range responses {
		w.log.Append(response.Role, response.Content)
	}
}

// EndSession tears down the active transport and opens feedback capture.
// User-initiated and backend-initiated session ends both land here, so
// teardown is identical regardless of trigger, and calling it with no
// active session is safe.
func (w *Widget) EndSession() {
	w.mu.Lock()
	state := w.state
	wasActive := w.sessionActive
	w.sessionActive = false
	w.mu.Unlock()

	w.teardownTransport(state)

	if wasActive {
		w.feedback.Open()
	}
}

// NewSession performs session teardown plus a full reset back to the form.
func (w *Widget) NewSession() {
	w.mu.Lock()
	state := w.state
	w.sessionActive = false
	w.userContext = nil
	w.muted = false
	w.state = StateForm
	w.mu.Unlock()

	w.teardownTransport(state)
	w.voice.setMuted(false)
	w.log.Clear()
	w.timer.reset()
}

func (w *Widget) teardownTransport(state State) {
	switch state {
	case StateVoice:
		w.voice.stop()
		w.timer.stop()
	case StateChat:
		w.chat.reset()
	}
}

// ToggleMute flips the microphone state. Valid only during a voice session.
func (w *Widget) ToggleMute() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateVoice {
		return
	}
	w.muted = !w.muted
	w.voice.setMuted(w.muted)
}

// SubmitFeedback records the post-session rating and comment.
func (w *Widget) SubmitFeedback(rating int, comment string) error {
	return w.feedback.Submit(rating, comment)
}

// SkipFeedback closes feedback capture without recording anything.
func (w *Widget) SkipFeedback() {
	w.feedback.Skip()
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Widget) SessionActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionActive
}

// Messages returns the transcript in append order.
func (w *Widget) Messages() []transcript.Message {
	return w.log.Messages()
}

func (w *Widget) IsMuted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted
}

// CallDurationSeconds reports the elapsed voice call time. It freezes when
// the call ends and resets when a new session starts.
func (w *Widget) CallDurationSeconds() int {
	return w.timer.elapsedSeconds()
}

func (w *Widget) FeedbackPending() bool {
	return w.feedback.Pending()
}

// Close releases the transports. The widget is unusable afterwards.
func (w *Widget) Close() {
	w.closeOnce.Do(func() {
		w.timer.stop()
		w.voice.destroy()
	})
}
