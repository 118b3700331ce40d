package widget

import (
	"context"
	"errors"

	"github.com/courtneylabs/widget-core/core/events"
	"github.com/courtneylabs/widget-core/core/voice"
)

var errNoVoiceTransport = errors.New("voice transport not configured")

// voiceTransport is the facade used to normalize optional client wiring.
// Teardown paths stay callable on an unconfigured transport.
type voiceTransport struct {
	client VoiceTransport
}

func (t *voiceTransport) set(client VoiceTransport) {
	if t != nil {
		t.client = client
	}
}

func (t *voiceTransport) isConfigured() bool {
	return t != nil && t.client != nil
}

func (t *voiceTransport) initialize() {
	if !t.isConfigured() {
		return
	}
	t.client.Initialize()
}

func (t *voiceTransport) startCall(ctx context.Context, variableValues map[string]string) error {
	if !t.isConfigured() {
		return errNoVoiceTransport
	}
	return t.client.StartCall(ctx, variableValues)
}

func (t *voiceTransport) stop() {
	if !t.isConfigured() {
		return
	}
	t.client.Stop()
}

func (t *voiceTransport) setMuted(muted bool) {
	if !t.isConfigured() {
		return
	}
	t.client.SetMuted(muted)
}

func (t *voiceTransport) on(kind events.Kind, handler func(events.Event)) voice.Subscription {
	if !t.isConfigured() {
		return 0
	}
	return t.client.On(kind, handler)
}

func (t *voiceTransport) destroy() {
	if !t.isConfigured() {
		return
	}
	t.client.Destroy()
}
