package widget

import (
	"context"
	"errors"

	"github.com/courtneylabs/widget-core/core/chat"
)

var errNoChatTransport = errors.New("chat transport not configured")

// chatTransport is the facade used to normalize optional client wiring.
type chatTransport struct {
	client ChatTransport
}

func (t *chatTransport) set(client ChatTransport) {
	if t != nil {
		t.client = client
	}
}

func (t *chatTransport) isConfigured() bool {
	return t != nil && t.client != nil
}

func (t *chatTransport) send(ctx context.Context, input string, contextVariables map[string]string) ([]chat.Turn, error) {
	if !t.isConfigured() {
		return nil, errNoChatTransport
	}
	return t.client.Send(ctx, input, contextVariables)
}

func (t *chatTransport) reset() {
	if !t.isConfigured() {
		return
	}
	t.client.Reset()
}

func (t *chatTransport) chatID() *string {
	if !t.isConfigured() {
		return nil
	}
	return t.client.ChatID()
}
