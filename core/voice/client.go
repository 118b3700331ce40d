// Package voice implements the persistent realtime voice transport. It
// maintains one websocket session per call, filters the backend's event
// taxonomy down to transcript-worthy events and re-emits a small set of
// typed events to subscribers.
package voice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/courtneylabs/widget-core/core/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultEndpoint = "wss://realtime.backend.invalid/call"

// Subscription identifies one registered event handler.
type Subscription int

type subscriber struct {
	kind    events.Kind
	handler func(events.Event)
}

// Client is the voice transport. Event delivery is asynchronous and
// unordered with respect to outbound calls; every inbound frame is treated
// as independent, with deduplication left to the transcript store.
type Client struct {
	endpoint    string
	publicKey   string
	assistantID string

	mu          sync.Mutex
	initialized bool
	muted       bool
	callID      string
	started     chan error
	nextSub     Subscription
	subscribers map[Subscription]subscriber

	connMu sync.Mutex
	conn   *websocket.Conn
}

type Option func(*Client)

// WithEndpoint overrides the realtime endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func NewClient(publicKey, assistantID string, opts ...Option) *Client {
	c := &Client{
		endpoint:    defaultEndpoint,
		publicKey:   publicKey,
		assistantID: assistantID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize prepares the client for calls. It is idempotent: initializing
// an already-initialized client is a no-op, never an error.
func (c *Client) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return
	}
	if c.publicKey == "" || c.assistantID == "" {
		logger.Warn("missing realtime credentials, calls will fail to connect")
	}
	c.subscribers = map[Subscription]subscriber{}
	c.initialized = true
}

// StartCall opens the realtime session, passing variableValues as first-turn
// context, and blocks until the backend acknowledges the call or the context
// is done. Connection failure is returned to the caller so widget state can
// be reverted; it is never swallowed.
func (c *Client) StartCall(ctx context.Context, variableValues map[string]string) error {
	ctx, span := tracer.Start(ctx, "start voice call")
	defer span.End()

	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		span.SetStatus(codes.Error, ErrNotInitialized.Error())
		return ErrNotInitialized
	}
	c.connMu.Lock()
	active := c.conn != nil
	c.connMu.Unlock()
	if active {
		c.mu.Unlock()
		span.SetStatus(codes.Error, ErrCallActive.Error())
		return ErrCallActive
	}
	c.callID = uuid.NewString()
	c.started = make(chan error, 1)
	started := c.started
	c.mu.Unlock()
	span.SetAttributes(attribute.String("call.id", c.callID))

	conn, err := c.connect(ctx)
	if err != nil {
		err = fmt.Errorf("failed to open realtime connection: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	start := startFrame{Type: "start", AssistantID: c.assistantID}
	if len(variableValues) > 0 {
		start.AssistantOverrides = &assistantOverrides{VariableValues: variableValues}
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		err = fmt.Errorf("failed to send start frame: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	go c.readFrames(conn)

	select {
	case <-ctx.Done():
		c.Stop()
		return ctx.Err()
	case err := <-started:
		if err != nil {
			c.Stop()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("realtime backend rejected the call: %w", err)
		}
		return nil
	}
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	callURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime endpoint: %w", err)
	}
	queryParams := callURL.Query()
	queryParams.Set("assistantId", c.assistantID)
	callURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, callURL.String(),
		http.Header{"Authorization": {"Bearer " + c.publicKey}})
	if err != nil {
		return nil, err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return conn, nil
}

func (c *Client) readFrames(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Warn("failed to read realtime frame", "error", err)
			}

			c.connMu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.connMu.Unlock()
			conn.Close()

			c.signalStarted(fmt.Errorf("realtime connection closed: %w", err))
			return
		}
		if msgType == websocket.TextMessage {
			c.processFrame(msg)
		}
	}
}

// signalStarted resolves a pending StartCall exactly once.
func (c *Client) signalStarted(err error) {
	c.mu.Lock()
	started := c.started
	c.started = nil
	c.mu.Unlock()

	if started != nil {
		started <- err
	}
}

// Stop tears down the active call. It tolerates being invoked on an
// already-stopped or never-started client.
func (c *Client) Stop() {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		return
	}

	if err := conn.WriteJSON(stopFrame{Type: "stop"}); err != nil {
		logger.Warn("failed to send stop frame", "error", err)
	}
	if err := conn.Close(); err != nil {
		logger.Warn("failed to close realtime connection", "error", err)
	}
}

// SetMuted flips the microphone state. The flag is kept locally as well so
// it survives the backend round-trip and reads never block.
func (c *Client) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteJSON(mutedFrame{Type: "set-muted", Muted: muted}); err != nil {
		logger.Warn("failed to send mute frame", "error", err)
	}
}

func (c *Client) IsMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// On registers handler for events of the given kind and returns a handle
// for Off.
func (c *Client) On(kind events.Kind, handler func(events.Event)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscribers == nil {
		c.subscribers = map[Subscription]subscriber{}
	}
	c.nextSub++
	sub := c.nextSub
	c.subscribers[sub] = subscriber{kind: kind, handler: handler}
	return sub
}

// Off removes a previously registered handler. Unknown handles are ignored.
func (c *Client) Off(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, sub)
}

func (c *Client) emit(event events.Event) {
	c.mu.Lock()
	handlers := make([]func(events.Event), 0, len(c.subscribers))
	for _, sub := range c.subscribers {
		if sub.kind == event.Kind() {
			handlers = append(handlers, sub.handler)
		}
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Destroy best-effort stops any active call and releases all subscriptions.
// The client is unusable afterwards until a fresh Initialize.
func (c *Client) Destroy() {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = nil
	c.started = nil
	c.initialized = false
	c.muted = false
}
