// Package chat implements the request/reply text transport against the
// backend chat endpoint, including continuation-token conversation
// continuity.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/courtneylabs/widget-core/core/transcript"
	"github.com/courtneylabs/widget-core/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const defaultEndpoint = "/api/chat"

// Turn is a single backend output turn.
type Turn struct {
	Role    transcript.Role `json:"role"`
	Content string          `json:"content"`
}

type requestBody struct {
	Input              string              `json:"input"`
	PreviousChatID     *string             `json:"previousChatId,omitempty"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

type responseBody struct {
	ID     string `json:"id"`
	Output []Turn `json:"output"`
}

// Client is the text transport. A held continuation token marks an existing
// backend conversation; its absence marks the next request as the first
// turn. Send is serialized so a second send cannot race the token record of
// the first.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu     sync.Mutex
	chatID *string
}

type Option func(*Client)

// WithEndpoint overrides the chat endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client. The replacement is used as-is,
// without the default instrumentation wrapping.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send issues one exchange. The stored continuation token is attached when
// held; otherwise contextVariables, when supplied, are attached as
// first-turn variables. The two are never attached together: token presence
// means the backend already has the context. On success the backend's
// conversation identifier replaces the stored token and the output is
// returned filtered to assistant-authored turns with non-empty content.
func (c *Client) Send(ctx context.Context, input string, contextVariables map[string]string) ([]Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "send chat message")
	defer span.End()

	reqBody := requestBody{Input: input}
	if c.chatID != nil {
		reqBody.PreviousChatID = c.chatID
		span.SetAttributes(attribute.String("request.previous_chat_id", *c.chatID))
	} else if len(contextVariables) > 0 {
		reqBody.AssistantOverrides = &assistantOverrides{VariableValues: contextVariables}
		span.SetAttributes(attribute.Bool("request.has_overrides", true))
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errorBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			logger.Warn("failed to read chat error body", "error", readErr)
		}
		transportErr := &TransportError{Status: resp.StatusCode, Body: string(errorBody)}
		span.RecordError(transportErr)
		return nil, transportErr
	}

	var data responseBody
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		protocolErr := &ProtocolError{Reason: fmt.Sprintf("undecodable body: %v", err)}
		span.RecordError(protocolErr)
		return nil, protocolErr
	}
	if data.ID == "" {
		protocolErr := &ProtocolError{Reason: "missing conversation identifier"}
		span.RecordError(protocolErr)
		return nil, protocolErr
	}

	c.chatID = utils.Ptr(data.ID)
	span.SetAttributes(attribute.String("response.chat_id", data.ID))

	responses := []Turn{}
	for _, turn := range data.Output {
		if turn.Role == transcript.RoleAssistant && turn.Content != "" {
			responses = append(responses, turn)
		}
	}
	return responses, nil
}

// Reset discards the continuation token so the next send starts a new
// logical conversation.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = nil
}

// ChatID returns the held continuation token, or nil when no backend
// conversation exists yet.
func (c *Client) ChatID() *string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chatID == nil {
		return nil
	}
	return utils.Ptr(*c.chatID)
}
