// Package proxy implements the server-side credential boundary for the text
// transport. The backend-facing secret key lives only here; browser-side
// clients talk to this endpoint and never see it.
package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ChatRequest is the inbound wire contract, identical to what the text
// transport sends.
type ChatRequest struct {
	Input              string              `json:"input"`
	PreviousChatID     *string             `json:"previousChatId,omitempty"`
	AssistantOverrides *AssistantOverrides `json:"assistantOverrides,omitempty"`
}

type AssistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

// upstreamRequest is the backend wire shape: the inbound request plus the
// assistant identifier, which clients never choose themselves.
type upstreamRequest struct {
	AssistantID        string              `json:"assistantId"`
	Input              string              `json:"input"`
	PreviousChatID     *string             `json:"previousChatId,omitempty"`
	AssistantOverrides *AssistantOverrides `json:"assistantOverrides,omitempty"`
}

// ConfigurationError is a missing or unusable server-side setting. The proxy
// fails closed with it rather than forwarding an unauthenticated request.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("proxy configuration error: %s", e.Reason)
}

// Config carries the server-side settings supplied at process startup.
type Config struct {
	// PrivateKey is the backend-facing secret. Requests fail closed when it
	// is absent.
	PrivateKey string
	// AssistantID is attached to every relayed request.
	AssistantID string
	// UpstreamURL is the backend chat endpoint.
	UpstreamURL string
}

type Handler struct {
	config     Config
	httpClient *http.Client
}

type Option func(*Handler)

// WithHTTPClient overrides the upstream HTTP client. The replacement is used
// as-is, without the default instrumentation wrapping.
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		if client != nil {
			h.httpClient = client
		}
	}
}

// NewHandler builds the chat relay endpoint, wrapped with request
// instrumentation.
func NewHandler(config Config, opts ...Option) http.Handler {
	h := &Handler{
		config: config,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(h)
	}
	return otelhttp.NewHandler(h, "chat proxy")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "relay chat request")
	defer span.End()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.config.PrivateKey == "" {
		configErr := &ConfigurationError{Reason: "missing backend private key"}
		logger.Error("refusing to relay chat request", "error", configErr)
		span.RecordError(configErr)
		span.SetStatus(codes.Error, configErr.Error())
		writeError(w, http.StatusInternalServerError, "server configuration error")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	if err := validateRequestBody(body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var chatRequest ChatRequest
	if err := json.Unmarshal(body, &chatRequest); err != nil {
		writeError(w, http.StatusBadRequest, "undecodable request body")
		return
	}
	span.SetAttributes(attribute.Bool("request.has_overrides", chatRequest.AssistantOverrides != nil))

	var relayed upstreamRequest
	if err := copier.Copy(&relayed, &chatRequest); err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	relayed.AssistantID = h.config.AssistantID

	relayedBytes, err := json.Marshal(relayed)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.UpstreamURL, bytes.NewBuffer(relayedBytes))
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.config.PrivateKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error relaying request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(w, http.StatusBadGateway, "backend unreachable")
		return
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Warn("failed to copy upstream response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
