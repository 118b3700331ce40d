package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func validConfig(upstreamURL string) Config {
	return Config{
		PrivateKey:  "sk-secret",
		AssistantID: "assistant-1",
		UpstreamURL: upstreamURL,
	}
}

func TestMissingPrivateKeyFailsClosed(t *testing.T) {
	upstreamCalls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	}))
	defer upstream.Close()

	handler := NewHandler(Config{AssistantID: "assistant-1", UpstreamURL: upstream.URL})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"input":"Hi"}`)))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "configuration") {
		t.Fatalf("expected a configuration error response, got %q", recorder.Body.String())
	}
	if upstreamCalls != 0 {
		t.Fatalf("expected no upstream call without a key, got %d", upstreamCalls)
	}
}

func TestRejectsNonPostRequests(t *testing.T) {
	handler := NewHandler(validConfig("http://127.0.0.1:1"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", recorder.Code)
	}
}

func TestRejectsUndecodableBody(t *testing.T) {
	handler := NewHandler(validConfig("http://127.0.0.1:1"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not json")))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}

func TestRejectsBodyOutsideChatContract(t *testing.T) {
	handler := NewHandler(validConfig("http://127.0.0.1:1"))

	for _, body := range []string{
		`{}`,
		`{"input":42}`,
		`{"input":"Hi","unknownField":true}`,
	} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected body %q to be rejected with 400, got %d", body, recorder.Code)
		}
	}
}

func TestRelaysRequestWithCredentialAndAssistantID(t *testing.T) {
	var relayed upstreamRequest
	var authorization string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&relayed); err != nil {
			t.Errorf("failed to decode relayed body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "c1",
			"output": []map[string]string{{"role": "assistant", "content": "Hello Ana"}},
		})
	}))
	defer upstream.Close()

	handler := NewHandler(validConfig(upstream.URL))
	recorder := httptest.NewRecorder()
	body := `{"input":"Hi","assistantOverrides":{"variableValues":{"userName":"Ana"}}}`
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if authorization != "Bearer sk-secret" {
		t.Fatalf("expected the private key on the upstream request, got %q", authorization)
	}
	if relayed.AssistantID != "assistant-1" {
		t.Fatalf("expected the assistant identifier to be attached, got %q", relayed.AssistantID)
	}
	if relayed.Input != "Hi" || relayed.AssistantOverrides == nil || relayed.AssistantOverrides.VariableValues["userName"] != "Ana" {
		t.Fatalf("expected the request to be relayed intact, got %+v", relayed)
	}
	if !strings.Contains(recorder.Body.String(), "Hello Ana") {
		t.Fatalf("expected the upstream response to pass through, got %q", recorder.Body.String())
	}
}

func TestPassesThroughUpstreamFailures(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	handler := NewHandler(validConfig(upstream.URL))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"input":"Hi"}`)))

	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("expected the upstream status to pass through, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "rate limited") {
		t.Fatalf("expected the upstream body to pass through, got %q", recorder.Body.String())
	}
}

func TestUnreachableUpstreamYieldsBadGateway(t *testing.T) {
	handler := NewHandler(validConfig("http://127.0.0.1:1"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"input":"Hi"}`)))

	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", recorder.Code)
	}
}
