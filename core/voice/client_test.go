package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/courtneylabs/widget-core/core/events"
	"github.com/gorilla/websocket"
)

func newRealtimeServer(t *testing.T, handle func(conn *websocket.Conn, start startFrame)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		var start startFrame
		if err := conn.ReadJSON(&start); err != nil {
			t.Errorf("failed to read start frame: %v", err)
			return
		}
		handle(conn, start)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestStartCallRequiresInitialize(t *testing.T) {
	client := NewClient("pk", "assistant-1")

	err := client.StartCall(context.Background(), nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	client := NewClient("pk", "assistant-1")
	client.Initialize()

	sub := client.On(events.KindCallEnded, func(events.Event) {})
	client.Initialize()

	client.mu.Lock()
	_, kept := client.subscribers[sub]
	client.mu.Unlock()
	if !kept {
		t.Fatalf("expected re-initialize to keep existing subscriptions")
	}
}

func TestStartCallSendsContextVariablesAndAwaitsAck(t *testing.T) {
	received := make(chan startFrame, 1)
	server := newRealtimeServer(t, func(conn *websocket.Conn, start startFrame) {
		received <- start
		conn.WriteJSON(map[string]string{"type": "call-start"})
		// Keep the connection open until the client stops it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient("pk", "assistant-1", WithEndpoint(wsURL(server)))
	client.Initialize()
	defer client.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := client.StartCall(ctx, map[string]string{"userName": "Ana"})
	if err != nil {
		t.Fatalf("expected call to start, got %v", err)
	}

	start := <-received
	if start.Type != "start" || start.AssistantID != "assistant-1" {
		t.Fatalf("unexpected start frame: %+v", start)
	}
	if start.AssistantOverrides == nil || start.AssistantOverrides.VariableValues["userName"] != "Ana" {
		t.Fatalf("expected first-turn variables on the start frame, got %+v", start.AssistantOverrides)
	}
}

func TestStartCallRejectsSecondCallWhileConnected(t *testing.T) {
	server := newRealtimeServer(t, func(conn *websocket.Conn, start startFrame) {
		conn.WriteJSON(map[string]string{"type": "call-start"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient("pk", "assistant-1", WithEndpoint(wsURL(server)))
	client.Initialize()
	defer client.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.StartCall(ctx, nil); err != nil {
		t.Fatalf("expected the first call to start, got %v", err)
	}

	if err := client.StartCall(ctx, nil); !errors.Is(err, ErrCallActive) {
		t.Fatalf("expected ErrCallActive for a second call, got %v", err)
	}
}

func TestStartCallPropagatesBackendRejection(t *testing.T) {
	server := newRealtimeServer(t, func(conn *websocket.Conn, start startFrame) {
		conn.WriteJSON(map[string]string{"type": "error", "message": "invalid credentials"})
	})
	defer server.Close()

	client := NewClient("pk", "assistant-1", WithEndpoint(wsURL(server)))
	client.Initialize()
	defer client.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := client.StartCall(ctx, nil)
	if err == nil {
		t.Fatalf("expected the rejected call to propagate an error")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected the backend reason to be carried, got %v", err)
	}
}

func TestStartCallPropagatesConnectFailure(t *testing.T) {
	client := NewClient("pk", "assistant-1", WithEndpoint("ws://127.0.0.1:1/call"))
	client.Initialize()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.StartCall(ctx, nil); err == nil {
		t.Fatalf("expected the connect failure to propagate")
	}
}

func TestTranscriptFramesReachSubscribersDuringCall(t *testing.T) {
	server := newRealtimeServer(t, func(conn *websocket.Conn, start startFrame) {
		conn.WriteJSON(map[string]string{"type": "call-start"})
		frame, _ := json.Marshal(map[string]string{
			"type":           "transcript",
			"transcriptType": "final",
			"transcript":     "Hello Ana",
			"role":           "assistant",
		})
		conn.WriteMessage(websocket.TextMessage, frame)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient("pk", "assistant-1", WithEndpoint(wsURL(server)))
	client.Initialize()
	defer client.Destroy()

	transcripts := make(chan events.TranscriptFinal, 1)
	client.On(events.KindTranscriptFinal, func(event events.Event) {
		transcripts <- event.(events.TranscriptFinal)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.StartCall(ctx, nil); err != nil {
		t.Fatalf("expected call to start, got %v", err)
	}

	select {
	case final := <-transcripts:
		if final.Transcript != "Hello Ana" {
			t.Fatalf("unexpected transcript %q", final.Transcript)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the transcript event")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	client := NewClient("pk", "assistant-1")
	client.Initialize()

	client.Stop()
	client.Stop()
}

func TestDestroyDropsSubscriptionsAndRequiresReinitialize(t *testing.T) {
	client := NewClient("pk", "assistant-1")
	client.Initialize()

	calls := 0
	client.On(events.KindCallEnded, func(events.Event) { calls++ })

	client.Destroy()
	client.processFrame([]byte(`{"type":"call-end"}`))
	if calls != 0 {
		t.Fatalf("expected destroyed client to drop subscriptions, handler fired %d times", calls)
	}

	if err := client.StartCall(context.Background(), nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized after destroy, got %v", err)
	}
}
