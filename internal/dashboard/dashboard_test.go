package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/rotacal/rotacal/internal/engine"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	server := NewServer(&Config{
		Addr:   ":0", // random available port
		Logger: log.New(io.Discard, "", 0),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Stop(); err != nil {
			t.Errorf("Failed to stop server: %v", err)
		}
	})

	time.Sleep(100 * time.Millisecond)
	return server
}

func TestServerStartStop(t *testing.T) {
	server := startTestServer(t)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeStats {
		t.Errorf("Expected welcome message type %s, got %s", MessageTypeStats, msg.Type)
	}
}

func TestHandlerBroadcastsEngineEvents(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Welcome message first
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	handler.Notify(engine.Event{
		Type:      engine.EventSaved,
		Key:       "2025-09-05",
		Timestamp: time.Now(),
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read event message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeSyncEvent {
		t.Fatalf("Expected %s message, got %s", MessageTypeSyncEvent, msg.Type)
	}

	var ev engine.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatalf("Failed to unmarshal event payload: %v", err)
	}
	if ev.Type != engine.EventSaved || ev.Key != "2025-09-05" {
		t.Errorf("Event payload wrong: %+v", ev)
	}

	// Stats follow every event
	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats message: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal stats message: %v", err)
	}
	if msg.Type != MessageTypeStats {
		t.Errorf("Expected %s message, got %s", MessageTypeStats, msg.Type)
	}
}

func TestHandlerStats(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, log.New(io.Discard, "", 0))

	handler.Notify(engine.Event{Type: engine.EventSaved, Timestamp: time.Now()})
	handler.Notify(engine.Event{Type: engine.EventDeleted, Timestamp: time.Now()})
	handler.Notify(engine.Event{Type: engine.EventFetchMerged, Timestamp: time.Now()})
	handler.Notify(engine.Event{
		Type:      engine.EventSyncError,
		Detail:    "zone busy",
		Timestamp: time.Now(),
	})

	stats := handler.Stats()
	if stats.Saves != 1 || stats.Deletes != 1 || stats.FetchesMerged != 1 || stats.Errors != 1 {
		t.Errorf("stats wrong: %+v", stats)
	}
	if stats.LastError != "zone busy" {
		t.Errorf("expected last error recorded, got %q", stats.LastError)
	}
}
