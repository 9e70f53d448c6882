package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := newTestHub()
	srv := httptest.NewServer(NewMux(hub, ""))
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestHealthEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestJoinEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/join", "application/json", nil)
	if err != nil {
		t.Fatalf("join request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var join joinResponse
	if err := json.NewDecoder(resp.Body).Decode(&join); err != nil {
		t.Fatalf("failed to decode join response: %v", err)
	}
	if join.ID == "" {
		t.Fatalf("join response missing cabinet ID")
	}
	if join.Ver != ProtocolVersion {
		t.Fatalf("unexpected protocol version %d", join.Ver)
	}
	if len(join.Snapshot.Toys) == 0 {
		t.Fatalf("join snapshot has no toys")
	}
}

func TestJoinRejectsGet(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/join")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	hub, srv := newTestServer(t)
	hub.Join()

	resp, err := http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("diagnostics request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Status   string               `json:"status"`
		Cabinets []diagnosticsCabinet `json:"cabinets"`
		TickRate int                  `json:"tickRate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
	if len(payload.Cabinets) != 1 {
		t.Fatalf("expected 1 cabinet, got %d", len(payload.Cabinets))
	}
	if payload.TickRate != tickRate {
		t.Fatalf("unexpected tick rate %d", payload.TickRate)
	}
}

func TestWebsocketRequiresCabinetID(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebsocketDeliversInitialState(t *testing.T) {
	hub, srv := newTestServer(t)
	join := hub.Join()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?id=" + join.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var state stateMessage
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}
	if state.Type != "state" {
		t.Fatalf("unexpected message type %q", state.Type)
	}
	if state.Snapshot.Credits != join.Config.StartingCredits {
		t.Fatalf("initial snapshot credits %d, want %d", state.Snapshot.Credits, join.Config.StartingCredits)
	}
}

func TestWebsocketHeartbeatEcho(t *testing.T) {
	hub, srv := newTestServer(t)
	join := hub.Join()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?id=" + join.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var state stateMessage
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}

	sent := map[string]any{"type": "heartbeat", "sentAt": 1234}
	if err := conn.WriteJSON(sent); err != nil {
		t.Fatalf("failed to send heartbeat: %v", err)
	}

	var ack heartbeatMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("failed to read heartbeat ack: %v", err)
	}
	if ack.Type != "heartbeat" || ack.ClientTime != 1234 {
		t.Fatalf("unexpected ack %+v", ack)
	}
}

func TestWebsocketRejectsUnknownCabinet(t *testing.T) {
	_, srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?id=cabinet-404"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the server to close the socket")
	}
}
