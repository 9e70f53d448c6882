package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// NewMux wires the HTTP surface: health and diagnostics probes, the join
// handshake, the websocket session endpoint, and static client files when
// clientDir is set.
func NewMux(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string               `json:"status"`
			ServerTime int64                `json:"serverTime"`
			Cabinets   []diagnosticsCabinet `json:"cabinets"`
			TickRate   int                  `json:"tickRate"`
			Heartbeat  int64                `json:"heartbeatMillis"`
			Telemetry  telemetrySnapshot    `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Cabinets:   hub.DiagnosticsSnapshot(),
			TickRate:   tickRate,
			Heartbeat:  heartbeatInterval.Milliseconds(),
			Telemetry:  hub.TelemetrySnapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		join := hub.Join()
		data, err := json.Marshal(join)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		cabinetID := r.URL.Query().Get("id")
		if cabinetID == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %s: %v", cabinetID, err)
			return
		}

		sub, snapshot, ok := hub.Subscribe(cabinetID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown cabinet")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		initial := stateMessage{
			Ver:        ProtocolVersion,
			Type:       "state",
			ServerTime: time.Now().UnixMilli(),
			Snapshot:   snapshot,
		}
		if !writeJSON(sub, initial) {
			hub.Disconnect(cabinetID)
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(cabinetID)
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Printf("discarding malformed message from %s: %v", cabinetID, err)
				continue
			}

			switch msg.Type {
			case "gesture":
				if msg.Gesture == nil {
					continue
				}
				hub.enqueueCommand(Command{
					CabinetID: cabinetID,
					Type:      CommandGesture,
					IssuedAt:  time.Now(),
					Gesture:   &GestureCommand{Sample: *msg.Gesture},
				})
			case "insert_coin":
				hub.enqueueCommand(Command{
					CabinetID: cabinetID,
					Type:      CommandInsertCoin,
					IssuedAt:  time.Now(),
					Coin:      &InsertCoinCommand{Amount: msg.Amount},
				})
			case "heartbeat":
				now := time.Now()
				rtt, ok := hub.UpdateHeartbeat(cabinetID, now, msg.SentAt)
				if !ok {
					continue
				}

				ack := heartbeatMessage{
					Ver:        ProtocolVersion,
					Type:       "heartbeat",
					ServerTime: now.UnixMilli(),
					ClientTime: msg.SentAt,
					RTTMillis:  rtt.Milliseconds(),
				}
				if !writeJSON(sub, ack) {
					hub.Disconnect(cabinetID)
					return
				}
			default:
				log.Printf("unknown message type %q from %s", msg.Type, cabinetID)
			}
		}
	})

	if clientDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(clientDir)))
	}

	return mux
}

func writeJSON(sub *subscriber, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal %T: %v", payload, err)
		return false
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sub.conn.WriteMessage(websocket.TextMessage, data) == nil
}
