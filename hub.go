package server

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"grab-and-go/server/logging"
)

// Hub owns every live cabinet and its subscriber, and runs the one
// simulation goroutine that ticks them all.
type Hub struct {
	mu         sync.Mutex
	cabinets   map[string]*cabinet
	nextID     atomic.Uint64
	tick       atomic.Uint64
	baseConfig CabinetConfig
	publisher  logging.Publisher
	telemetry  *telemetryCounters

	commands      []Command
	perActorCount map[string]int
}

// cabinet pairs one player's world with their session metadata.
type cabinet struct {
	id            string
	world         *World
	sub           *subscriber
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewHub(cfg CabinetConfig, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		cabinets:      make(map[string]*cabinet),
		baseConfig:    cfg.normalized(),
		publisher:     publisher,
		telemetry:     newTelemetryCounters(),
		perActorCount: make(map[string]int),
	}
}

// Join provisions a fresh cabinet and returns its initial snapshot. Each
// cabinet derives its own seed from the base seed so replays stay stable
// per session without every session playing the identical pit.
func (h *Hub) Join() joinResponse {
	id := h.nextID.Add(1)
	cabinetID := fmt.Sprintf("cabinet-%d", id)

	cfg := h.baseConfig
	cfg.Seed = fmt.Sprintf("%s-%d", cfg.Seed, id)
	world := newWorld(cabinetID, cfg, h.publisher)

	cab := &cabinet{
		id:            cabinetID,
		world:         world,
		lastHeartbeat: time.Now(),
	}

	h.mu.Lock()
	h.cabinets[cabinetID] = cab
	snapshot := world.Snapshot()
	h.mu.Unlock()

	return joinResponse{Ver: ProtocolVersion, ID: cabinetID, Config: cfg, Snapshot: snapshot}
}

// Subscribe attaches a websocket to an existing cabinet, replacing any
// previous connection.
func (h *Hub) Subscribe(cabinetID string, conn *websocket.Conn) (*subscriber, WorldSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cab, ok := h.cabinets[cabinetID]
	if !ok {
		return nil, WorldSnapshot{}, false
	}

	cab.lastHeartbeat = time.Now()
	if cab.sub != nil {
		cab.sub.conn.Close()
	}

	sub := &subscriber{conn: conn}
	cab.sub = sub
	return sub, cab.world.Snapshot(), true
}

// Disconnect tears down a cabinet and its subscriber.
func (h *Hub) Disconnect(cabinetID string) bool {
	h.mu.Lock()
	cab, ok := h.cabinets[cabinetID]
	if ok {
		delete(h.cabinets, cabinetID)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	if cab.sub != nil {
		cab.sub.conn.Close()
	}
	return true
}

// enqueueCommand stages a command for the next tick, enforcing the
// per-cabinet queue limit so one noisy client cannot starve the tick.
func (h *Hub) enqueueCommand(cmd Command) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.perActorCount[cmd.CabinetID] >= commandQueuePerActorLimit {
		h.telemetry.RecordCommandDrop("limit_exceeded", cmd.Type)
		return false
	}
	cmd.OriginTick = h.tick.Load() + 1
	h.perActorCount[cmd.CabinetID]++
	h.commands = append(h.commands, cmd)
	return true
}

// drainCommands empties the staged queue, preserving arrival order.
func (h *Hub) drainCommands() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	drained := h.commands
	h.commands = nil
	h.perActorCount = make(map[string]int)
	return drained
}

// UpdateHeartbeat refreshes session liveness and returns the smoothed RTT.
func (h *Hub) UpdateHeartbeat(cabinetID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cab, ok := h.cabinets[cabinetID]
	if !ok {
		return 0, false
	}

	cab.lastHeartbeat = receivedAt
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			cab.lastRTT = rtt
		}
	}
	return cab.lastRTT, true
}

type broadcastItem struct {
	sub      *subscriber
	cabinet  string
	snapshot WorldSnapshot
}

// advance runs one tick for every cabinet: drain staged commands, step each
// world, and collect the post-tick snapshots. Stale sessions are pruned
// first so their worlds stop consuming the loop.
func (h *Hub) advance(tick uint64, now time.Time, dt float64) ([]broadcastItem, []*subscriber) {
	commands := h.drainCommands()
	byCabinet := make(map[string][]Command)
	for _, cmd := range commands {
		byCabinet[cmd.CabinetID] = append(byCabinet[cmd.CabinetID], cmd)
	}

	h.mu.Lock()
	toClose := make([]*subscriber, 0)
	for id, cab := range h.cabinets {
		if now.Sub(cab.lastHeartbeat) > disconnectAfter {
			if cab.sub != nil {
				toClose = append(toClose, cab.sub)
			}
			delete(h.cabinets, id)
			log.Printf("disconnecting %s due to heartbeat timeout", id)
		}
	}

	items := make([]broadcastItem, 0, len(h.cabinets))
	for id, cab := range h.cabinets {
		cab.world.Step(tick, now, dt, byCabinet[id])
		if cab.sub == nil {
			continue
		}
		items = append(items, broadcastItem{sub: cab.sub, cabinet: id, snapshot: cab.world.Snapshot()})
	}
	h.mu.Unlock()

	return items, toClose
}

// RunSimulation drives the fixed-rate tick loop until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now
			tick := h.tick.Add(1)

			started := time.Now()
			items, toClose := h.advance(tick, now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcast(items)
			h.telemetry.RecordTickDuration(time.Since(started))
		}
	}
}

// broadcast pushes each cabinet's snapshot to its subscriber.
func (h *Hub) broadcast(items []broadcastItem) {
	for _, item := range items {
		msg := stateMessage{
			Ver:        ProtocolVersion,
			Type:       "state",
			ServerTime: time.Now().UnixMilli(),
			Snapshot:   item.snapshot,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("failed to marshal state for %s: %v", item.cabinet, err)
			continue
		}
		h.telemetry.RecordBroadcast(len(data), len(item.snapshot.Toys))

		item.sub.mu.Lock()
		item.sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		writeErr := item.sub.conn.WriteMessage(websocket.TextMessage, data)
		item.sub.mu.Unlock()
		if writeErr != nil {
			log.Printf("failed to send update to %s: %v", item.cabinet, writeErr)
			h.Disconnect(item.cabinet)
		}
	}
}

// DiagnosticsSnapshot lists live sessions for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsCabinet {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]diagnosticsCabinet, 0, len(h.cabinets))
	for _, cab := range h.cabinets {
		out = append(out, diagnosticsCabinet{
			ID:            cab.id,
			Phase:         cab.world.phase,
			LastHeartbeat: cab.lastHeartbeat.UnixMilli(),
			RTTMillis:     cab.lastRTT.Milliseconds(),
		})
	}
	return out
}

// TelemetrySnapshot exposes the counters for diagnostics and tests.
func (h *Hub) TelemetrySnapshot() telemetrySnapshot {
	return h.telemetry.Snapshot()
}
