package server

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent             atomic.Uint64
	toysSent              atomic.Uint64
	tickDurationMillis    atomic.Int64
	lastBroadcastBytes    atomic.Uint64
	lastBroadcastToys     atomic.Uint64
	debug                 bool

	dropMu       sync.Mutex
	commandDrops map[string]map[string]uint64
}

type telemetrySnapshot struct {
	BytesSent    uint64                       `json:"bytesSent"`
	ToysSent     uint64                       `json:"toysSent"`
	TickDuration int64                        `json:"tickDurationMillis"`
	CommandDrops map[string]map[string]uint64 `json:"commandDrops,omitempty"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{commandDrops: make(map[string]map[string]uint64)}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes, toys int) {
	if bytes < 0 {
		bytes = 0
	}
	if toys < 0 {
		toys = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.toysSent.Add(uint64(toys))
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastToys.Store(uint64(toys))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d toys=%d totalToys=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.lastBroadcastToys.Load(),
			t.toysSent.Load(),
		)
	}
}

// RecordCommandDrop tallies a dropped command by reason and type.
func (t *telemetryCounters) RecordCommandDrop(reason string, commandType CommandType) {
	t.dropMu.Lock()
	defer t.dropMu.Unlock()
	byType, ok := t.commandDrops[reason]
	if !ok {
		byType = make(map[string]uint64)
		t.commandDrops[reason] = byType
	}
	byType[string(commandType)]++
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	snapshot := telemetrySnapshot{
		BytesSent:    t.bytesSent.Load(),
		ToysSent:     t.toysSent.Load(),
		TickDuration: t.tickDurationMillis.Load(),
	}
	t.dropMu.Lock()
	if len(t.commandDrops) > 0 {
		drops := make(map[string]map[string]uint64, len(t.commandDrops))
		for reason, byType := range t.commandDrops {
			copied := make(map[string]uint64, len(byType))
			for k, v := range byType {
				copied[k] = v
			}
			drops[reason] = copied
		}
		snapshot.CommandDrops = drops
	}
	t.dropMu.Unlock()
	return snapshot
}
