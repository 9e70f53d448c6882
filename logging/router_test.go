package logging_test

import (
	"context"
	"testing"
	"time"

	"grab-and-go/server/logging"
	"grab-and-go/server/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}
	return router, memory
}

func closeRouter(t *testing.T, router *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("failed to close router: %v", err)
	}
}

func TestRouterDeliversToSinks(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:     "round.phase_changed",
		Severity: logging.SeverityInfo,
		Tick:     7,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != "round.phase_changed" || events[0].Tick != 7 {
		t.Fatalf("event mangled: %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router should stamp the clock on untimed events")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityInfo
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{
		Type:     "round.phase_changed",
		Severity: logging.SeverityDebug,
	})
	router.Publish(context.Background(), logging.Event{
		Type:     "claw.grip_missed",
		Severity: logging.SeverityInfo,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the info event, got %d", len(events))
	}
	if events[0].Type != "claw.grip_missed" {
		t.Fatalf("wrong event survived the filter: %s", events[0].Type)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	closeRouter(t, router)

	if got := len(memory.Events()); got != 0 {
		t.Fatalf("untyped event delivered, got %d", got)
	}
}

func TestRouterAppliesBaseFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "grab-and-go"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{
		Type:     "economy.credit_spent",
		Severity: logging.SeverityInfo,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Extra["service"] != "grab-and-go" {
		t.Fatalf("base field missing: %+v", events[0].Extra)
	}
}

func TestWithFieldsWrapsPublisher(t *testing.T) {
	var captured logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = event
	})

	wrapped := logging.WithFields(base, map[string]any{"cabinet": "cabinet-1"})
	wrapped.Publish(context.Background(), logging.Event{Type: "round.pit_refilled"})

	if captured.Extra["cabinet"] != "cabinet-1" {
		t.Fatalf("wrapped field missing: %+v", captured.Extra)
	}
}

func TestRouterStatsCountPublishes(t *testing.T) {
	router, _ := newMemoryRouter(t, logging.DefaultConfig())

	for i := 0; i < 5; i++ {
		router.Publish(context.Background(), logging.Event{
			Type:     "round.phase_changed",
			Severity: logging.SeverityInfo,
		})
	}
	closeRouter(t, router)

	stats := router.Stats()
	if stats.EventsTotal != 5 {
		t.Fatalf("expected 5 events counted, got %d", stats.EventsTotal)
	}
	if stats.DroppedTotal != 0 {
		t.Fatalf("unexpected drops: %d", stats.DroppedTotal)
	}
}
