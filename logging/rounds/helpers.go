package rounds

import (
	"context"

	"grab-and-go/server/logging"
)

const (
	// EventPhaseChanged is emitted on every turn-controller transition.
	EventPhaseChanged logging.EventType = "round.phase_changed"
	// EventSettleTimeout is emitted when the pit never calms down and the
	// max-wait timer forces the round onward.
	EventSettleTimeout logging.EventType = "round.settle_timeout"
	// EventPitRefilled is emitted when an emptied pit is restocked.
	EventPitRefilled logging.EventType = "round.pit_refilled"
)

// PhaseChangedPayload records a single transition.
type PhaseChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PitRefilledPayload records the restock size.
type PitRefilledPayload struct {
	ToyCount int `json:"toyCount"`
}

func PhaseChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PhaseChangedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPhaseChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRound,
		Payload:  payload,
	})
}

func SettleTimeout(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSettleTimeout,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryRound,
	})
}

func PitRefilled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PitRefilledPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPitRefilled,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRound,
		Payload:  payload,
	})
}
