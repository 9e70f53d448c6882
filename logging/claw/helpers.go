package claw

import (
	"context"

	"grab-and-go/server/logging"
)

const (
	// EventGrabTriggered is emitted the instant a grab command is accepted.
	EventGrabTriggered logging.EventType = "claw.grab_triggered"
	// EventGripAttached is emitted when grip resolution finds a toy.
	EventGripAttached logging.EventType = "claw.grip_attached"
	// EventGripMissed is emitted when grip resolution finds nothing in reach.
	EventGripMissed logging.EventType = "claw.grip_missed"
	// EventToySlipped is emitted when a lifted toy detaches mid-lift.
	EventToySlipped logging.EventType = "claw.toy_slipped"
	// EventToyReleased is emitted when the release command opens the grip.
	EventToyReleased logging.EventType = "claw.toy_released"
	// EventAttemptRecovered is emitted when the controller detects a
	// desynchronized attempt and forces the rig back to ready.
	EventAttemptRecovered logging.EventType = "claw.attempt_recovered"
)

// GrabTriggeredPayload records the one-shot descent target.
type GrabTriggeredPayload struct {
	TargetDepth float64 `json:"targetDepth"`
	HubX        float64 `json:"hubX"`
}

// GripAttachedPayload describes the resolved grip.
type GripAttachedPayload struct {
	Misalignment float64 `json:"misalignment"`
	Unstable     bool    `json:"unstable"`
}

// ToySlippedPayload records where in the lift the toy was lost.
type ToySlippedPayload struct {
	LiftProgress float64 `json:"liftProgress"`
	Unstable     bool    `json:"unstable"`
}

// ToyReleasedPayload records the drop location verdict.
type ToyReleasedPayload struct {
	HubX     float64 `json:"hubX"`
	ExitZone bool    `json:"exitZone"`
}

// AttemptRecoveredPayload names the invariant that failed.
type AttemptRecoveredPayload struct {
	Reason string `json:"reason"`
}

func GrabTriggered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GrabTriggeredPayload) {
	publish(ctx, pub, EventGrabTriggered, tick, actor, logging.SeverityInfo, payload)
}

func GripAttached(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GripAttachedPayload) {
	publish(ctx, pub, EventGripAttached, tick, actor, logging.SeverityInfo, payload)
}

func GripMissed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, EventGripMissed, tick, actor, logging.SeverityInfo, nil)
}

func ToySlipped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ToySlippedPayload) {
	publish(ctx, pub, EventToySlipped, tick, actor, logging.SeverityInfo, payload)
}

func ToyReleased(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ToyReleasedPayload) {
	publish(ctx, pub, EventToyReleased, tick, actor, logging.SeverityInfo, payload)
}

func AttemptRecovered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AttemptRecoveredPayload) {
	publish(ctx, pub, EventAttemptRecovered, tick, actor, logging.SeverityWarn, payload)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, actor logging.EntityRef, severity logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
