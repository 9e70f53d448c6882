package economy

import (
	"context"

	"grab-and-go/server/logging"
)

const (
	// EventCreditSpent is emitted when a grab trigger consumes a credit.
	EventCreditSpent logging.EventType = "economy.credit_spent"
	// EventCreditRefused is emitted when a grab trigger finds no credits.
	EventCreditRefused logging.EventType = "economy.credit_refused"
	// EventScoreAwarded is emitted when an exit-zone drop clears the screen.
	EventScoreAwarded logging.EventType = "economy.score_awarded"
	// EventCreditsRefilled is emitted when coins are inserted.
	EventCreditsRefilled logging.EventType = "economy.credits_refilled"
)

// CreditSpentPayload reports the balance after the spend.
type CreditSpentPayload struct {
	Remaining int `json:"remaining"`
}

// ScoreAwardedPayload reports the running score.
type ScoreAwardedPayload struct {
	Score int `json:"score"`
}

// CreditsRefilledPayload reports the refill amount and new balance.
type CreditsRefilledPayload struct {
	Amount  int `json:"amount"`
	Balance int `json:"balance"`
}

func CreditSpent(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CreditSpentPayload) {
	publish(ctx, pub, EventCreditSpent, tick, actor, logging.SeverityInfo, payload)
}

func CreditRefused(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, EventCreditRefused, tick, actor, logging.SeverityInfo, nil)
}

func ScoreAwarded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ScoreAwardedPayload) {
	publish(ctx, pub, EventScoreAwarded, tick, actor, logging.SeverityInfo, payload)
}

func CreditsRefilled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CreditsRefilledPayload) {
	publish(ctx, pub, EventCreditsRefilled, tick, actor, logging.SeverityInfo, payload)
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
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}
