package server

import (
	"context"
	"testing"

	"grab-and-go/server/logging"
	loggingeconomy "grab-and-go/server/logging/economy"
)

func collectEvents(events *[]logging.Event) logging.Publisher {
	return logging.PublisherFunc(func(_ context.Context, e logging.Event) {
		*events = append(*events, e)
	})
}

func TestSpendCreditDrainsToZero(t *testing.T) {
	var events []logging.Event
	b := NewBookkeeper("cabinet-1", 2, collectEvents(&events))

	if !b.SpendCredit(1) || !b.SpendCredit(2) {
		t.Fatalf("spends within the balance must succeed")
	}
	if b.Credits() != 0 {
		t.Fatalf("expected empty balance, got %d", b.Credits())
	}
	if b.SpendCredit(3) {
		t.Fatalf("spend at zero must fail")
	}
	if b.Credits() != 0 {
		t.Fatalf("refused spend changed the balance: %d", b.Credits())
	}

	var spent, refused int
	for _, e := range events {
		switch e.Type {
		case loggingeconomy.EventCreditSpent:
			spent++
		case loggingeconomy.EventCreditRefused:
			refused++
		}
	}
	if spent != 2 || refused != 1 {
		t.Fatalf("expected 2 spends and 1 refusal, got %d/%d", spent, refused)
	}
}

func TestAddScoreAccumulates(t *testing.T) {
	b := NewBookkeeper("cabinet-1", 5, nil)

	b.AddScore(1)
	b.AddScore(2)
	if b.Score() != 2 {
		t.Fatalf("expected score 2, got %d", b.Score())
	}
	if b.Credits() != 5 {
		t.Fatalf("scoring must not touch credits, got %d", b.Credits())
	}
}

func TestRefillCreditsIgnoresNonPositiveAmounts(t *testing.T) {
	b := NewBookkeeper("cabinet-1", 1, nil)

	b.RefillCredits(1, 4)
	if b.Credits() != 5 {
		t.Fatalf("expected 5 credits, got %d", b.Credits())
	}
	b.RefillCredits(2, 0)
	b.RefillCredits(3, -3)
	if b.Credits() != 5 {
		t.Fatalf("non-positive refills changed the balance: %d", b.Credits())
	}
}

func TestNegativeStartingBalanceClampsToZero(t *testing.T) {
	b := NewBookkeeper("cabinet-1", -7, nil)
	if b.Credits() != 0 {
		t.Fatalf("expected 0 credits, got %d", b.Credits())
	}
}
