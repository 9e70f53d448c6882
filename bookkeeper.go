package server

import (
	"context"

	"grab-and-go/server/logging"
	loggingeconomy "grab-and-go/server/logging/economy"
)

// Bookkeeper tracks credits and score for one cabinet. The controller calls
// it synchronously at its transition points; the timing relative to state
// transitions is part of the contract, so nothing here is polled or
// deferred. A credit is gone the same tick the grab trigger fires, which is
// what stops one ambiguous gesture reading from buying two grabs.
type Bookkeeper struct {
	credits int
	score   int

	cabinetID string
	publisher logging.Publisher
}

func NewBookkeeper(cabinetID string, startingCredits int, publisher logging.Publisher) *Bookkeeper {
	if startingCredits < 0 {
		startingCredits = 0
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Bookkeeper{
		credits:   startingCredits,
		cabinetID: cabinetID,
		publisher: publisher,
	}
}

func (b *Bookkeeper) Credits() int {
	return b.credits
}

func (b *Bookkeeper) Score() int {
	return b.score
}

// SpendCredit consumes one credit and reports whether the spend happened.
func (b *Bookkeeper) SpendCredit(tick uint64) bool {
	if b.credits <= 0 {
		loggingeconomy.CreditRefused(context.Background(), b.publisher, tick, b.ref())
		return false
	}
	b.credits--
	loggingeconomy.CreditSpent(context.Background(), b.publisher, tick, b.ref(),
		loggingeconomy.CreditSpentPayload{Remaining: b.credits})
	return true
}

// AddScore records one successfully exited toy.
func (b *Bookkeeper) AddScore(tick uint64) {
	b.score++
	loggingeconomy.ScoreAwarded(context.Background(), b.publisher, tick, b.ref(),
		loggingeconomy.ScoreAwardedPayload{Score: b.score})
}

// RefillCredits adds coins to the balance.
func (b *Bookkeeper) RefillCredits(tick uint64, amount int) {
	if amount <= 0 {
		return
	}
	b.credits += amount
	loggingeconomy.CreditsRefilled(context.Background(), b.publisher, tick, b.ref(),
		loggingeconomy.CreditsRefilledPayload{Amount: amount, Balance: b.credits})
}

func (b *Bookkeeper) ref() logging.EntityRef {
	return logging.EntityRef{ID: b.cabinetID, Kind: logging.EntityKindCabinet}
}
