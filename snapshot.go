package server

import "strconv"

// ClawSnapshot is the rig pose copied out for presentation.
type ClawSnapshot struct {
	HubX      float64 `json:"hubX"`
	HubY      float64 `json:"hubY"`
	Extension float64 `json:"extension"`
	Grip      float64 `json:"grip"`
}

// WorldSnapshot is the read-only view broadcast after each tick. Rendering
// reads it and must never reach back into the simulation.
type WorldSnapshot struct {
	Tick             uint64        `json:"tick"`
	Phase            Phase         `json:"phase"`
	Claw             ClawSnapshot  `json:"claw"`
	Toys             []ToySnapshot `json:"toys"`
	Credits          int           `json:"credits"`
	Score            int           `json:"score"`
	CountdownSeconds int           `json:"countdownSeconds"`
	LastResult       string        `json:"lastResult,omitempty"`
}

// Snapshot copies the cabinet's post-tick state into a broadcast-friendly
// struct. Toys are already sorted by ID.
func (w *World) Snapshot() WorldSnapshot {
	return WorldSnapshot{
		Tick:  w.currentTick,
		Phase: w.phase,
		Claw: ClawSnapshot{
			HubX:      w.claw.HubX,
			HubY:      w.claw.HubY,
			Extension: w.claw.Extension,
			Grip:      w.claw.Grip,
		},
		Toys:             w.pit.Toys(),
		Credits:          w.book.Credits(),
		Score:            w.book.Score(),
		CountdownSeconds: w.CountdownSeconds(),
		LastResult:       w.lastResult,
	}
}

func formatToyID(id ToyID) string {
	return "toy-" + strconv.FormatUint(uint64(id), 10)
}
