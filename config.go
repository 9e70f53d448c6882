package server

import "strings"

const defaultWorldSeed = "prototype"

// Trigger policy names accepted by CabinetConfig.
const (
	TriggerPolicyEdge   = "edge"
	TriggerPolicyWindow = "window"
)

// CabinetConfig captures the toggles used when generating a cabinet world.
type CabinetConfig struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	ToyCount        int     `json:"toyCount"`
	StartingCredits int     `json:"startingCredits"`
	Seed            string  `json:"seed"`

	// FreeClawHeight lets the player steer the hub vertically. The default
	// pins the hub to a fixed height and only tracks the cursor on X.
	FreeClawHeight bool `json:"freeClawHeight"`

	// GrabPolicy and ReleasePolicy pick the debounce strategy per command.
	// Releasing early costs the player more than a delayed drop, so release
	// defaults to the consecutive-frame window.
	GrabPolicy    string `json:"grabPolicy"`
	ReleasePolicy string `json:"releasePolicy"`
	ReleaseWindow int    `json:"releaseWindow"`
}

// normalized returns a config with defaults applied.
func (cfg CabinetConfig) normalized() CabinetConfig {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultWorldSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = defaultWorldWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = defaultWorldHeight
	}
	if normalized.ToyCount <= 0 {
		normalized.ToyCount = defaultToyCount
	}
	if normalized.StartingCredits < 0 {
		normalized.StartingCredits = defaultCredits
	}
	if normalized.GrabPolicy != TriggerPolicyWindow {
		normalized.GrabPolicy = TriggerPolicyEdge
	}
	if normalized.ReleasePolicy != TriggerPolicyEdge {
		normalized.ReleasePolicy = TriggerPolicyWindow
	}
	if normalized.ReleaseWindow <= 0 {
		normalized.ReleaseWindow = releaseWindowTicks
	}
	return normalized
}

// DefaultCabinetConfig mirrors the reference cabinet: fixed-height claw,
// edge-triggered grab, window-gated release.
func DefaultCabinetConfig() CabinetConfig {
	return CabinetConfig{
		Width:           defaultWorldWidth,
		Height:          defaultWorldHeight,
		ToyCount:        defaultToyCount,
		StartingCredits: defaultCredits,
		Seed:            defaultWorldSeed,
		GrabPolicy:      TriggerPolicyEdge,
		ReleasePolicy:   TriggerPolicyWindow,
		ReleaseWindow:   releaseWindowTicks,
	}
}
