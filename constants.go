package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 60 // ticks per second; animation rates below are per tick
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	defaultWorldWidth  = 800.0
	defaultWorldHeight = 600.0

	// Playfield layout. The floor spans the pit only; the exit region to the
	// right of the separator has no floor, so a released toy falls off-screen.
	exitZoneFraction = 0.75
	wallThickness    = 20.0
	toySpawnBand     = 0.6 // toys spawn within the left fraction of the pit
	toyVanishMargin  = 80.0

	// Claw rig geometry and animation.
	clawHubHeight       = 60.0  // hub Y under the fixed-height policy
	clawMaxExtension    = 480.0 // pixels of travel at extension 1.0
	clawClearance       = 26.0  // prong clearance above the targeted toy
	clawGripOffset      = 38.0  // grip center below the tip, where prongs wrap the head
	descentRatePerTick  = 0.012
	gripRatePerTick     = 0.05
	minDescentDepth     = 0.1
	floorDescentDepth   = 0.9 // depth used when no toy sits below the hub
	readySmoothingGain  = 0.2
	carrySmoothingGain  = 0.35
	grabRadius          = 34.0
	stabilityThreshold  = 14.0
	slipChanceStable    = 0.002
	slipChanceUnstable  = 0.02
	earlyLiftFraction   = 0.4
	earlyLiftMultiplier = 2.0
	dropTrackMaxTicks   = 600
	dropSettleGrace     = 45

	// Round sequencing.
	settleSpeedThreshold = 6.0 // pixels per second
	maxSettleWaitTicks   = 300
	countdownDuration    = 3 * tickRate
	defaultToyCount      = 8
	defaultCredits       = 5

	// Gesture debouncing.
	releaseWindowTicks = 15

	// Physics profile shared by every toy archetype.
	toyMass        = 1.0
	toyFriction    = 0.6
	toyRestitution = 0.15
	toyHeadRadius  = 22.0
	toyEarRadius   = 9.0
	toyMinScale    = 0.9
	toyMaxScale    = 1.2
	gravityY       = 600.0

	commandQueuePerActorLimit = 8
)
