package server

import (
	"context"
	"math"
	"math/rand"
	"time"

	"grab-and-go/server/logging"
	loggingclaw "grab-and-go/server/logging/claw"
	loggingrounds "grab-and-go/server/logging/rounds"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandGesture    CommandType = "Gesture"
	CommandInsertCoin CommandType = "InsertCoin"
)

// Command represents an intent captured for processing on the next tick.
// Heartbeats stay session-level and never enter the queue.
type Command struct {
	OriginTick uint64
	CabinetID  string
	Type       CommandType
	IssuedAt   time.Time
	Gesture    *GestureCommand
	Coin       *InsertCoinCommand
}

// GestureCommand carries one normalized input frame from the classifier.
type GestureCommand struct {
	Sample GestureSample
}

// InsertCoinCommand adds credits to the cabinet.
type InsertCoinCommand struct {
	Amount int
}

// Round result labels exposed in the snapshot once a cycle completes.
const (
	ResultNone       = ""
	ResultWin        = "win"
	ResultMiss       = "miss"
	ResultSlip       = "slip"
	ResultPitDrop    = "pit_drop"
	ResultMissedExit = "missed_exit"
)

// gestureStaleTicks bounds how long the last sample stays current when the
// client stops sending frames; past it the hand counts as absent.
const gestureStaleTicks = 30

// World owns the authoritative state of one cabinet: the physics pit, the
// claw rig, the turn controller, and the bookkeeper. All mutation happens
// inside Step, on the hub's simulation goroutine.
type World struct {
	cabinetID string
	config    CabinetConfig
	pit       *Pit
	claw      ClawRig
	phase     Phase
	book      *Bookkeeper

	rng     *rand.Rand // slip rolls
	toysRNG *rand.Rand // archetype, color, scale, spawn positions
	seed    string

	publisher   logging.Publisher
	currentTick uint64

	gesture    GestureSample
	gestureAge int

	grabTrigger    gestureTrigger
	releaseTrigger gestureTrigger

	settleElapsed      int
	countdownRemaining int
	attempt            *grabAttempt
	falling            *fallingDrop
	lastResult         string
}

// newWorld constructs a cabinet world with boundaries built and the first
// toy batch already raining into the pit.
func newWorld(cabinetID string, cfg CabinetConfig, publisher logging.Publisher) *World {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	w := &World{
		cabinetID: cabinetID,
		config:    normalized,
		pit:       NewPit(normalized.Width, normalized.Height),
		phase:     PhaseSettling,
		seed:      normalized.Seed,
		publisher: publisher,
	}
	w.rng = w.subsystemRNG("claw.slip")
	w.toysRNG = w.subsystemRNG("toys")
	w.book = NewBookkeeper(cabinetID, normalized.StartingCredits, publisher)

	w.claw = ClawRig{
		HubX: normalized.Width / 2,
		HubY: clawHubHeight,
	}

	w.grabTrigger = newTrigger(normalized.GrabPolicy, GesturePinch, normalized.ReleaseWindow)
	w.releaseTrigger = newTrigger(normalized.ReleasePolicy, GestureOpen, normalized.ReleaseWindow)

	w.pit.InitBoundaries(normalized.Width, normalized.Height)
	w.pit.SpawnToys(normalized.ToyCount, w.toysRNG)
	return w
}

// Step advances the cabinet by a single tick: apply staged commands, step
// physics once, then advance the turn controller. Strictly in that order.
func (w *World) Step(tick uint64, now time.Time, dt float64, commands []Command) {
	w.currentTick = tick

	sawGesture := false
	for _, cmd := range commands {
		switch cmd.Type {
		case CommandGesture:
			if cmd.Gesture == nil {
				continue
			}
			sample := cmd.Gesture.Sample
			sample.X = clamp(sample.X, 0, 1)
			sample.Y = clamp(sample.Y, 0, 1)
			w.gesture = sample
			w.gestureAge = 0
			sawGesture = true
		case CommandInsertCoin:
			if cmd.Coin == nil {
				continue
			}
			w.book.RefillCredits(tick, cmd.Coin.Amount)
		}
	}
	if !sawGesture {
		w.gestureAge++
		if w.gestureAge > gestureStaleTicks {
			w.gesture.Present = false
		}
	}

	w.pit.Step(dt)
	w.advancePhase()
}

func (w *World) transitionTo(next Phase) {
	if next == w.phase {
		return
	}
	loggingrounds.PhaseChanged(context.Background(), w.publisher, w.currentTick, w.worldRef(),
		loggingrounds.PhaseChangedPayload{From: string(w.phase), To: string(next)})
	w.phase = next
}

func (w *World) advancePhase() {
	switch w.phase {
	case PhaseSettling:
		w.stepSettling()
	case PhaseCountdown:
		w.stepCountdown()
	case PhaseReady:
		w.stepReady()
	case PhaseDescending:
		w.stepDescending()
	case PhaseClosing:
		w.stepClosing()
	case PhaseLifting:
		w.stepLifting()
	case PhaseCarrying:
		w.stepCarrying()
	case PhaseDropping:
		w.stepDropping()
	}
}

func (w *World) stepSettling() {
	w.settleElapsed++
	settled := w.pit.MaxToySpeed() < settleSpeedThreshold
	timedOut := w.settleElapsed >= maxSettleWaitTicks
	if !settled && !timedOut {
		return
	}
	if timedOut && !settled {
		loggingrounds.SettleTimeout(context.Background(), w.publisher, w.currentTick, w.worldRef())
	}
	w.settleElapsed = 0
	w.countdownRemaining = countdownDuration
	w.transitionTo(PhaseCountdown)
}

func (w *World) stepCountdown() {
	w.countdownRemaining--
	if w.countdownRemaining > 0 {
		return
	}
	w.countdownRemaining = 0
	w.transitionTo(PhaseReady)
}

func (w *World) stepReady() {
	w.claw.Grip = stepToward(w.claw.Grip, 0, gripRatePerTick)
	w.trackCursor(readySmoothingGain)

	if !w.grabTrigger.Observe(w.gesture) {
		return
	}
	// The credit leaves the balance on the trigger tick, before any of the
	// automated sequence runs.
	if !w.book.SpendCredit(w.currentTick) {
		return
	}

	w.claw.targetDepth = w.computeDescentTarget()
	w.lastResult = ResultNone
	loggingclaw.GrabTriggered(context.Background(), w.publisher, w.currentTick, w.clawRef(),
		loggingclaw.GrabTriggeredPayload{TargetDepth: w.claw.targetDepth, HubX: w.claw.HubX})
	w.transitionTo(PhaseDescending)
}

// computeDescentTarget runs once per grab attempt: a vertical ray below the
// hub picks the nearest toy, and the depth stops the prongs just above its
// primary shape. With nothing below, the claw descends almost to the floor.
func (w *World) computeDescentTarget() float64 {
	hits := w.pit.CastVerticalRay(w.claw.HubX, w.claw.HubY)
	if len(hits) == 0 {
		return floorDescentDepth
	}
	depth := (hits[0].topY - w.claw.HubY - clawClearance) / clawMaxExtension
	return clamp(depth, minDescentDepth, 1.0)
}

func (w *World) stepDescending() {
	w.claw.Extension = stepToward(w.claw.Extension, w.claw.targetDepth, descentRatePerTick)
	if w.claw.Extension != w.claw.targetDepth {
		return
	}
	w.transitionTo(PhaseClosing)
}

func (w *World) stepClosing() {
	w.claw.Grip = stepToward(w.claw.Grip, 1, gripRatePerTick)
	if w.claw.Grip != 1 {
		return
	}
	w.resolveGrip()
	w.transitionTo(PhaseLifting)
}

// resolveGrip is the one-time decision, at full closure, of whether a toy is
// attached and how precisely.
func (w *World) resolveGrip() {
	center := w.claw.gripCenter()
	id, dist, ok := w.pit.NearestToyWithin(center, grabRadius)
	if !ok {
		w.attempt = &grabAttempt{}
		loggingclaw.GripMissed(context.Background(), w.publisher, w.currentTick, w.clawRef())
		return
	}
	w.attempt = &grabAttempt{
		toy:          id,
		attached:     true,
		misalignment: dist,
		unstable:     dist > stabilityThreshold,
	}
	w.pit.AttachLift(w.claw.tip(), id)
	loggingclaw.GripAttached(context.Background(), w.publisher, w.currentTick, w.toyRef(id),
		loggingclaw.GripAttachedPayload{Misalignment: dist, Unstable: w.attempt.unstable})
}

func (w *World) stepLifting() {
	w.claw.Extension = stepToward(w.claw.Extension, 0, descentRatePerTick)

	if w.attempt != nil && w.attempt.attached {
		if _, ok := w.pit.LiftedToy(); !ok {
			w.recoverToReady("lift_constraint_lost")
			return
		}
		w.pit.MoveLiftAnchor(w.claw.tip())
		w.rollForSlip()
	}

	holding := w.attempt != nil && w.attempt.attached
	if !holding {
		// A missed or slipped grab opens up on the way back so the rig
		// arrives in ready already reset.
		w.claw.Grip = stepToward(w.claw.Grip, 0, gripRatePerTick)
	}

	if w.claw.Extension != 0 {
		return
	}
	if holding {
		w.releaseTrigger.Reset()
		w.transitionTo(PhaseCarrying)
		return
	}
	if w.claw.Grip != 0 {
		return
	}
	if w.lastResult == ResultNone {
		w.lastResult = ResultMiss
	}
	w.attempt = nil
	w.transitionTo(PhaseReady)
}

// rollForSlip draws once per tick while a toy hangs from the claw. Unstable
// grips slip more, and the first stretch of travel doubles the chance,
// modeling the mechanism's vulnerability to the initial jerk.
func (w *World) rollForSlip() {
	chance := slipChanceStable
	if w.attempt.unstable {
		chance = slipChanceUnstable
	}
	progress := 1 - w.claw.Extension
	if progress < earlyLiftFraction {
		chance *= earlyLiftMultiplier
	}
	if w.randomFloat() >= chance {
		return
	}
	w.pit.ReleaseLift()
	w.attempt.attached = false
	w.lastResult = ResultSlip
	loggingclaw.ToySlipped(context.Background(), w.publisher, w.currentTick, w.toyRef(w.attempt.toy),
		loggingclaw.ToySlippedPayload{LiftProgress: progress, Unstable: w.attempt.unstable})
}

func (w *World) stepCarrying() {
	if w.attempt == nil || !w.attempt.attached {
		w.recoverToReady("carry_without_toy")
		return
	}
	if _, ok := w.pit.LiftedToy(); !ok {
		w.recoverToReady("toy_detached")
		return
	}

	w.trackCursor(carrySmoothingGain)
	w.pit.MoveLiftAnchor(w.claw.tip())

	if !w.releaseTrigger.Observe(w.gesture) {
		return
	}

	// The constraint is removed exactly once, here; exit-zone eligibility is
	// judged at this same instant.
	exitZone := w.claw.HubX >= w.config.Width*exitZoneFraction
	toy := w.attempt.toy
	w.pit.ReleaseLift()
	loggingclaw.ToyReleased(context.Background(), w.publisher, w.currentTick, w.toyRef(toy),
		loggingclaw.ToyReleasedPayload{HubX: w.claw.HubX, ExitZone: exitZone})
	if exitZone {
		w.falling = &fallingDrop{toy: toy}
	} else {
		w.lastResult = ResultPitDrop
	}
	w.attempt = nil
	w.transitionTo(PhaseDropping)
}

func (w *World) stepDropping() {
	w.claw.Grip = stepToward(w.claw.Grip, 0, gripRatePerTick)
	w.pollFallingDrop()

	if w.claw.Grip != 0 || w.falling != nil {
		return
	}
	if w.pit.ToyCount() == 0 {
		w.refillPit()
		return
	}
	w.transitionTo(PhaseReady)
}

// pollFallingDrop watches a toy released over the exit zone. Scoring needs
// the toy observed fully below the screen; a drop that re-settles in the
// pit, or that outlives the tracking window, ends the attempt scoreless.
func (w *World) pollFallingDrop() {
	if w.falling == nil {
		return
	}
	pos, _, ok := w.pit.ToyPosition(w.falling.toy)
	if !ok {
		w.falling = nil
		return
	}
	if pos.Y > w.config.Height+toyVanishMargin {
		w.pit.RemoveToy(w.falling.toy)
		w.book.AddScore(w.currentTick)
		w.lastResult = ResultWin
		w.falling = nil
		return
	}

	w.falling.elapsed++
	speed, _ := w.pit.ToySpeed(w.falling.toy)
	if speed < settleSpeedThreshold && pos.Y < w.config.Height {
		w.falling.settledFor++
	} else {
		w.falling.settledFor = 0
	}
	if w.falling.settledFor >= dropSettleGrace || w.falling.elapsed >= dropTrackMaxTicks {
		w.lastResult = ResultMissedExit
		w.falling = nil
	}
}

func (w *World) refillPit() {
	w.pit.SpawnToys(w.config.ToyCount, w.toysRNG)
	loggingrounds.PitRefilled(context.Background(), w.publisher, w.currentTick, w.worldRef(),
		loggingrounds.PitRefilledPayload{ToyCount: w.config.ToyCount})
	w.settleElapsed = 0
	w.transitionTo(PhaseSettling)
}

// recoverToReady is the worst-case recovery path: physics and controller
// state desynchronized, so every attempt-scoped handle is cleared before the
// rig returns to ready. No orphaned constraint survives this.
func (w *World) recoverToReady(reason string) {
	w.pit.ReleaseLift()
	w.attempt = nil
	loggingclaw.AttemptRecovered(context.Background(), w.publisher, w.currentTick, w.clawRef(),
		loggingclaw.AttemptRecoveredPayload{Reason: reason})
	w.transitionTo(PhaseReady)
}

// trackCursor eases the hub toward the normalized cursor. The vertical axis
// only follows under the free-height policy; the default pins it.
func (w *World) trackCursor(gain float64) {
	if !w.gesture.Present {
		return
	}
	targetX := w.gesture.X * w.config.Width
	w.claw.HubX += (targetX - w.claw.HubX) * gain
	w.claw.HubX = clamp(w.claw.HubX, wallThickness, w.config.Width-wallThickness)

	if w.config.FreeClawHeight {
		targetY := w.gesture.Y * w.config.Height
		w.claw.HubY += (targetY - w.claw.HubY) * gain
		w.claw.HubY = clamp(w.claw.HubY, wallThickness, w.config.Height*0.5)
	} else {
		w.claw.HubY = clawHubHeight
	}
}

// CountdownSeconds reports whole seconds remaining for display, rounded up.
func (w *World) CountdownSeconds() int {
	if w.phase != PhaseCountdown || w.countdownRemaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(w.countdownRemaining) / float64(tickRate)))
}

func (w *World) worldRef() logging.EntityRef {
	return logging.EntityRef{ID: w.cabinetID, Kind: logging.EntityKindWorld}
}

func (w *World) clawRef() logging.EntityRef {
	return logging.EntityRef{ID: w.cabinetID, Kind: logging.EntityKindClaw}
}

func (w *World) toyRef(id ToyID) logging.EntityRef {
	return logging.EntityRef{ID: formatToyID(id), Kind: logging.EntityKindToy}
}
