package server

// Phase enumerates the turn-controller states. Automated phases run without
// gesture input; only ready and carrying interpret the player's hand.
type Phase string

const (
	PhaseSettling   Phase = "settling"
	PhaseCountdown  Phase = "countdown"
	PhaseReady      Phase = "ready"
	PhaseDescending Phase = "descending"
	PhaseClosing    Phase = "closing"
	PhaseLifting    Phase = "lifting"
	PhaseCarrying   Phase = "carrying"
	PhaseDropping   Phase = "dropping"
)

// ClawRig is the mutable rig state, owned exclusively by the world and
// updated in place each tick. Extension and Grip move monotonically toward
// their current target by at most the fixed per-tick rate, clamped to [0,1].
type ClawRig struct {
	HubX      float64
	HubY      float64
	Extension float64 // 0 retracted, 1 fully extended
	Grip      float64 // 0 open, 1 closed

	// targetDepth is fixed once per grab attempt, when the grab triggers in
	// ready. The descent honors it exactly and never recomputes mid-flight.
	targetDepth float64
}

// tip is the claw's lowest structural point at the current extension.
func (c *ClawRig) tip() vec2 {
	return vec2{X: c.HubX, Y: c.HubY + c.Extension*clawMaxExtension}
}

// gripCenter is where a closed grip holds a toy, just below the tip.
func (c *ClawRig) gripCenter() vec2 {
	t := c.tip()
	t.Y += clawGripOffset
	return t
}

// stepToward advances current toward target by at most rate, never
// overshooting, and keeps the result inside [0,1].
func stepToward(current, target, rate float64) float64 {
	if current < target {
		current += rate
		if current > target {
			current = target
		}
	} else if current > target {
		current -= rate
		if current < target {
			current = target
		}
	}
	return clamp(current, 0, 1)
}

// clamp limits value to the range [min, max].
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// grabAttempt is the attempt-scoped record created when the grip finishes
// closing. It dies when the toy is released, slips, or the grab misses.
type grabAttempt struct {
	toy          ToyID
	attached     bool
	misalignment float64
	unstable     bool
}

// fallingDrop tracks a toy released over the exit zone until physics reports
// it fully off-screen (score) or it visibly re-settles (no score).
type fallingDrop struct {
	toy        ToyID
	elapsed    int
	settledFor int
}
