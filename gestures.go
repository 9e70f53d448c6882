package server

// Gesture is the discrete label produced by the client-side hand classifier.
// The server never sees raw landmarks, only one sample per tick.
type Gesture string

const (
	GestureNone  Gesture = "none"
	GesturePoint Gesture = "point"
	GesturePinch Gesture = "pinch"
	GestureOpen  Gesture = "open"
)

// GestureSample is one normalized input frame. X and Y are in [0,1] relative
// to the playfield. Present reports whether a hand was tracked at all; a
// missing hand is "no command this tick", never an error.
type GestureSample struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Gesture Gesture `json:"gesture"`
	Present bool    `json:"present"`
}

func (s GestureSample) matches(g Gesture) bool {
	return s.Present && s.Gesture == g
}

// gestureTrigger turns a per-tick gesture stream into discrete command
// firings. Implementations must fire at most once per continuous hold.
type gestureTrigger interface {
	// Observe consumes one sample and reports whether the command fires
	// this tick.
	Observe(sample GestureSample) bool
	// Reset clears any accumulated hold state.
	Reset()
}

// edgeTrigger fires on the transition frame from "not this gesture" to
// "this gesture". A held gesture never re-fires.
type edgeTrigger struct {
	gesture Gesture
	held    bool
}

func newEdgeTrigger(g Gesture) *edgeTrigger {
	return &edgeTrigger{gesture: g}
}

func (t *edgeTrigger) Observe(sample GestureSample) bool {
	match := sample.matches(t.gesture)
	fired := match && !t.held
	t.held = match
	return fired
}

func (t *edgeTrigger) Reset() {
	t.held = false
}

// windowTrigger requires the gesture to be observed for a fixed number of
// consecutive ticks before firing, suppressing one-frame misclassifications.
// Any non-matching tick resets the streak; after firing, the streak must be
// rebuilt from zero.
type windowTrigger struct {
	gesture Gesture
	window  int
	streak  int
}

func newWindowTrigger(g Gesture, window int) *windowTrigger {
	if window < 1 {
		window = 1
	}
	return &windowTrigger{gesture: g, window: window}
}

func (t *windowTrigger) Observe(sample GestureSample) bool {
	if !sample.matches(t.gesture) {
		t.streak = 0
		return false
	}
	t.streak++
	if t.streak < t.window {
		return false
	}
	t.streak = 0
	return true
}

func (t *windowTrigger) Reset() {
	t.streak = 0
}

// newTrigger builds the configured debounce policy for a command gesture.
func newTrigger(policy string, g Gesture, window int) gestureTrigger {
	if policy == TriggerPolicyWindow {
		return newWindowTrigger(g, window)
	}
	return newEdgeTrigger(g)
}
