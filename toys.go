package server

// ToyArchetype names one of the three compound toy shapes. Every archetype
// is a primary head circle with two ear circles welded at fixed offsets;
// only the ear placement differs.
type ToyArchetype string

const (
	ToyBear  ToyArchetype = "bear"
	ToyBunny ToyArchetype = "bunny"
	ToyCat   ToyArchetype = "cat"
)

var toyArchetypes = []ToyArchetype{ToyBear, ToyBunny, ToyCat}

var toyColors = []string{
	"#e8a2b8",
	"#9fc2e8",
	"#f2d38a",
	"#a8d8b9",
	"#cdb4e2",
}

// earOffsets returns the two ear anchor points relative to the head center,
// scaled with the toy. Bears wear round ears high and close, bunnies carry
// tall ears nearly upright, cats spread short pointed ears wide.
func (a ToyArchetype) earOffsets(scale float64) [2]vec2 {
	var left, right vec2
	switch a {
	case ToyBunny:
		left = vec2{X: -8, Y: -30}
		right = vec2{X: 8, Y: -30}
	case ToyCat:
		left = vec2{X: -18, Y: -16}
		right = vec2{X: 18, Y: -16}
	default: // bear
		left = vec2{X: -14, Y: -18}
		right = vec2{X: 14, Y: -18}
	}
	left.X *= scale
	left.Y *= scale
	right.X *= scale
	right.Y *= scale
	return [2]vec2{left, right}
}

// Toy is the broadcast-friendly descriptor for one compound body.
type Toy struct {
	ID        ToyID        `json:"id"`
	Archetype ToyArchetype `json:"archetype"`
	Color     string       `json:"color"`
	Scale     float64      `json:"scale"`
}

// ToySnapshot pairs a toy descriptor with its current transform.
type ToySnapshot struct {
	Toy
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}
