package server

import (
	"math/rand"
	"sort"

	cp "github.com/jakecoffman/cp/v2"
)

type vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v vec2) toCP() cp.Vector {
	return cp.Vector{X: v.X, Y: v.Y}
}

// ToyID is an opaque handle into the pit's toy registry. Game logic never
// holds a live reference into the physics space, only an ID plus the pit's
// query surface.
type ToyID uint64

// rayHit is one result of a vertical ray query, ordered nearest-first.
type rayHit struct {
	id   ToyID
	topY float64 // topmost point of the primary shape; ears are excluded
}

type toyBody struct {
	Toy
	body   *cp.Body
	shapes []*cp.Shape
}

type boundary struct {
	body  *cp.Body
	shape *cp.Shape
	// home is the body position expressed as a fraction of the playfield,
	// so Resize can reposition without recreating geometry.
	homeX, homeY float64
}

// Pit owns the rigid-body space: static boundary geometry, toy bodies, and
// the single lift constraint. Y grows downward, matching the client canvas.
type Pit struct {
	space         *cp.Space
	width, height float64
	bounds        []*boundary
	boundsReady   bool

	toys      map[ToyID]*toyBody
	nextToyID uint64

	anchor  *cp.Body
	lift    *cp.Constraint
	liftToy ToyID
	lifting bool
}

// NewPit creates an empty space with gravity but no geometry; call
// InitBoundaries before spawning toys.
func NewPit(width, height float64) *Pit {
	space := cp.NewSpace()
	space.Iterations = 12
	space.SetGravity(cp.Vector{X: 0, Y: gravityY})

	anchor := cp.NewKinematicBody()
	space.AddBody(anchor)

	return &Pit{
		space:  space,
		width:  width,
		height: height,
		toys:   make(map[ToyID]*toyBody),
		anchor: anchor,
	}
}

// InitBoundaries creates the four static bodies: a floor spanning the pit
// (left 75% of the width), left and right walls, and the separator wall at
// the 75% mark dividing the pit from the exit region. Safe to call again; it
// is a no-op until an explicit Resize.
func (p *Pit) InitBoundaries(width, height float64) {
	if p.boundsReady {
		return
	}
	p.width = width
	p.height = height
	sepX := width * exitZoneFraction

	p.bounds = []*boundary{
		// Floor under the pit only. The exit region is open below.
		p.addStaticSegment(0, height, vec2{0, 0}, vec2{sepX, 0}),
		// Side walls.
		p.addStaticSegment(0, 0, vec2{0, 0}, vec2{0, height}),
		p.addStaticSegment(width, 0, vec2{0, 0}, vec2{0, height}),
		// Separator: rises from the floor to roughly mid-field so a carried
		// toy clears it while pit toys cannot tumble across.
		p.addStaticSegment(sepX, height, vec2{0, 0}, vec2{0, -height * 0.55}),
	}
	for _, b := range p.bounds {
		b.homeX = safeFraction(b.body.Position().X, width)
		b.homeY = safeFraction(b.body.Position().Y, height)
	}
	p.boundsReady = true
}

func (p *Pit) addStaticSegment(x, y float64, a, b vec2) *boundary {
	body := cp.NewStaticBody()
	p.space.AddBody(body)
	body.SetPosition(cp.Vector{X: x, Y: y})
	shape := p.space.AddShape(cp.NewSegment(body, a.toCP(), b.toCP(), wallThickness/2))
	shape.SetFriction(toyFriction)
	shape.SetElasticity(toyRestitution)
	return &boundary{body: body, shape: shape}
}

func safeFraction(v, span float64) float64 {
	if span == 0 {
		return 0
	}
	return v / span
}

// Resize repositions the boundary bodies for new dimensions. Known gap: the
// segment endpoints are fixed at creation, so a true width change does not
// stretch the floor span; the geometry would need recreation for that.
func (p *Pit) Resize(width, height float64) {
	if !p.boundsReady {
		p.InitBoundaries(width, height)
		return
	}
	p.width = width
	p.height = height
	for _, b := range p.bounds {
		b.body.SetPosition(cp.Vector{X: b.homeX * width, Y: b.homeY * height})
		b.body.EachShape(func(s *cp.Shape) { p.space.ReindexShape(s) })
	}
}

// Step advances the simulation once. The controller calls this exactly once
// per game tick; a fixed timestep keeps stacking deterministic enough, so
// wildly long frames are clamped rather than integrated in full.
func (p *Pit) Step(dt float64) {
	nominal := 1.0 / float64(tickRate)
	if dt <= 0 || dt > 2*nominal {
		dt = nominal
	}
	p.space.Step(dt)
}

// sortedToyIDs returns live toy IDs in ascending order. Queries iterate in
// this order, which makes the equidistant tie-break "lowest ID wins".
func (p *Pit) sortedToyIDs() []ToyID {
	ids := make([]ToyID, 0, len(p.toys))
	for id := range p.toys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NearestToyWithin returns the toy whose center is closest to point and at
// most radius away. An empty result is an expected outcome, not an error.
func (p *Pit) NearestToyWithin(point vec2, radius float64) (ToyID, float64, bool) {
	bestID := ToyID(0)
	bestDist := radius
	found := false
	for _, id := range p.sortedToyIDs() {
		toy := p.toys[id]
		dist := toy.body.Position().Distance(point.toCP())
		if dist < bestDist || (!found && dist == bestDist) {
			bestID = id
			bestDist = dist
			found = true
		}
	}
	return bestID, bestDist, found
}

// CastVerticalRay collects the toys straddling the vertical line at x below
// fromY, ordered nearest-first. Each hit reports the top of the toy's primary
// shape only: a floppy ear must not stop the descent early.
func (p *Pit) CastVerticalRay(x, fromY float64) []rayHit {
	hits := make([]rayHit, 0, 4)
	for _, id := range p.sortedToyIDs() {
		toy := p.toys[id]
		pos := toy.body.Position()
		headR := toyHeadRadius * toy.Scale
		if pos.X-headR > x || pos.X+headR < x {
			continue
		}
		topY := pos.Y - headR
		if topY <= fromY {
			continue
		}
		hits = append(hits, rayHit{id: id, topY: topY})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].topY < hits[j].topY })
	return hits
}

// AttachLift pins the toy's center to a kinematic anchor at the claw tip
// with a short, stiff spring. At most one lift exists at a time; attaching
// over a live lift releases the old one first.
func (p *Pit) AttachLift(tip vec2, id ToyID) bool {
	toy, ok := p.toys[id]
	if !ok {
		return false
	}
	p.ReleaseLift()
	p.anchor.SetPosition(tip.toCP())
	spring := cp.NewDampedSpring(p.anchor, toy.body,
		cp.Vector{}, cp.Vector{}, clawGripOffset, 4000, 60)
	p.lift = p.space.AddConstraint(spring)
	p.liftToy = id
	p.lifting = true
	return true
}

// MoveLiftAnchor re-pins the anchor to follow the claw tip.
func (p *Pit) MoveLiftAnchor(tip vec2) {
	p.anchor.SetPosition(tip.toCP())
}

// ReleaseLift detaches the lifted toy. Idempotent against an already
// released lift.
func (p *Pit) ReleaseLift() {
	if p.lift == nil {
		return
	}
	p.space.RemoveConstraint(p.lift)
	p.lift = nil
	p.liftToy = 0
	p.lifting = false
}

// LiftedToy reports which toy the live constraint holds, if any.
func (p *Pit) LiftedToy() (ToyID, bool) {
	if !p.lifting {
		return 0, false
	}
	if _, ok := p.toys[p.liftToy]; !ok {
		return 0, false
	}
	return p.liftToy, true
}

// RemoveToy deletes a toy from the simulation permanently.
func (p *Pit) RemoveToy(id ToyID) bool {
	toy, ok := p.toys[id]
	if !ok {
		return false
	}
	if p.lifting && p.liftToy == id {
		p.ReleaseLift()
	}
	for _, shape := range toy.shapes {
		p.space.RemoveShape(shape)
	}
	p.space.RemoveBody(toy.body)
	delete(p.toys, id)
	return true
}

// ToyPosition resolves a toy's center and rotation.
func (p *Pit) ToyPosition(id ToyID) (vec2, float64, bool) {
	toy, ok := p.toys[id]
	if !ok {
		return vec2{}, 0, false
	}
	pos := toy.body.Position()
	return vec2{X: pos.X, Y: pos.Y}, toy.body.Angle(), true
}

// ToySpeed returns a toy's linear speed in pixels per second.
func (p *Pit) ToySpeed(id ToyID) (float64, bool) {
	toy, ok := p.toys[id]
	if !ok {
		return 0, false
	}
	return toy.body.Velocity().Length(), true
}

// MaxToySpeed reports the fastest toy, used by the settle gate.
func (p *Pit) MaxToySpeed() float64 {
	max := 0.0
	for _, toy := range p.toys {
		if speed := toy.body.Velocity().Length(); speed > max {
			max = speed
		}
	}
	return max
}

// ToyCount reports how many toys remain in the simulation.
func (p *Pit) ToyCount() int {
	return len(p.toys)
}

// removeAllToys clears the registry ahead of a refill.
func (p *Pit) removeAllToys() {
	for _, id := range p.sortedToyIDs() {
		p.RemoveToy(id)
	}
}

// SpawnToys replaces the toy population: count new compound bodies at random
// horizontal positions within the left spawn band of the pit, staggered
// above the screen so they rain into place over the following ticks.
func (p *Pit) SpawnToys(count int, rng *rand.Rand) []ToyID {
	p.removeAllToys()
	if count <= 0 || rng == nil {
		return nil
	}
	pitWidth := p.width * exitZoneFraction
	minX := wallThickness + toyHeadRadius*toyMaxScale
	maxX := pitWidth*toySpawnBand - toyHeadRadius*toyMaxScale
	if maxX < minX {
		maxX = minX
	}

	ids := make([]ToyID, 0, count)
	for i := 0; i < count; i++ {
		archetype := toyArchetypes[rng.Intn(len(toyArchetypes))]
		color := toyColors[rng.Intn(len(toyColors))]
		scale := toyMinScale + rng.Float64()*(toyMaxScale-toyMinScale)
		x := minX + rng.Float64()*(maxX-minX)
		y := -float64(i)*toyHeadRadius*2.4 - toyHeadRadius
		ids = append(ids, p.spawnToy(archetype, color, scale, vec2{X: x, Y: y}))
	}
	return ids
}

func (p *Pit) spawnToy(archetype ToyArchetype, color string, scale float64, at vec2) ToyID {
	p.nextToyID++
	id := ToyID(p.nextToyID)

	headR := toyHeadRadius * scale
	earR := toyEarRadius * scale
	ears := archetype.earOffsets(scale)

	headMoment := cp.MomentForCircle(toyMass*0.7, 0, headR, cp.Vector{})
	earMoment := cp.MomentForCircle(toyMass*0.15, 0, earR, ears[0].toCP()) +
		cp.MomentForCircle(toyMass*0.15, 0, earR, ears[1].toCP())

	body := cp.NewBody(toyMass, headMoment+earMoment)
	p.space.AddBody(body)
	body.SetPosition(at.toCP())

	shapes := make([]*cp.Shape, 0, 3)
	head := p.space.AddShape(cp.NewCircle(body, headR, cp.Vector{}))
	shapes = append(shapes, head)
	for _, offset := range ears {
		ear := p.space.AddShape(cp.NewCircle(body, earR, offset.toCP()))
		shapes = append(shapes, ear)
	}
	for _, shape := range shapes {
		shape.SetFriction(toyFriction)
		shape.SetElasticity(toyRestitution)
	}

	p.toys[id] = &toyBody{
		Toy: Toy{
			ID:        id,
			Archetype: archetype,
			Color:     color,
			Scale:     scale,
		},
		body:   body,
		shapes: shapes,
	}
	return id
}

// Toys copies the live toy descriptors with current transforms, sorted by
// ID, for the presentation snapshot.
func (p *Pit) Toys() []ToySnapshot {
	out := make([]ToySnapshot, 0, len(p.toys))
	for _, id := range p.sortedToyIDs() {
		toy := p.toys[id]
		pos := toy.body.Position()
		out = append(out, ToySnapshot{
			Toy:   toy.Toy,
			X:     pos.X,
			Y:     pos.Y,
			Angle: toy.body.Angle(),
		})
	}
	return out
}
