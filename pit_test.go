package server

import (
	"testing"
)

func newTestPit() *Pit {
	p := NewPit(defaultWorldWidth, defaultWorldHeight)
	p.InitBoundaries(defaultWorldWidth, defaultWorldHeight)
	return p
}

func TestSpawnToysPopulatesLeftBand(t *testing.T) {
	p := newTestPit()
	rng := newDeterministicRNG("spawn-test", "toys")

	ids := p.SpawnToys(8, rng)
	if len(ids) != 8 {
		t.Fatalf("expected 8 toys, got %d", len(ids))
	}
	if p.ToyCount() != 8 {
		t.Fatalf("registry count mismatch: %d", p.ToyCount())
	}

	band := defaultWorldWidth * exitZoneFraction * toySpawnBand
	for _, id := range ids {
		pos, _, ok := p.ToyPosition(id)
		if !ok {
			t.Fatalf("spawned toy %d not found", id)
		}
		if pos.X > band {
			t.Fatalf("toy %d spawned outside the left band: x=%f", id, pos.X)
		}
		if pos.Y >= 0 {
			t.Fatalf("toy %d should start above the screen: y=%f", id, pos.Y)
		}
	}
}

func TestSpawnToysIsDeterministic(t *testing.T) {
	first := newTestPit()
	second := newTestPit()

	firstIDs := first.SpawnToys(6, newDeterministicRNG("seed-a", "toys"))
	secondIDs := second.SpawnToys(6, newDeterministicRNG("seed-a", "toys"))

	for i := range firstIDs {
		a, _, _ := first.ToyPosition(firstIDs[i])
		b, _, _ := second.ToyPosition(secondIDs[i])
		if a != b {
			t.Fatalf("toy %d spawned at %v vs %v", i, a, b)
		}
		at := first.toys[firstIDs[i]]
		bt := second.toys[secondIDs[i]]
		if at.Archetype != bt.Archetype || at.Color != bt.Color || at.Scale != bt.Scale {
			t.Fatalf("toy %d descriptors diverged", i)
		}
	}
}

func TestSpawnToysReplacesPopulation(t *testing.T) {
	p := newTestPit()
	rng := newDeterministicRNG("replace", "toys")

	p.SpawnToys(5, rng)
	p.SpawnToys(3, rng)
	if p.ToyCount() != 3 {
		t.Fatalf("expected replacement spawn to clear old toys, got %d", p.ToyCount())
	}
}

func TestResizeRepositionsBoundaries(t *testing.T) {
	p := newTestPit()

	p.Resize(defaultWorldWidth, 700)
	floor := p.bounds[0]
	if got := floor.body.Position().Y; got != 700 {
		t.Fatalf("floor not repositioned, y=%f", got)
	}
	right := p.bounds[2]
	if got := right.body.Position().X; got != defaultWorldWidth {
		t.Fatalf("right wall moved, x=%f", got)
	}
}

func TestNearestToyWithinPrefersLowestIDOnTie(t *testing.T) {
	p := newTestPit()
	first := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 180, Y: 400})
	second := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 220, Y: 400})

	// The probe point sits exactly halfway between the two centers.
	id, dist, ok := p.NearestToyWithin(vec2{X: 200, Y: 400}, grabRadius)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if id != first {
		t.Fatalf("tie should go to the lowest ID, got %d (other was %d)", id, second)
	}
	if dist != 20 {
		t.Fatalf("unexpected distance %f", dist)
	}
}

func TestNearestToyWithinRespectsRadius(t *testing.T) {
	p := newTestPit()
	p.spawnToy(ToyBunny, toyColors[1], 1, vec2{X: 100, Y: 400})

	if _, _, ok := p.NearestToyWithin(vec2{X: 100, Y: 400 + grabRadius + 50}, grabRadius); ok {
		t.Fatalf("toy outside the radius should not match")
	}
	if _, _, ok := p.NearestToyWithin(vec2{X: 100, Y: 410}, grabRadius); !ok {
		t.Fatalf("toy inside the radius should match")
	}
}

func TestCastVerticalRayOrdersNearestFirst(t *testing.T) {
	p := newTestPit()
	deep := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 300, Y: 500})
	shallow := p.spawnToy(ToyCat, toyColors[2], 1, vec2{X: 300, Y: 300})
	p.spawnToy(ToyBunny, toyColors[1], 1, vec2{X: 600, Y: 400})

	hits := p.CastVerticalRay(300, clawHubHeight)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits under the line, got %d", len(hits))
	}
	if hits[0].id != shallow || hits[1].id != deep {
		t.Fatalf("hits out of order: %v", hits)
	}
	if hits[0].topY != 300-toyHeadRadius {
		t.Fatalf("top of primary shape wrong: %f", hits[0].topY)
	}
}

func TestCastVerticalRayIgnoresToysAboveOrigin(t *testing.T) {
	p := newTestPit()
	p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 300, Y: clawHubHeight - 40})

	if hits := p.CastVerticalRay(300, clawHubHeight); len(hits) != 0 {
		t.Fatalf("toy above the origin must not register, got %d hits", len(hits))
	}
}

func TestAttachLiftIsExclusive(t *testing.T) {
	p := newTestPit()
	first := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 200, Y: 400})
	second := p.spawnToy(ToyCat, toyColors[1], 1, vec2{X: 260, Y: 400})

	if !p.AttachLift(vec2{X: 200, Y: 380}, first) {
		t.Fatalf("attach failed")
	}
	if id, ok := p.LiftedToy(); !ok || id != first {
		t.Fatalf("expected first toy lifted, got %d ok=%v", id, ok)
	}

	// Attaching a second toy must displace the first constraint, never
	// coexist with it.
	if !p.AttachLift(vec2{X: 260, Y: 380}, second) {
		t.Fatalf("second attach failed")
	}
	if id, ok := p.LiftedToy(); !ok || id != second {
		t.Fatalf("expected second toy lifted, got %d ok=%v", id, ok)
	}
}

func TestReleaseLiftIsIdempotent(t *testing.T) {
	p := newTestPit()
	id := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 200, Y: 400})

	p.AttachLift(vec2{X: 200, Y: 380}, id)
	p.ReleaseLift()
	p.ReleaseLift()

	if _, ok := p.LiftedToy(); ok {
		t.Fatalf("lift should be gone after release")
	}
}

func TestAttachLiftUnknownToy(t *testing.T) {
	p := newTestPit()
	if p.AttachLift(vec2{X: 200, Y: 380}, ToyID(999)) {
		t.Fatalf("attaching a missing toy must fail")
	}
}

func TestRemoveToyClearsLiveLift(t *testing.T) {
	p := newTestPit()
	id := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 200, Y: 400})
	p.AttachLift(vec2{X: 200, Y: 380}, id)

	if !p.RemoveToy(id) {
		t.Fatalf("remove failed")
	}
	if _, ok := p.LiftedToy(); ok {
		t.Fatalf("removing the lifted toy must drop the constraint")
	}
	if p.ToyCount() != 0 {
		t.Fatalf("toy still in registry")
	}
	if p.RemoveToy(id) {
		t.Fatalf("double remove should report false")
	}
}

func TestLiftedToyFollowsAnchor(t *testing.T) {
	p := newTestPit()
	id := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: 200, Y: 200})
	p.AttachLift(vec2{X: 200, Y: 180}, id)

	for i := 0; i < 240; i++ {
		p.MoveLiftAnchor(vec2{X: 500, Y: 100})
		p.Step(1.0 / tickRate)
	}

	pos, _, _ := p.ToyPosition(id)
	if pos.X < 400 {
		t.Fatalf("lifted toy did not follow the anchor, x=%f", pos.X)
	}
	if pos.Y > 250 {
		t.Fatalf("lifted toy did not rise with the anchor, y=%f", pos.Y)
	}
}

func TestToysSettleOnFloor(t *testing.T) {
	p := newTestPit()
	p.SpawnToys(4, newDeterministicRNG("settle", "toys"))

	for i := 0; i < maxSettleWaitTicks*2; i++ {
		p.Step(1.0 / tickRate)
		if p.MaxToySpeed() < settleSpeedThreshold && i > tickRate {
			break
		}
	}

	for _, snap := range p.Toys() {
		if snap.Y > defaultWorldHeight {
			t.Fatalf("toy %d fell through the floor: y=%f", snap.ID, snap.Y)
		}
		if snap.X > defaultWorldWidth*exitZoneFraction+wallThickness {
			t.Fatalf("toy %d crossed the separator: x=%f", snap.ID, snap.X)
		}
	}
}

func TestToyDroppedInExitRegionFallsOffScreen(t *testing.T) {
	p := newTestPit()
	exitX := defaultWorldWidth * (exitZoneFraction + 1) / 2
	id := p.spawnToy(ToyBear, toyColors[0], 1, vec2{X: exitX, Y: 150})

	gone := false
	for i := 0; i < dropTrackMaxTicks; i++ {
		p.Step(1.0 / tickRate)
		pos, _, ok := p.ToyPosition(id)
		if !ok {
			t.Fatalf("toy vanished unexpectedly")
		}
		if pos.Y > defaultWorldHeight+toyVanishMargin {
			gone = true
			break
		}
	}
	if !gone {
		t.Fatalf("exit region has no floor; the toy should have left the screen")
	}
}

func TestToysSnapshotSortedByID(t *testing.T) {
	p := newTestPit()
	p.SpawnToys(6, newDeterministicRNG("sorted", "toys"))

	snaps := p.Toys()
	for i := 1; i < len(snaps); i++ {
		if snaps[i-1].ID >= snaps[i].ID {
			t.Fatalf("snapshot not sorted at index %d", i)
		}
	}
}
