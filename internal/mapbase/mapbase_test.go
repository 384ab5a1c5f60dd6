package mapbase

import (
	"testing"

	"github.com/lab1702/zerobot/internal/pathfind"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// buildTestMap constructs a small arena: an open courtyard around the
// spawn, a long winding corridor leading into a walled pocket (the base).
// Everything outside the carved area is solid.
func buildTestMap(t *testing.T) *tilemap.Map {
	t.Helper()
	m := tilemap.New()

	// fill a working area with walls, then carve
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			m.SetTile(x, y, 1)
		}
	}
	carve := func(x0, y0, x1, y1 int) {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				m.SetTile(x, y, tilemap.TileEmpty)
			}
		}
	}

	// open courtyard around spawn
	carve(10, 10, 40, 40)
	// winding corridor: east, then south, then east again
	carve(40, 24, 70, 27)
	carve(67, 27, 70, 60)
	carve(70, 57, 95, 60)
	// base pocket at the corridor's end
	carve(95, 52, 110, 66)

	return m
}

func TestFindBases(t *testing.T) {
	m := buildTestMap(t)
	grid := pathfind.NewGrid(m, kShipRadius, 0xFFFF)

	cfg := Config{
		SpawnX:           25,
		SpawnY:           25,
		BaseCount:        1,
		EmptyExitRange:   8,
		FlagroomSize:     6,
		PopulateFloodMap: true,
	}
	set := FindBases(m, grid, cfg)

	if len(set.Bases) != 1 {
		t.Fatalf("found %d bases, want 1", len(set.Bases))
	}
	base := &set.Bases[0]

	// The winding-maximal tile should land in or near the pocket at the
	// corridor's far end, not in the open courtyard.
	fx, fy := int(base.FlagroomPosition.X()), int(base.FlagroomPosition.Y())
	if fx < 60 {
		t.Errorf("flagroom at (%d,%d), want it deep along the corridor", fx, fy)
	}

	// P4: the flagroom bitset must be contained in the full region bitset.
	contained := true
	base.FlagroomBitset.Each(func(x, y int) {
		if !base.Bitset.Test(x, y) {
			contained = false
		}
	})
	if !contained {
		t.Error("flagroom bitset not contained in base bitset (P4)")
	}

	// The flagroom tile itself belongs to both regions.
	if !base.Bitset.Test(fx, fy) || !base.FlagroomBitset.Test(fx, fy) {
		t.Error("flagroom center missing from its own regions")
	}

	// Containment query resolves the flagroom tile to this base.
	if got := set.BaseAt(fx, fy); got != base {
		t.Error("BaseAt(flagroom) did not return the base")
	}
	if got := set.BaseAt(0, 0); got != nil {
		t.Error("BaseAt(solid corner) should be nil")
	}

	if base.MaxDepth <= 0 {
		t.Error("flood produced no depth")
	}
	if base.PathFloodMap == nil || base.PathFloodMap.Len() == 0 {
		t.Error("flood map not populated")
	}

	// Path runs entrance -> flagroom.
	if len(base.Path) < 2 {
		t.Fatalf("path has %d points", len(base.Path))
	}
	first := base.Path[0]
	last := base.Path[len(base.Path)-1]
	if first != base.EntrancePosition {
		t.Errorf("path starts at %v, want entrance %v", first, base.EntrancePosition)
	}
	if last != base.FlagroomPosition {
		t.Errorf("path ends at %v, want flagroom %v", last, base.FlagroomPosition)
	}
}

func TestRegionBitsetRoundTrip(t *testing.T) {
	// P5: set-then-clear leaves the bit clear.
	r := tilemap.NewRegionBitset()
	r.Set(100, 200, true)
	if !r.Test(100, 200) {
		t.Fatal("set bit not visible")
	}
	r.Set(100, 200, false)
	if r.Test(100, 200) {
		t.Error("cleared bit still set")
	}
}
