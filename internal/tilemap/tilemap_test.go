package tilemap

import (
	"encoding/binary"
	"testing"
)

func encodeRecord(x, y int, id uint8) []byte {
	v := uint32(x&0xFFF) | uint32(y&0xFFF)<<12 | uint32(id)<<24
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

func TestLoadRawRecords(t *testing.T) {
	var data []byte
	data = append(data, encodeRecord(10, 10, 1)...)
	data = append(data, encodeRecord(20, 20, TileBrick)...)

	m, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TileAt(10, 10) != 1 {
		t.Fatalf("expected tile 1 at (10,10), got %d", m.TileAt(10, 10))
	}
	if m.TileAt(20, 20) != TileBrick {
		t.Fatalf("expected brick at (20,20)")
	}
}

func TestLoadBitmapHeader(t *testing.T) {
	header := []byte{'B', 'M', 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(header[2:], 6) // header_size = 6
	data := append(header, encodeRecord(5, 5, 3)...)

	m, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TileAt(5, 5) != 3 {
		t.Fatalf("expected tile 3 at (5,5) after skipping BM header, got %d", m.TileAt(5, 5))
	}
}

func TestIsSolidOutOfBounds(t *testing.T) {
	m := New()
	if !m.IsSolid(-1, 0, 0) {
		t.Fatalf("out-of-bounds must be solid")
	}
	if !m.IsSolid(Size, Size, 0) {
		t.Fatalf("out-of-bounds must be solid")
	}
}

func TestIsSolidBrickOwnership(t *testing.T) {
	m := New()
	m.PlaceBrick(5, 5, 1)
	if !m.IsSolid(5, 5, 2) {
		t.Fatalf("brick should be solid to a non-owning team")
	}
	if m.IsSolid(5, 5, 1) {
		t.Fatalf("brick should not be solid to its owning team")
	}
}

func TestRegionBitsetClearIdempotent(t *testing.T) {
	// P5: Test after Set(true) then Set(false) must be false, and the
	// bounding box must shrink or stay the same on clear.
	r := NewRegionBitset()
	r.Set(5, 5, true)
	minX0, minY0, maxX0, maxY0 := r.Bounds()

	r.Set(5, 5, false)
	if r.Test(5, 5) {
		t.Fatalf("expected (5,5) to be false after clearing")
	}
	minX1, minY1, maxX1, maxY1 := r.Bounds()
	if (maxX1-minX1)*(maxY1-minY1) > (maxX0-minX0)*(maxY0-minY0) {
		t.Fatalf("bounding box grew after a clear")
	}
}

func TestRegionBitsetGrows(t *testing.T) {
	r := NewRegionBitset()
	r.Set(0, 0, true)
	r.Set(100, 100, true)
	if !r.Test(0, 0) || !r.Test(100, 100) {
		t.Fatalf("expected both set points to read back true")
	}
	if r.Test(50, 50) {
		t.Fatalf("unset point must read back false")
	}
}

func TestSeedDoorsIdempotent(t *testing.T) {
	// R3: SeedDoors(s) twice in a row with no other mutation is a no-op,
	// and the repeat reports no open->closed transitions.
	data := encodeRecord(3, 3, FirstDoor)
	m, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.SeedDoors(42)
	before := m.TileAt(3, 3)
	closed := m.SeedDoors(42)
	after := m.TileAt(3, 3)
	if before != after {
		t.Fatalf("SeedDoors was not idempotent: %d vs %d", before, after)
	}
	if len(closed) != 0 {
		t.Fatalf("repeat seed reported %d transitions, want 0", len(closed))
	}
}

func TestDoorSolidity(t *testing.T) {
	// Door ids 162..169 block movement; only DoorOpen (170) is walkable.
	m := New()
	for id := uint8(FirstDoor); id <= LastDoorID; id++ {
		m.SetTile(3, 3, id)
		if !m.IsSolid(3, 3, 0) {
			t.Fatalf("door id %d should be solid", id)
		}
	}
	m.SetTile(3, 3, DoorOpen)
	if m.IsSolid(3, 3, 0) {
		t.Fatalf("open door must be walkable")
	}
}

func TestSeedDoorsStateAndTransitions(t *testing.T) {
	// Door i closes when bit i of the seed's bottom byte is set; a flip
	// from open to closed is reported exactly once.
	data := encodeRecord(3, 3, FirstDoor) // door id 0
	m, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	closed := m.SeedDoors(0x00) // bit 0 clear: open
	if m.TileAt(3, 3) != DoorOpen {
		t.Fatalf("tile = %d after open seed, want %d", m.TileAt(3, 3), DoorOpen)
	}
	if len(closed) != 0 {
		t.Fatalf("open seed reported transitions")
	}

	closed = m.SeedDoors(0x01) // bit 0 set: closed
	if m.TileAt(3, 3) != FirstDoor {
		t.Fatalf("tile = %d after closed seed, want %d", m.TileAt(3, 3), FirstDoor)
	}
	if len(closed) != 1 || closed[0].X != 3 || closed[0].Y != 3 {
		t.Fatalf("open->closed transition not reported: %v", closed)
	}
	if !m.IsSolid(3, 3, 0) {
		t.Fatalf("closed door must be solid")
	}
}

func TestUpdateDoorsCatchupCapped(t *testing.T) {
	// S5: tick 1000, last_seed_tick 0, DoorDelay 10 -> exactly 100 replays
	// (the cap), and last_seed_tick becomes 1000.
	m := New()
	replays, _ := m.UpdateDoors(1000, 10, DoorModeRandom)
	if replays != DoorCatchupCap {
		t.Fatalf("expected capped replay count %d, got %d", DoorCatchupCap, replays)
	}
	if m.LastSeedTick() != 1000 {
		t.Fatalf("expected last seed tick 1000, got %d", m.LastSeedTick())
	}
}

func TestChecksumDeterministic(t *testing.T) {
	m := New()
	m.SetTile(1, 0, 5)
	m.SetTile(0, 1, 171)
	c1 := m.Checksum(12345)
	c2 := m.Checksum(12345)
	if c1 != c2 {
		t.Fatalf("checksum must be deterministic for the same key")
	}
}

func TestCanOverlapTileOpenArea(t *testing.T) {
	m := New()
	if !m.CanOverlapTile(500, 500, 1.0, 0) {
		t.Fatalf("expected open area to be traversable")
	}
}
