package tilemap

import "github.com/lab1702/zerobot/internal/rng"

// DoorMode selects how each seed generation's door seed is produced (spec
// §4.2). -2 random-walks the VIE RNG, -1 folds 7 RNG draws through a fixed
// bit-manipulation recipe, and any non-negative value is a literal seed.
type DoorMode int

const (
	DoorModeRandom DoorMode = -2
	DoorModeFixed  DoorMode = -1
)

// DoorCatchupCap bounds how many missed seed ticks UpdateDoors will replay
// in one call (spec §4.2, invariant v, scenario S5).
const DoorCatchupCap = 100

// SeedDoors derives the 8-element door table from the seed's bottom byte
// and writes it into the door tiles: door i closes (takes its own solid id
// 162+i) when bit i is set, and opens (id DoorOpen) when clear. It returns
// the doors that transitioned open -> closed this generation, so the
// caller can run the crush check against them. Idempotent on the same seed
// (invariant v / R3): a repeat produces the same table and no transitions.
func (m *Map) SeedDoors(seed uint32) []Door {
	bottom := uint8(seed)
	var table [8]uint8
	for i := range table {
		if bottom&(1<<uint(i)) != 0 {
			table[i] = FirstDoor + uint8(i)
		} else {
			table[i] = DoorOpen
		}
	}

	var closed []Door
	for _, d := range m.Doors {
		previous := m.TileAt(d.X, d.Y)
		id := table[d.ID]
		m.SetTile(d.X, d.Y, id)
		if previous == DoorOpen && id != DoorOpen {
			closed = append(closed, d)
		}
	}
	m.doorSeed = seed
	return closed
}

// UpdateDoors runs the catch-up logic from spec §4.2 and scenario S5: it
// replays floor((tick-last_seed_tick)/doorDelay) seed generations, capped
// at DoorCatchupCap, so a client rejoining mid-session converges. It
// returns the number of generations replayed and every door that
// transitioned open -> closed across them.
func (m *Map) UpdateDoors(tick uint32, doorDelay uint32, mode DoorMode) (int, []Door) {
	missed := int32(tick - m.lastSeedTick)
	if doorDelay > 0 {
		missed /= int32(doorDelay)
	}
	if missed <= 0 {
		return 0, nil
	}
	if missed > DoorCatchupCap {
		missed = DoorCatchupCap
	}

	var closed []Door
	for i := int32(0); i < missed; i++ {
		seed := m.doorRNG.Seed()

		switch {
		case mode == DoorModeRandom:
			m.doorRNG, seed = m.doorRNG.Next()
		case mode == DoorModeFixed:
			seed = m.foldFixedSeed()
		default:
			seed = uint32(uint8(mode))
		}

		closed = append(closed, m.SeedDoors(seed)...)
	}
	m.lastSeedTick = tick
	return int(missed), closed
}

// foldFixedSeed consumes 7 RNG draws and folds each into one door bit with
// its own low-bit mask and weight, the DoorMode -1 recipe.
func (m *Map) foldFixedSeed() uint32 {
	masks := [7]uint32{0x1, 0x3, 0x7, 0xF, 0x3, 0x7, 0xF}
	weights := [7]uint32{0x11, 0x2, 0x4, 0x8, 0x20, 0x40, 0x80}

	var folded uint32
	for j := 0; j < 7; j++ {
		var x uint32
		m.doorRNG, x = m.doorRNG.Next()
		if x&masks[j] != 0 {
			folded += weights[j]
		}
	}
	return folded
}

// SeedDoorRNG reseeds the persistent door RNG (arena join / security
// sync).
func (m *Map) SeedDoorRNG(seed uint32) {
	m.doorRNG = rng.NewVIE(seed)
}

// LastSeedTick returns the tick at which the door table was last refreshed.
func (m *Map) LastSeedTick() uint32 { return m.lastSeedTick }

// DoorSeed returns the seed the current door table was derived from.
func (m *Map) DoorSeed() uint32 { return m.doorSeed }
