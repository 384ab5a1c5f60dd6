// Package tilemap implements the 1024x1024 tile grid: loading, animated
// sprite expansion, door seeding, solidity and ship-radius overlap/traverse
// queries, a DDA raycaster and the arena-integrity checksum.
package tilemap

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/rng"
)

// Size is the map's fixed width/height in tiles.
const Size = 1024

// Tile ids with special meaning (spec §3/§4.2).
const (
	TileEmpty  = 0
	TileBrick  = 250
	TileSafe   = 171
	TileGoal   = 172
	TileSolid  = 20 // returned for out-of-bounds queries
	FirstDoor  = 162
	LastDoorID = 169 // doors occupy 162..169, all solid (closed) states
	DoorOpen   = LastDoorID + 1
)

// walkableIDs are tile ids that are never solid regardless of team,
// mirroring the special cases of zero's Map::IsSolid. Door ids 162..169
// are deliberately absent: a seeded door tile blocks until the table flips
// it to DoorOpen.
var walkableIDs = map[uint8]bool{
	TileEmpty: true,
	TileSafe:  true,
	TileGoal:  true,
	DoorOpen:  true,
}

// Door represents one seedable door tile and its location.
type Door struct {
	X, Y int
	ID   uint8 // 0..7, index into the seeded table
}

// Brick tracks a placed brick wall and the frequency that owns it, so
// IsSolid can treat it as non-solid to its own team.
type Brick struct {
	X, Y int
	Team uint16
	Tile uint8
}

// Map is the tile grid plus the animated/dynamic tile bookkeeping needed by
// the rest of the core.
type Map struct {
	tiles [Size * Size]uint8

	Doors        []Door
	doorSeed     uint32
	doorRNG      rng.VIE
	lastSeedTick uint32

	bricks map[[2]int]Brick

	// animated multi-tile anchors, expanded at load time into the flat
	// grid; kept separately so a reload can re-expand without re-parsing.
	Wormholes []mgl64.Vec2
}

// New returns an empty, all-clear map.
func New() *Map {
	return &Map{bricks: make(map[[2]int]Brick)}
}

func inBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// TileAt returns the raw tile id at (x,y); out-of-bounds returns TileSolid
// per spec §4.2.
func (m *Map) TileAt(x, y int) uint8 {
	if !inBounds(x, y) {
		return TileSolid
	}
	return m.tiles[y*Size+x]
}

// SetTile sets the raw tile id at (x,y); out-of-bounds is a no-op.
func (m *Map) SetTile(x, y int, id uint8) {
	if !inBounds(x, y) {
		return
	}
	m.tiles[y*Size+x] = id
}

// PlaceBrick records a brick wall owned by team at (x,y) and writes the
// brick tile into the grid.
func (m *Map) PlaceBrick(x, y int, team uint16) {
	if !inBounds(x, y) {
		return
	}
	m.bricks[[2]int{x, y}] = Brick{X: x, Y: y, Team: team, Tile: TileBrick}
	m.SetTile(x, y, TileBrick)
}

// ClearBrick removes a brick wall at (x,y), restoring empty space.
func (m *Map) ClearBrick(x, y int) {
	delete(m.bricks, [2]int{x, y})
	m.SetTile(x, y, TileEmpty)
}

// IsSolid returns whether (x,y) blocks movement for a player on freq.
// Out-of-bounds is solid. Brick tiles are solid only to non-owning teams.
func (m *Map) IsSolid(x, y int, freq uint16) bool {
	if !inBounds(x, y) {
		return true
	}
	id := m.tiles[y*Size+x]
	if id == TileBrick {
		b, ok := m.bricks[[2]int{x, y}]
		if ok && b.Team == freq {
			return false
		}
		return true
	}
	if walkableIDs[id] {
		return false
	}
	return true
}

// IsSafe reports whether (x,y) is a safe tile (spec §3).
func (m *Map) IsSafe(x, y int) bool {
	return m.TileAt(x, y) == TileSafe
}

// IsGoal reports whether (x,y) is a goal tile (spec §3, used by soccer).
func (m *Map) IsGoal(x, y int) bool {
	return m.TileAt(x, y) == TileGoal
}
