package tilemap

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// radiusSquare returns the half-width of the occupied square used for
// ship-radius queries: ceil(radius+0.5) tiles, per spec §4.2.
func radiusSquare(radius float64) int {
	return int(math.Ceil(radius + 0.5))
}

// CanOccupy treats the ship as a ceil(radius+0.5)-tile square and returns
// true if any placement of that square centered on (x,y) is entirely clear
// for freq.
func (m *Map) CanOccupy(x, y int, radius float64, freq uint16) bool {
	d := radiusSquare(radius)
	for dy := -d; dy <= d; dy++ {
		for dx := -d; dx <= d; dx++ {
			if m.IsSolid(x+dx, y+dy, freq) {
				return false
			}
		}
	}
	return true
}

// CanOverlapTile scans a (2d+1)-tile square region around the target, and
// for each corner walks a dxd block toward the target, returning true on
// the first clear block. This matches the server's diagonal-permissive
// overlap test (spec §4.2): a ship can squeeze diagonally past a single
// solid corner tile as long as one full dxd approach block is clear.
func (m *Map) CanOverlapTile(x, y int, radius float64, freq uint16) bool {
	d := radiusSquare(radius)
	corners := [4][2]int{{-d, -d}, {d, -d}, {-d, d}, {d, d}}
	for _, c := range corners {
		clear := true
		stepX, stepY := sign(c[0]), sign(c[1])
		for sy := 0; sy < d; sy++ {
			for sx := 0; sx < d; sx++ {
				tx := x + stepX*sx
				ty := y + stepY*sy
				if m.IsSolid(tx, ty, freq) {
					clear = false
					break
				}
			}
			if !clear {
				break
			}
		}
		if clear {
			return true
		}
	}
	return false
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 1
}

// CanTraverse requires both endpoints to overlap-clear, and any
// side-stepping caused by adjacent walls to be clear along the perpendicular
// for 2r steps (spec §4.2).
func (m *Map) CanTraverse(x0, y0, x1, y1 int, radius float64, freq uint16) bool {
	if !m.CanOverlapTile(x0, y0, radius, freq) || !m.CanOverlapTile(x1, y1, radius, freq) {
		return false
	}
	r := int(math.Ceil(radius))
	dx := x1 - x0
	dy := y1 - y0
	if dx != 0 && dy != 0 {
		// diagonal step: verify the perpendicular corridor is clear so the
		// ship doesn't clip a wall corner while cutting the diagonal.
		for i := -2 * r; i <= 2*r; i++ {
			if dx != 0 {
				if m.IsSolid(x0, y0+i, freq) && m.IsSolid(x1, y0+i, freq) {
					return false
				}
			}
			if dy != 0 {
				if m.IsSolid(x0+i, y0, freq) && m.IsSolid(x0+i, y1, freq) {
					return false
				}
			}
		}
	}
	return true
}

// CastResult is the outcome of a DDA raycast.
type CastResult struct {
	Hit      bool
	Distance float64
	Position mgl64.Vec2
	Normal   mgl64.Vec2
}

// Cast performs a DDA raycast from origin in direction dir (normalized),
// stopping at the first solid tile (bricks owned by freq are transparent to
// that team's own casts, e.g. so a team's doors open for its own casters).
func (m *Map) Cast(origin mgl64.Vec2, dir mgl64.Vec2, maxDistance float64, freq uint16) CastResult {
	if dir.Len() == 0 {
		return CastResult{}
	}
	dir = dir.Normalize()

	x, y := origin.X(), origin.Y()
	tileX, tileY := int(math.Floor(x)), int(math.Floor(y))

	stepX := sign(int(math.Copysign(1, dir.X())))
	stepY := sign(int(math.Copysign(1, dir.Y())))
	if dir.X() == 0 {
		stepX = 0
	}
	if dir.Y() == 0 {
		stepY = 0
	}

	deltaDistX := math.Inf(1)
	deltaDistY := math.Inf(1)
	if dir.X() != 0 {
		deltaDistX = math.Abs(1 / dir.X())
	}
	if dir.Y() != 0 {
		deltaDistY = math.Abs(1 / dir.Y())
	}

	var sideDistX, sideDistY float64
	if dir.X() < 0 {
		sideDistX = (x - float64(tileX)) * deltaDistX
	} else {
		sideDistX = (float64(tileX) + 1 - x) * deltaDistX
	}
	if dir.Y() < 0 {
		sideDistY = (y - float64(tileY)) * deltaDistY
	} else {
		sideDistY = (float64(tileY) + 1 - y) * deltaDistY
	}

	var normal mgl64.Vec2
	traveled := 0.0
	for traveled < maxDistance {
		var side int
		if sideDistX < sideDistY {
			sideDistX += deltaDistX
			tileX += stepX
			traveled = sideDistX - deltaDistX
			side = 0
		} else {
			sideDistY += deltaDistY
			tileY += stepY
			traveled = sideDistY - deltaDistY
			side = 1
		}

		if m.IsSolid(tileX, tileY, freq) {
			if side == 0 {
				normal = mgl64.Vec2{-float64(stepX), 0}
			} else {
				normal = mgl64.Vec2{0, -float64(stepY)}
			}
			hitPos := origin.Add(dir.Mul(traveled))
			return CastResult{Hit: true, Distance: traveled, Position: hitPos, Normal: normal}
		}
	}

	return CastResult{Hit: false, Distance: maxDistance, Position: origin.Add(dir.Mul(maxDistance))}
}
