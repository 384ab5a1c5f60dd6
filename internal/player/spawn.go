package player

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// SpawnRegion is a sampleable disk: an explicit frequency-indexed spawn
// center/radius, or the zone's default region (spec §4.4).
type SpawnRegion struct {
	Center mgl64.Vec2
	Radius float64
}

// SpawnSampleCount is how many candidate points are tried before giving up
// (spec §4.4: "sample 100 random points").
const SpawnSampleCount = 100

// Spawn finds a clear point within region and places self there, enabling
// Flash so the next absorbed position snaps instead of lerping, per spec
// §4.4. It returns the chosen position and whether a clear point was found.
func (m *Manager) Spawn(tm *tilemap.Map, region SpawnRegion, shipRadius float64, freq uint16, rnd *rand.Rand) (mgl64.Vec2, bool) {
	self := m.Self()
	if self == nil {
		return mgl64.Vec2{}, false
	}

	for i := 0; i < SpawnSampleCount; i++ {
		candidate := samplePointInDisk(region.Center, region.Radius, rnd)
		x, y := int(math.Floor(candidate.X())), int(math.Floor(candidate.Y()))
		if tm.CanOccupy(x, y, shipRadius, freq) {
			self.Position = candidate
			self.Velocity = mgl64.Vec2{}
			self.Toggles |= StatusFlash
			return candidate, true
		}
	}
	return mgl64.Vec2{}, false
}

func samplePointInDisk(center mgl64.Vec2, radius float64, rnd *rand.Rand) mgl64.Vec2 {
	if radius <= 0 {
		return center
	}
	angle := rnd.Float64() * 2 * math.Pi
	dist := math.Sqrt(rnd.Float64()) * radius
	return mgl64.Vec2{
		center.X() + dist*math.Cos(angle),
		center.Y() + dist*math.Sin(angle),
	}
}
