package weapon

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/rng"
)

// Explode detonates the weapon at idx: it spawns shrapnel (if the original
// weapon carries any), propagates the explosion to any other live weapon
// sharing its link_id (invariant vi: a linked pair explodes together), and
// frees idx. It returns the indices of any newly spawned shrapnel.
func (m *Manager) Explode(idx int, settings SimSettings) []int {
	w := m.weapons[idx]
	shrap := m.spawnShrapnel(&w, settings)
	m.propagateLink(idx, w.LinkID)
	m.free(idx)
	return shrap
}

// propagateLink frees every other live weapon sharing linkID, without
// spawning their shrapnel: a linked pair (multifire spread, double-barrel)
// is treated as one unit for wall-explosion purposes.
func (m *Manager) propagateLink(origin int, linkID uint32) {
	if linkID == LinkUnlinked {
		return
	}
	m.Alive(func(idx int, w *Weapon) {
		if idx == origin || w.LinkID != linkID {
			return
		}
		m.free(idx)
	})
}

// spawnShrapnel spawns w.Data.Shrap bullets radiating from w's position,
// per spec §4.5. When ShrapnelRandom is set each shrap gets an
// independently drawn random heading via the weapon's own RNG sequence;
// otherwise headings are evenly distributed around the circle starting
// from the detonating weapon's own heading.
func (m *Manager) spawnShrapnel(w *Weapon, settings SimSettings) []int {
	if w.Data.Shrap <= 0 {
		return nil
	}

	gen := rng.NewVIE(w.RNGSeed)
	speed := w.Velocity.Len()
	if speed == 0 {
		speed = 1
	}
	baseHeading := math.Atan2(w.Velocity.Y(), w.Velocity.X())

	var indices []int
	for i := 0; i < w.Data.Shrap; i++ {
		var heading float64
		if settings.ShrapnelRandom {
			var draw uint32
			gen, draw = gen.Next()
			heading = float64(draw) / 32768.0 * 2 * math.Pi
		} else {
			heading = baseHeading + 2*math.Pi*float64(i)/float64(w.Data.Shrap)
		}

		idx := m.alloc()
		if idx < 0 {
			continue
		}
		shrap := &m.weapons[idx]
		shrap.PlayerID = w.PlayerID
		shrap.Frequency = w.Frequency
		shrap.Data = Data{
			Type:      TypeBullet,
			Level:     w.Data.ShrapLevel,
			Alternate: false,
		}
		if w.Data.ShrapBouncing {
			shrap.Data.Type = TypeBouncingBullet
			shrap.BouncesRemaining = 1
		}
		shrap.Position = w.Position
		shrap.Velocity = mgl64.Vec2{math.Cos(heading) * speed, math.Sin(heading) * speed}
		shrap.LastTick = w.LastTick
		shrap.EndTick = w.LastTick + settings.InactiveShrapTicks
		shrap.LinkID = LinkUnlinked
		shrap.ProxHitPlayerID = 0xFFFF
		shrap.RNGSeed = gen.Seed()
		indices = append(indices, idx)
	}
	return indices
}
