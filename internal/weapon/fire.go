package weapon

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
)

// ShipWeaponStats is the subset of ship settings Fire needs (spec §4.5).
type ShipWeaponStats struct {
	BaseSpeed      func(t Type, level int) float64 // tiles/s
	AliveTime      func(t Type, alternate bool) clock.Tick
	DoubleBarrel   bool
	MultiFire      bool
	MultiFireAngle float64 // raw MultiFireAngle setting; Fire divides it by 111 for degrees
	ShipRadius     float64
}

// FireIntent is what the ship controller hands the weapon manager when a
// player fires (spec §4.5).
type FireIntent struct {
	PlayerID     uint16
	Frequency    uint16
	Position     mgl64.Vec2
	PlayerVel    mgl64.Vec2
	Heading      float64 // radians
	Data         Data
	FireTick     clock.Tick
	CurrentTick  clock.Tick
	MultifireOn  bool
}

// Fire spawns one or more linked weapons for intent, per spec §4.5:
// multifire spawns two extra bullets at ±MultiFireAngle/111°; double-barrel
// ships spawn a second bullet offset by ±0.75*radius perpendicular to
// heading. All related bullets share a link_id. Mines get zero velocity.
// Each spawned weapon is simulated forward to CurrentTick to catch up with
// fire-delay latency. Returns the allocated weapon indices, or nil if the
// pool was exhausted for all of them.
func (m *Manager) Fire(intent FireIntent, stats ShipWeaponStats) []int {
	baseSpeed := stats.BaseSpeed(intent.Data.Type, intent.Data.Level)
	headingVec := mgl64.Vec2{math.Cos(intent.Heading), math.Sin(intent.Heading)}

	var velocity mgl64.Vec2
	if !intent.Data.Alternate || intent.Data.Type != TypeBomb {
		// non-mine: speed + player velocity + heading*speed
		velocity = intent.PlayerVel.Add(headingVec.Mul(baseSpeed))
	} else {
		velocity = mgl64.Vec2{} // mines are stationary
	}

	linkID := LinkUnlinked
	spawnHeadings := []float64{intent.Heading}

	multi := intent.MultifireOn && stats.MultiFire && intent.Data.Type == TypeBullet
	doubleBarrel := stats.DoubleBarrel && intent.Data.Type == TypeBullet

	if multi {
		spread := stats.MultiFireAngle / 111.0 * math.Pi / 180.0
		spawnHeadings = []float64{intent.Heading - spread, intent.Heading, intent.Heading + spread}
	}

	if len(spawnHeadings) > 1 || doubleBarrel {
		linkID = m.nextLink()
	}

	var indices []int
	for _, h := range spawnHeadings {
		hv := mgl64.Vec2{math.Cos(h), math.Sin(h)}
		vel := velocity
		if !intent.Data.Alternate {
			vel = intent.PlayerVel.Add(hv.Mul(baseSpeed))
		}
		idx := m.spawnOne(intent, vel, stats.AliveTime(intent.Data.Type, intent.Data.Alternate), linkID)
		if idx >= 0 {
			indices = append(indices, idx)
		}

		if doubleBarrel {
			perp := mgl64.Vec2{-hv.Y(), hv.X()}.Mul(0.75 * stats.ShipRadius)
			w2 := m.spawnOne(intent, vel, stats.AliveTime(intent.Data.Type, intent.Data.Alternate), linkID)
			if w2 >= 0 {
				m.weapons[w2].Position = intent.Position.Add(perp)
				indices = append(indices, w2)
			}
		}
	}

	for _, idx := range indices {
		w := &m.weapons[idx]
		w.RNGSeed = seedFor(w.Position, w.Velocity, intent.Data.Shrap, intent.Data.Level, intent.Frequency)
		catchUp(w, intent.CurrentTick)
	}

	return indices
}

func (m *Manager) spawnOne(intent FireIntent, vel mgl64.Vec2, aliveFor clock.Tick, linkID uint32) int {
	idx := m.alloc()
	if idx < 0 {
		return -1
	}
	w := &m.weapons[idx]
	w.PlayerID = intent.PlayerID
	w.Frequency = intent.Frequency
	w.Data = intent.Data
	w.Position = intent.Position
	w.Velocity = vel
	w.LastTick = intent.FireTick
	w.EndTick = intent.FireTick + aliveFor
	w.LinkID = linkID
	w.ProxHitPlayerID = 0xFFFF
	switch intent.Data.Type {
	case TypeBouncingBullet, TypeBurst:
		// bouncing bullets ricochet until expiry; bursts must survive the
		// first wall bounce, which is what arms them against players
		w.BouncesRemaining = 1 << 30
	}
	return idx
}

// seedFor derives a weapon's RNG seed from its spawn state (spec §4.5:
// "rng_seed = f(pos, vel, shrap, level, frequency)").
func seedFor(pos, vel mgl64.Vec2, shrap, level int, freq uint16) uint32 {
	h := uint32(2166136261)
	mix := func(v uint32) {
		h ^= v
		h *= 16777619
	}
	mix(math.Float32bits(float32(pos.X())))
	mix(math.Float32bits(float32(pos.Y())))
	mix(math.Float32bits(float32(vel.X())))
	mix(math.Float32bits(float32(vel.Y())))
	mix(uint32(shrap))
	mix(uint32(level))
	mix(uint32(freq))
	return h
}

// catchUp simulates a weapon forward from its fire tick to currentTick,
// because bullets fired by other players arrive with a server-applied
// delay (spec §4.5). It is intentionally a thin position integration; the
// full per-tick Simulate in simulate.go is not re-entered here to avoid
// double-processing bounce/explosion side effects during catch-up — zero's
// own fire path similarly fast-forwards kinematics only.
func catchUp(w *Weapon, currentTick clock.Tick) {
	diff := clock.Diff(currentTick, w.LastTick)
	if diff <= 0 {
		return
	}
	dt := float64(diff) / clock.TicksPerSecond
	w.Position = w.Position.Add(w.Velocity.Mul(dt))
	w.LastTick = currentTick
}
