package weapon

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// EnemyPlayer is the minimal view the simulator needs of another player for
// collision/repel purposes.
type EnemyPlayer struct {
	ID       uint16
	Freq     uint16
	Position mgl64.Vec2
	InSafe   bool
}

// SimSettings bundles the arena numbers the per-tick simulation consults
// (spec §4.5).
type SimSettings struct {
	RepelDistance      float64 // tiles
	RepelSpeed         float64 // tiles/s
	GravityBombs       bool
	Gravity            int32
	BulletRadiusPixels float64
	ProximityDistance  float64
	BombExplodeDelay   clock.Tick
	ShrapnelRandom     bool
	InactiveShrapTicks clock.Tick
	BounceFactor       float64
	// AliveTime returns a weapon's full lifetime in ticks; repel resets a
	// struck bomb/mine's end_tick using it (spec §7, scenario S2).
	AliveTime func(t Type, alternate bool) clock.Tick
}

// ExplosionKind distinguishes why a weapon detonated, for the caller's
// damage-attribution step.
type ExplosionKind int

const (
	ExplodeNone ExplosionKind = iota
	ExplodeWall
	ExplodePlayer
)

// ExplosionEvent is emitted by Step whenever a weapon detonates.
type ExplosionEvent struct {
	WeaponIndex int
	Kind        ExplosionKind
	VictimID    uint16 // set for ExplodePlayer
	Shrapnel    []int  // indices of newly spawned shrapnel weapons, if any
}

// RepelHit records which player was struck by a repel wave, so the caller
// can timestamp their last_repel_timestamp.
type RepelHit struct {
	PlayerID uint16
}

// Step advances every live weapon from its LastTick+1 up to currentTick,
// one tick at a time, applying repel, wormhole gravity, position
// integration with wall bounce, and player-collision/explosion detection,
// per spec §4.5.
func (m *Manager) Step(tm *tilemap.Map, enemies []EnemyPlayer, settings SimSettings, currentTick clock.Tick) ([]ExplosionEvent, []RepelHit) {
	var events []ExplosionEvent
	var repelHits []RepelHit

	m.Alive(func(idx int, w *Weapon) {
		for w.LastTick < currentTick {
			w.LastTick++
			tick := w.LastTick

			if w.Data.Type == TypeRepel {
				hits := m.applyRepel(idx, enemies, settings)
				repelHits = append(repelHits, hits...)
			}

			if settings.GravityBombs && (w.Data.Type == TypeBomb || w.Data.Type == TypeProximityBomb) {
				applyWormholeGravity(w, tm, settings)
			}

			ev := m.stepPosition(idx, tm, settings, tick)
			if ev.Kind != ExplodeNone {
				ev.Shrapnel = m.Explode(idx, settings)
				events = append(events, ev)
				return
			}

			if ev2 := m.checkPlayerCollision(idx, enemies, settings, tick); ev2.Kind != ExplodeNone {
				ev2.Shrapnel = m.Explode(idx, settings)
				events = append(events, ev2)
				return
			}
		}
	})

	return events, repelHits
}

// applyRepel pushes every weapon within RepelDistance away from the
// repeller, converts mines back to bombs, and resets their end_tick to the
// new type's lifetime. Enemy players within RepelDistance are returned as
// RepelHits; their velocity is not changed here.
func (m *Manager) applyRepel(repellerIdx int, enemies []EnemyPlayer, settings SimSettings) []RepelHit {
	repeller := &m.weapons[repellerIdx]
	var hits []RepelHit

	m.Alive(func(idx int, w *Weapon) {
		if idx == repellerIdx || w.Data.Type == TypeRepel {
			return
		}
		d := w.Position.Sub(repeller.Position)
		if d.Len() > settings.RepelDistance {
			return
		}
		dir := d
		if dir.Len() == 0 {
			dir = mgl64.Vec2{1, 0}
		} else {
			dir = dir.Normalize()
		}
		w.Velocity = dir.Mul(settings.RepelSpeed)
		wasMine := w.IsMine()
		if wasMine {
			w.Data.Alternate = false
		}
		if w.Data.Type == TypeBomb || w.Data.Type == TypeProximityBomb {
			if settings.AliveTime != nil {
				w.EndTick = w.LastTick + settings.AliveTime(w.Data.Type, w.Data.Alternate)
			}
		}
	})

	for _, e := range enemies {
		d := e.Position.Sub(repeller.Position)
		if d.Len() > settings.RepelDistance {
			continue
		}
		hits = append(hits, RepelHit{PlayerID: e.ID})
	}
	return hits
}

func applyWormholeGravity(w *Weapon, tm *tilemap.Map, settings SimSettings) {
	for _, wh := range tm.Wormholes {
		delta := wh.Sub(w.Position)
		distSq := delta.Dot(delta)
		if distSq >= math.Abs(float64(settings.Gravity))*1000 {
			continue
		}
		thrust := float64(settings.Gravity) * 1000 / (distSq + 1)
		if delta.Len() > 0 {
			w.Velocity = w.Velocity.Add(delta.Normalize().Mul(thrust))
		}
	}
}

// stepPosition integrates position axis-by-axis at dt = 1/100, the same
// two-pass pattern the player simulation uses: a solid tile on one axis
// reverts and negates only that axis while the other keeps moving, so a
// diagonal wall graze bounces instead of stopping dead. Thor never
// collides.
func (m *Manager) stepPosition(idx int, tm *tilemap.Map, settings SimSettings, tick clock.Tick) ExplosionEvent {
	w := &m.weapons[idx]
	const dt = 1.0 / clock.TicksPerSecond

	if w.Data.Type == TypeThor {
		w.Position = w.Position.Add(w.Velocity.Mul(dt))
		return ExplosionEvent{WeaponIndex: idx}
	}

	for axis := 0; axis < 2; axis++ {
		next := w.Position
		next[axis] += w.Velocity[axis] * dt

		x, y := int(math.Floor(next.X())), int(math.Floor(next.Y()))
		if !tm.IsSolid(x, y, w.Frequency) {
			w.Position = next
			continue
		}

		if w.BouncesRemaining <= 0 {
			return m.explodeOnWall(idx, tick, settings)
		}
		w.BouncesRemaining--
		w.Bounced = true
		w.Velocity[axis] = -w.Velocity[axis]
		if w.Data.Type == TypeBurst {
			w.Flags |= FlagBurstActive
		}
	}

	return ExplosionEvent{}
}

// explodeOnWall determines whether a bounce-exhausted weapon actually
// detonates: bullets additionally need shrap>=1 and at least 25 ticks of
// remaining life to still explode on a wall (spec §4.5).
func (m *Manager) explodeOnWall(idx int, tick clock.Tick, settings SimSettings) ExplosionEvent {
	w := &m.weapons[idx]
	switch w.Data.Type {
	case TypeBomb, TypeProximityBomb:
		return ExplosionEvent{WeaponIndex: idx, Kind: ExplodeWall}
	case TypeBullet, TypeBouncingBullet:
		remaining := clock.Diff(w.EndTick, tick)
		if w.Data.Shrap > 0 && remaining >= 25 {
			return ExplosionEvent{WeaponIndex: idx, Kind: ExplodeWall}
		}
		m.free(idx)
		return ExplosionEvent{}
	default:
		m.free(idx)
		return ExplosionEvent{}
	}
}

// checkPlayerCollision tests idx's weapon against every enemy within its
// hit radius, handling the proximity-bomb latch/extend semantics.
func (m *Manager) checkPlayerCollision(idx int, enemies []EnemyPlayer, settings SimSettings, tick clock.Tick) ExplosionEvent {
	w := &m.weapons[idx]
	if w.PlayerID == 0 {
		// player id 0 is a valid id in this protocol's numbering, but the
		// collision loop below already excludes self-hits via freq/id
		// checks by the caller building `enemies`, so no special case here.
	}

	radiusTiles := radiusFor(w, settings)

	for _, e := range enemies {
		if e.Freq == w.Frequency {
			continue
		}
		d := e.Position.Sub(w.Position)
		dist := d.Len()

		if w.Data.Type == TypeProximityBomb || w.Data.Type == TypeThor {
			if dist <= radiusTiles {
				if w.ProxHitPlayerID == 0xFFFF {
					w.ProxHitPlayerID = e.ID
					w.ProxHighestOffset = dist
					w.SensorEndTick = tick + settings.BombExplodeDelay
				} else if e.ID == w.ProxHitPlayerID {
					if dist > w.ProxHighestOffset {
						w.ProxHighestOffset = dist
					} else {
						return ExplosionEvent{WeaponIndex: idx, Kind: ExplodePlayer, VictimID: e.ID}
					}
				}
				continue
			}
			if e.ID == w.ProxHitPlayerID && tick >= w.SensorEndTick {
				return ExplosionEvent{WeaponIndex: idx, Kind: ExplodePlayer, VictimID: e.ID}
			}
			continue
		}

		if dist <= radiusTiles {
			if w.Data.Type == TypeBurst && w.Flags&FlagBurstActive == 0 {
				continue
			}
			return ExplosionEvent{WeaponIndex: idx, Kind: ExplodePlayer, VictimID: e.ID}
		}
	}
	return ExplosionEvent{}
}

// radiusFor returns the hit-test radius in tiles for w, per spec §4.5 (18px
// for bullets; (ProximityDistance+level)*18px for prox; Thor adds +3).
func radiusFor(w *Weapon, settings SimSettings) float64 {
	const pixelsPerTile = 16.0
	switch w.Data.Type {
	case TypeProximityBomb:
		return (settings.ProximityDistance + float64(w.Data.Level)) * 18.0 / pixelsPerTile
	case TypeThor:
		return (settings.ProximityDistance + float64(w.Data.Level) + 3) * 18.0 / pixelsPerTile
	default:
		return 18.0 / pixelsPerTile
	}
}
