package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// SnapThreshold is the per-axis position-error distance (in tiles) beyond
// which the absorbed packet snaps instead of lerps (spec §4.4, P/boundary).
const SnapThreshold = 4.0

// LerpDuration is the fixed blend window used when a correction does not
// warrant a snap (spec §4.4: "0.2 s").
const LerpDuration = 0.2

// IncomingPosition carries the already-decoded fields of a LargePosition/
// SmallPosition packet in tile units (×16 and ×160 have already been
// divided out by the caller).
type IncomingPosition struct {
	SmallTick uint16
	Position  mgl64.Vec2
	Velocity  mgl64.Vec2
	Flash     bool
}

// renormalizeBatchedTimestamp resolves spec §9 Open Question 1: a batched
// record's 10-bit timestamp field is spliced into 15-bit small-tick space
// by keeping the current small tick's high 5 bits and substituting the
// packet's low 10 bits, then applying the normal newer-than comparison.
// This is the documented decision (see DESIGN.md); it is exercised by
// AbsorbBatchedPosition below.
func renormalizeBatchedTimestamp(batched10 uint16, currentSmallTick uint16) uint16 {
	const tenBitMask = 0x3FF
	highBits := currentSmallTick &^ tenBitMask
	return highBits | (batched10 & tenBitMask)
}

// AbsorbBatchedPosition renormalizes a batched 10-bit timestamp before
// delegating to AbsorbPosition (OQ1).
func (m *Manager) AbsorbBatchedPosition(id uint16, batched10 uint16, pos, vel mgl64.Vec2, flash bool, nowSmall uint16, tm *tilemap.Map, freq uint16, radius float64) bool {
	full := renormalizeBatchedTimestamp(batched10, nowSmall)
	return m.AbsorbPosition(id, IncomingPosition{SmallTick: full, Position: pos, Velocity: vel, Flash: flash}, nowSmall, tm, freq, radius)
}

// AbsorbPosition implements spec §4.4's incoming position handling:
// reject stale/reordered packets, then save previous_pos, set
// position/velocity, and simulate forward to decide snap vs. lerp.
func (m *Manager) AbsorbPosition(id uint16, pkt IncomingPosition, nowSmall uint16, tm *tilemap.Map, freq uint16, radius float64) bool {
	p := m.PlayerByID(id)
	if p == nil {
		return false
	}
	if !clock.SmallTickNewer(pkt.SmallTick, p.Timestamp) {
		return false
	}

	p.previousPos = p.Position
	p.Position = pkt.Position
	p.Velocity = pkt.Velocity
	p.lerpRemaining = 0

	diff := clock.Diff(clock.Tick(nowSmall), clock.Tick(pkt.SmallTick))
	simTicks := int(diff)
	if simTicks < 0 {
		simTicks = 0
	}

	projected := simulateForward(tm, p.Position, p.Velocity, simTicks, freq, radius)

	dx := math.Abs(projected.X() - p.previousPos.X())
	dy := math.Abs(projected.Y() - p.previousPos.Y())
	flash := pkt.Flash || p.Toggles&StatusFlash != 0

	if dx >= SnapThreshold || dy >= SnapThreshold || flash {
		p.Position = projected
	} else {
		p.Position = p.previousPos
		p.lerpVelocity = projected.Sub(p.previousPos).Mul(1.0 / LerpDuration)
		p.lerpRemaining = LerpDuration
	}

	p.Timestamp = pkt.SmallTick
	return true
}

// simulateForward integrates position forward n ticks at 1/100s each,
// ignoring collision bounce refinements (used only to project where a
// remote player "should" be now, per spec §4.4 step 3).
func simulateForward(tm *tilemap.Map, pos, vel mgl64.Vec2, ticks int, freq uint16, radius float64) mgl64.Vec2 {
	const dt = 1.0 / clock.TicksPerSecond
	for i := 0; i < ticks; i++ {
		pos = pos.Add(vel.Mul(dt))
	}
	return pos
}

// Simulate runs the main per-tick integration described in spec §4.4: axis
// -by-axis integration with lerp blending, wall bounce with bounce_factor,
// and chained-bounce protection within one tick.
func (m *Manager) Simulate(p *Player, tm *tilemap.Map, dt float64, bounceFactor float64, radius float64, now clock.Tick) {
	lerpDT := math.Min(p.lerpRemaining, dt)
	p.lerpRemaining = math.Max(0, p.lerpRemaining-dt)

	delta := p.Velocity.Mul(dt).Add(p.lerpVelocity.Mul(lerpDT))
	newPos := p.Position.Add(delta)

	bouncedOnce := false
	newPos, p.Velocity, bouncedOnce = bounceAxis(tm, p.Position, newPos, p.Velocity, 0, radius, p.Freq, bounceFactor, bouncedOnce)
	newPos, p.Velocity, bouncedOnce = bounceAxis(tm, p.Position, newPos, p.Velocity, 1, radius, p.Freq, bounceFactor, bouncedOnce)

	if bouncedOnce {
		p.lastBounceTick = now
	}
	p.Position = newPos
}

// bounceAxis performs the single-axis collision+bounce step from spec
// §4.4: compute the future-side tile, scan the perpendicular range for
// solidity, and on overlap revert the axis, negate velocity, and scale both
// axes by bounce_factor -- but use 1.0 if this is the second bounce within
// the same tick, so chained collisions don't zero the velocity.
func bounceAxis(tm *tilemap.Map, oldPos, newPos mgl64.Vec2, vel mgl64.Vec2, axis int, radius float64, freq uint16, bounceFactor float64, alreadyBounced bool) (mgl64.Vec2, mgl64.Vec2, bool) {
	x, y := int(math.Floor(newPos.X())), int(math.Floor(newPos.Y()))
	r := int(math.Ceil(radius))

	collided := false
	if axis == 0 {
		for dy := -r - 1; dy <= r+1; dy++ {
			if tm.IsSolid(x, y+dy, freq) {
				collided = true
				break
			}
		}
	} else {
		for dx := -r - 1; dx <= r+1; dx++ {
			if tm.IsSolid(x+dx, y, freq) {
				collided = true
				break
			}
		}
	}

	if !collided {
		return newPos, vel, alreadyBounced
	}

	factor := bounceFactor
	if alreadyBounced {
		factor = 1.0
	}

	if axis == 0 {
		newPos = mgl64.Vec2{oldPos.X(), newPos.Y()}
		vel = mgl64.Vec2{-vel.X() * factor, vel.Y() * factor}
	} else {
		newPos = mgl64.Vec2{newPos.X(), oldPos.Y()}
		vel = mgl64.Vec2{vel.X() * factor, -vel.Y() * factor}
	}
	return newPos, vel, true
}
