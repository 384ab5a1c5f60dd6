// Package player implements the player manager: roster, self id, incoming
// and outgoing position packets, per-tick simulation/extrapolation and the
// attach (turret) graph (spec §4.4).
package player

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
)

// InvalidID marks an absent player/attach reference (spec §3).
const InvalidID uint16 = 0xFFFF

// Togglable status bits (spec §3).
type Togglable uint32

const (
	StatusStealth Togglable = 1 << iota
	StatusCloak
	StatusXRadar
	StatusAntiwarp
	StatusFlash
	StatusSafety
	StatusMultifire
)

// Player is one roster entry.
type Player struct {
	ID    uint16
	Name  string
	Squad string

	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Orientation float64 // turns in [0,1)

	Ship uint8 // 0..7 in-game, 8 = spectator
	Freq uint16

	Energy    int32
	Bounty    int32
	Flags     int32 // carried flag count
	FlagTimer int32
	Toggles   Togglable

	AttachParent uint16 // InvalidID if unattached
	children     []uint16

	Timestamp uint16 // small tick; clock.InvalidSmallTick if unsynchronized

	// extrapolation / lerp state (spec §4.4)
	previousPos   mgl64.Vec2
	lerpVelocity  mgl64.Vec2
	lerpRemaining float64 // seconds remaining
	lastBounceTick clock.Tick
}

// IsAlive reports whether the player occupies a ship (not spectator).
func (p *Player) IsAlive() bool {
	return p.Ship < 8
}

// IsSynchronized reports whether the player's position has been updated
// recently enough to trust (spec P1).
func (p *Player) IsSynchronized(nowSmall uint16) bool {
	return clock.IsSynchronized(nowSmall, p.Timestamp)
}

// Children returns the attached turret ids in insertion order.
func (p *Player) Children() []uint16 {
	return p.children
}
