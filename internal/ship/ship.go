// Package ship implements the ship controller: per-tick input-to-ship
// translation, the energy economy, the firing priority chain, prize
// application and the seeded prize RNG (spec §4.6).
package ship

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
)

// Capability bits track which statuses the current ship has earned.
type Capability uint32

const (
	CapStealth Capability = 1 << iota
	CapCloak
	CapXRadar
	CapAntiwarp
	CapMultifire
	CapProximity
	CapBouncingBullets
)

// Ship is the current upgrade state, inventories, cooldowns and timed
// effects (spec §3).
type Ship struct {
	Energy   int32 // maximum; the live value is Controller.SelfEnergy
	Recharge int32
	Rotation int32
	Guns     int32
	Bombs    int32
	Thrust   int32
	Speed    int32
	Shrapnel int32

	Repels  int32
	Bursts  int32
	Decoys  int32
	Thors   int32
	Bricks  int32
	Rockets int32
	Portals int32

	NextBulletTick clock.Tick
	NextBombTick   clock.Tick
	NextRepelTick  clock.Tick

	RocketEndTick       clock.Tick
	ShutdownEndTick     clock.Tick
	FakeAntiwarpEndTick clock.Tick

	EmpedTime  float64
	SuperTime  float64
	ShieldTime float64

	PortalTime     float64
	PortalLocation mgl64.Vec2

	Multifire bool

	Capability Capability
}

// setNextTick moves target forward to next, never backward (invariant iv,
// P6).
func setNextTick(target *clock.Tick, next clock.Tick) {
	if clock.Diff(next, *target) > 0 {
		*target = next
	}
}

// AddBombDelay pushes the bomb cooldown at least ticks into the future.
func (c *Controller) AddBombDelay(ticks clock.Tick) {
	setNextTick(&c.Ship.NextBombTick, c.now+ticks)
}

// AddBulletDelay pushes the bullet cooldown at least ticks into the future.
func (c *Controller) AddBulletDelay(ticks clock.Tick) {
	setNextTick(&c.Ship.NextBulletTick, c.now+ticks)
}
