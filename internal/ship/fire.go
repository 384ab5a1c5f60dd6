package ship

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/soccer"
	"github.com/lab1702/zerobot/internal/weapon"
)

// fireWeapons walks the firing priority chain (spec §4.6): Repel, Burst,
// Thor, Decoy, Brick, Rocket, Portal, Warp, Bullet, Mine, Bomb. Each gate
// checks its cooldown and inventory; safe tiles fire without decrementing.
func (c *Controller) fireWeapons(self *player.Player, input InputState, tick clock.Tick) {
	var fired weapon.Data
	usedWeapon := false
	energyCost := int32(0)

	x, y := int(math.Floor(self.Position.X())), int(math.Floor(self.Position.Y()))
	inSafe := c.tm.IsSafe(x, y)
	rocketsEnabled := clock.Diff(tick, c.Ship.RocketEndTick) <= 0
	afterburning := input.IsDown(ActionAfterburner) && !rocketsEnabled
	canFastShoot := !afterburning || !c.Settings.DisableFastShooting

	bombDelay := clock.Tick(c.Settings.BombFireDelay)

	if input.IsDown(ActionRepel) && clock.Diff(tick, c.Ship.NextRepelTick) > 0 && c.Ship.Repels > 0 {
		fired = weapon.Data{Type: weapon.TypeRepel}
		usedWeapon = true
		if !inSafe {
			c.Ship.Repels--
		}
		setNextTick(&c.Ship.NextBombTick, tick+bombDelay)
		setNextTick(&c.Ship.NextBulletTick, tick+bombDelay)
		c.Ship.NextRepelTick = tick + kRepelDelayTicks
	}

	if !usedWeapon && input.IsDown(ActionBurst) && clock.Diff(tick, c.Ship.NextBombTick) > 0 && c.Ship.Bursts > 0 {
		fired = weapon.Data{Type: weapon.TypeBurst}
		usedWeapon = true
		if !inSafe {
			c.Ship.Bursts--
		}
		setNextTick(&c.Ship.NextBombTick, tick+bombDelay)
		setNextTick(&c.Ship.NextBulletTick, tick+bombDelay)
		c.Ship.NextRepelTick = tick + kRepelDelayTicks
	}

	if !usedWeapon && input.IsDown(ActionThor) && clock.Diff(tick, c.Ship.NextBombTick) > 0 && c.Ship.Thors > 0 && canFastShoot {
		fired = weapon.Data{Type: weapon.TypeThor}
		usedWeapon = true
		if !inSafe {
			c.Ship.Thors--
		}
		setNextTick(&c.Ship.NextBombTick, tick+bombDelay)
		setNextTick(&c.Ship.NextBulletTick, tick+bombDelay)
		c.Ship.NextRepelTick = tick + kRepelDelayTicks
	}

	if !usedWeapon && input.IsDown(ActionDecoy) && clock.Diff(tick, c.Ship.NextBombTick) > 0 && c.Ship.Decoys > 0 {
		fired = weapon.Data{Type: weapon.TypeDecoy}
		usedWeapon = true
		if !inSafe {
			c.Ship.Decoys--
		}
		setNextTick(&c.Ship.NextBombTick, tick+bombDelay)
		setNextTick(&c.Ship.NextBulletTick, tick+bombDelay)
		c.Ship.NextRepelTick = tick + kRepelDelayTicks
	}

	if input.IsDown(ActionBrick) && clock.Diff(tick, c.Ship.NextBombTick) > 0 && c.Ship.Bricks > 0 && !inSafe {
		c.Ship.Bricks--
		if c.DropBrick != nil {
			c.DropBrick(self.Position)
		}
		setNextTick(&c.Ship.NextBombTick, tick+bombDelay)
		setNextTick(&c.Ship.NextBulletTick, tick+bombDelay)
	}

	if input.IsDown(ActionRocket) && clock.Diff(tick, c.Ship.NextBombTick) > 0 &&
		clock.Diff(tick, c.Ship.RocketEndTick) > 0 && c.Ship.Rockets > 0 {
		c.Ship.Rockets--
		c.Ship.RocketEndTick = tick + clock.Tick(c.Settings.RocketTime)
		setNextTick(&c.Ship.NextBombTick, tick+bombDelay)
		setNextTick(&c.Ship.NextBulletTick, tick+bombDelay)
		c.Ship.NextRepelTick = tick + kRepelDelayTicks
	}

	portalInput := input.IsDown(ActionPortal)
	if portalInput {
		wasCleared := c.portalInputCleared
		c.portalInputCleared = false
		if wasCleared && c.Ship.Portals > 0 && !c.IsAntiwarped(tick) {
			c.Ship.Portals--
			c.Ship.PortalTime = float64(c.Settings.WarpPointDelay) / 100.0
			c.Ship.PortalLocation = self.Position
		}
	} else {
		c.portalInputCleared = true
	}

	if input.IsDown(ActionWarp) {
		wasCleared := c.warpInputCleared
		c.warpInputCleared = false
		if wasCleared && !portalInput {
			c.handleWarp(self, tick)
		}
	} else {
		c.warpInputCleared = true
	}

	if !usedWeapon && input.IsDown(ActionBullet) && clock.Diff(tick, c.Ship.NextBulletTick) > 0 &&
		c.Ship.Guns > 0 && canFastShoot {
		if c.FireBall == nil || !c.FireBall(soccer.FireGun) {
			fired, energyCost, usedWeapon = c.buildBulletIntent(tick)
		}
	}

	mineInput := input.IsDown(ActionMine)
	if !usedWeapon && mineInput && clock.Diff(tick, c.Ship.NextBombTick) > 0 && c.Ship.Bombs > 0 {
		if c.FireBall == nil || !c.FireBall(soccer.FireBomb) {
			fired, energyCost, usedWeapon = c.buildBombIntent(tick, true)
		}
	}

	if !usedWeapon && !mineInput && input.IsDown(ActionBomb) && clock.Diff(tick, c.Ship.NextBombTick) > 0 &&
		c.Ship.Bombs > 0 && canFastShoot {
		if c.FireBall == nil || !c.FireBall(soccer.FireBomb) {
			fired, energyCost, usedWeapon = c.buildBombIntent(tick, false)
			if usedWeapon && fired.Type == weapon.TypeProximityBomb && c.Settings.BombSafety &&
				c.enemyWithinProx(self, float64(c.Settings.ProximityDistance+int32(fired.Level)), tick) {
				usedWeapon = false
			}
			if usedWeapon && !fired.Alternate {
				// Bomb recoil applies before the firing velocity is read.
				thrust := float64(c.Settings.BombThrust) / 100.0 * 10.0 / 16.0
				self.Velocity = self.Velocity.Sub(headingOf(self.Orientation).Mul(thrust))
			}
		}
	}

	if !usedWeapon {
		return
	}

	if !inSafe && self.Toggles&player.StatusCloak != 0 {
		self.Toggles &^= player.StatusCloak
		self.Toggles |= player.StatusFlash
	}

	if c.Ship.SuperTime > 0 {
		energyCost = 0
	}

	if inSafe {
		self.Velocity = mgl64.Vec2{}
		return
	}
	if c.SelfEnergy <= float64(energyCost) {
		return
	}
	if c.FireWeapon != nil && c.FireWeapon(fired) {
		c.SelfEnergy -= float64(energyCost)
		if c.SendPosition != nil {
			c.SendPosition()
		}
	}
}

// buildBulletIntent assembles the bullet fire data, its delay and energy
// cost, honoring multifire (spec §4.6).
func (c *Controller) buildBulletIntent(tick clock.Tick) (weapon.Data, int32, bool) {
	level := int(c.Ship.Guns - 1)
	data := weapon.Data{Type: weapon.TypeBullet, Level: level}
	if c.Ship.Capability&CapBouncingBullets != 0 {
		data.Type = weapon.TypeBouncingBullet
	}

	multifire := c.Ship.Multifire && c.Ship.Capability&CapMultifire != 0
	var delay clock.Tick
	var cost int32
	if multifire {
		delay = clock.Tick(c.Settings.MultiFireDelay)
		cost = c.Settings.MultiFireEnergy * int32(level+1)
	} else {
		delay = clock.Tick(c.Settings.BulletFireDelay)
		cost = c.Settings.BulletFireEnergy * int32(level+1)
	}

	if float64(cost) >= c.SelfEnergy {
		return weapon.Data{}, 0, false
	}
	setNextTick(&c.Ship.NextBulletTick, tick+delay)
	setNextTick(&c.Ship.NextBombTick, c.Ship.NextBulletTick)
	return data, cost, true
}

// buildBombIntent assembles a bomb or mine fire (spec §4.6): proximity by
// capability, shrapnel piggybacked off the gun level.
func (c *Controller) buildBombIntent(tick clock.Tick, mine bool) (weapon.Data, int32, bool) {
	level := int(c.Ship.Bombs - 1)
	data := weapon.Data{Type: weapon.TypeBomb, Level: level, Alternate: mine}
	if c.Ship.Capability&CapProximity != 0 {
		data.Type = weapon.TypeProximityBomb
	}
	if c.Ship.Guns > 0 {
		data.Shrap = int(c.Ship.Shrapnel)
		data.ShrapLevel = int(c.Ship.Guns - 1)
		data.ShrapBouncing = c.Ship.Capability&CapBouncingBullets != 0
	}

	var cost int32
	if mine {
		cost = c.Settings.LandmineFireEnergy + c.Settings.LandmineFireEnergyUpgrade*int32(level+1)
	} else {
		cost = c.Settings.BombFireEnergy + c.Settings.BombFireEnergyUpgrade*int32(level+1)
	}
	if float64(cost) >= c.SelfEnergy {
		return weapon.Data{}, 0, false
	}

	setNextTick(&c.Ship.NextBombTick, tick+clock.Tick(c.Settings.BombFireDelay))
	if !c.Settings.EmpBomb {
		setNextTick(&c.Ship.NextBulletTick, c.Ship.NextBombTick)
		c.Ship.NextRepelTick = tick + kRepelDelayTicks
	}
	return data, cost, true
}

// enemyWithinProx implements the BombSafety gate: suppress prox bombs when
// any synchronized enemy is within range (spec §4.6).
func (c *Controller) enemyWithinProx(self *player.Player, proxTiles float64, tick clock.Tick) bool {
	nowSmall := clock.SmallTick(tick)
	players := c.players.All()
	for i := range players {
		p := &players[i]
		if p.ID == self.ID || !p.IsAlive() || p.Freq == self.Freq {
			continue
		}
		if !p.IsSynchronized(nowSmall) {
			continue
		}
		d := p.Position.Sub(self.Position)
		if d.Dot(d) <= proxTiles*proxTiles {
			return true
		}
	}
	return false
}

// handleWarp realizes the Warp action (spec §4.6): fire a carried ball,
// else warp to a laid portal, else respawn at the cost of full energy.
func (c *Controller) handleWarp(self *player.Player, tick clock.Tick) {
	if c.FireBall != nil && c.FireBall(soccer.FireWarp) {
		return
	}
	if c.IsAntiwarped(tick) {
		return
	}

	if c.Ship.PortalTime > 0 {
		c.Ship.PortalTime = 0
		self.Toggles |= player.StatusFlash
		self.Position = c.Ship.PortalLocation
		if c.SendPosition != nil {
			c.SendPosition()
		}
		c.Ship.NextBombTick = tick + kRepelDelayTicks
		c.Ship.FakeAntiwarpEndTick = tick + clock.Tick(c.Settings.AntiwarpSettleDelay)
		return
	}

	if clock.Diff(tick, c.Ship.NextBombTick) > 0 {
		if c.SelfEnergy >= float64(c.Ship.Energy) {
			self.Toggles |= player.StatusFlash
			c.SelfEnergy = 1
			self.Velocity = mgl64.Vec2{}
			if c.Spawn != nil {
				c.Spawn(false)
			}
			c.Ship.FakeAntiwarpEndTick = tick + clock.Tick(c.Settings.AntiwarpSettleDelay)
		}
		c.Ship.NextBombTick = tick + kRepelDelayTicks
	}
}
