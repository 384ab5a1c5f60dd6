package ship

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/rng"
)

// Prize enumerates the green prize ids. Negative ids apply the prize's
// downgrade (spec §4.6).
type Prize int32

const (
	PrizeNone Prize = iota
	PrizeRecharge
	PrizeEnergy
	PrizeRotation
	PrizeStealth
	PrizeCloak
	PrizeXRadar
	PrizeWarp
	PrizeGuns
	PrizeBombs
	PrizeBouncingBullets
	PrizeThruster
	PrizeTopSpeed
	PrizeFullCharge
	PrizeEngineShutdown
	PrizeMultifire
	PrizeProximity
	PrizeSuper
	PrizeShields
	PrizeShrapnel
	PrizeAntiwarp
	PrizeRepel
	PrizeBurst
	PrizeDecoy
	PrizeThor
	PrizeMultiprize
	PrizeBrick
	PrizeRocket
	PrizePortal

	PrizeCount
)

// clampStat adjusts *stat by +/- step and clamps to [initial, maximum]
// (spec §4.6: "stat prizes clamp to [Initial, Maximum]").
func clampStat(stat *int32, step, initial, maximum int32, negative bool) {
	if negative {
		*stat -= step
		if *stat < initial {
			*stat = initial
		}
	} else {
		*stat += step
		if *stat > maximum {
			*stat = maximum
		}
	}
}

// applyCapability handles the idempotent capability prizes: negative
// removes (a no-op when already absent); positive on an already-present
// capability refunds the bounty increment (spec §4.6, R2).
func (c *Controller) applyCapability(self *player.Player, cap Capability, enabled bool, negative bool) {
	if negative {
		c.Ship.Capability &^= cap
		return
	}
	if !enabled {
		return
	}
	if c.Ship.Capability&cap != 0 {
		self.Bounty--
	}
	c.Ship.Capability |= cap
}

// ApplyPrize applies one prize id (sign carries negativity) to the self
// ship (spec §4.6). Positive prizes increment bounty; negatives decrement,
// never below zero.
func (c *Controller) ApplyPrize(self *player.Player, prizeID int32, tick clock.Tick) {
	negative := prizeID < 0
	prize := Prize(prizeID)
	if negative {
		prize = Prize(-prizeID)
		if self.Bounty > 0 {
			self.Bounty--
		}
	} else {
		self.Bounty++
	}

	s := &c.Settings

	switch prize {
	case PrizeRecharge:
		clampStat(&c.Ship.Recharge, s.UpgradeRecharge, s.InitialRecharge, s.MaximumRecharge, negative)
	case PrizeEnergy:
		clampStat(&c.Ship.Energy, s.UpgradeEnergy, s.InitialEnergy, s.MaximumEnergy, negative)
	case PrizeRotation:
		clampStat(&c.Ship.Rotation, s.UpgradeRotation, s.InitialRotation, s.MaximumRotation, negative)
	case PrizeStealth:
		c.applyCapability(self, CapStealth, s.StealthStatus > 0, negative)
	case PrizeCloak:
		c.applyCapability(self, CapCloak, s.CloakStatus > 0, negative)
	case PrizeXRadar:
		c.applyCapability(self, CapXRadar, s.XRadarStatus > 0, negative)
	case PrizeWarp:
		if c.Spawn != nil {
			c.Spawn(false)
		}
		self.Velocity = mgl64.Vec2{}
	case PrizeGuns:
		clampStat(&c.Ship.Guns, 1, s.InitialGuns, s.MaxGuns, negative)
	case PrizeBombs:
		clampStat(&c.Ship.Bombs, 1, s.InitialBombs, s.MaxBombs, negative)
	case PrizeBouncingBullets:
		c.applyCapability(self, CapBouncingBullets, true, negative)
	case PrizeThruster:
		clampStat(&c.Ship.Thrust, s.UpgradeThrust, s.InitialThrust, s.MaximumThrust, negative)
	case PrizeTopSpeed:
		clampStat(&c.Ship.Speed, s.UpgradeSpeed, s.InitialSpeed, s.MaximumSpeed, negative)
	case PrizeFullCharge:
		if negative {
			c.SelfEnergy = 1
		} else {
			c.SelfEnergy = float64(c.Ship.Energy)
		}
	case PrizeEngineShutdown:
		ticks := clock.Tick(s.EngineShutdownTime)
		if negative {
			ticks *= 3
		}
		c.Ship.ShutdownEndTick = tick + ticks
	case PrizeMultifire:
		c.applyCapability(self, CapMultifire, true, negative)
	case PrizeProximity:
		c.applyCapability(self, CapProximity, true, negative)
	case PrizeSuper:
		// Super duration jitter is local-only state, not protocol RNG.
		if s.SuperTime > 0 {
			superTime := float64(c.Rand.Int31n(s.SuperTime)) / 100.0
			if superTime > c.Ship.SuperTime {
				c.Ship.SuperTime = superTime
			}
		}
	case PrizeShields:
		c.Ship.ShieldTime = float64(s.ShieldsTime) / 100.0
	case PrizeShrapnel:
		if negative {
			if c.Ship.Shrapnel >= s.ShrapnelRate {
				c.Ship.Shrapnel -= s.ShrapnelRate
			}
		} else {
			c.Ship.Shrapnel += s.ShrapnelRate
			if c.Ship.Shrapnel > s.ShrapnelMax {
				c.Ship.Shrapnel = s.ShrapnelMax
			}
		}
	case PrizeAntiwarp:
		c.applyCapability(self, CapAntiwarp, s.AntiWarpStatus > 0, negative)
	case PrizeRepel:
		clampInventory(&c.Ship.Repels, s.RepelMax, negative)
	case PrizeBurst:
		clampInventory(&c.Ship.Bursts, s.BurstMax, negative)
	case PrizeDecoy:
		clampInventory(&c.Ship.Decoys, s.DecoyMax, negative)
	case PrizeThor:
		clampInventory(&c.Ship.Thors, s.ThorMax, negative)
	case PrizeMultiprize:
		if !negative {
			c.applyMultiprize(self, tick)
		}
	case PrizeBrick:
		clampInventory(&c.Ship.Bricks, s.BrickMax, negative)
	case PrizeRocket:
		clampInventory(&c.Ship.Rockets, s.RocketMax, negative)
	case PrizePortal:
		clampInventory(&c.Ship.Portals, s.PortalMax, negative)
	}
}

func clampInventory(count *int32, max int32, negative bool) {
	if negative {
		if *count > 0 {
			*count--
		}
		return
	}
	*count++
	if *count > max {
		*count = max
	}
}

// multiprizeExcluded are prizes a Multiprize roll never grants (spec §4.6).
func multiprizeExcluded(p Prize) bool {
	switch p {
	case PrizeNone, PrizeEngineShutdown, PrizeShields, PrizeSuper, PrizeMultiprize, PrizeWarp, PrizeBrick:
		return true
	}
	return false
}

// applyMultiprize applies MultiPrizeCount random prizes from the weighted
// RNG, excluding the volatile set and preserving bounty across the inner
// applications (spec §4.6).
func (c *Controller) applyMultiprize(self *player.Player, tick clock.Tick) {
	count := c.Settings.MultiPrizeCount
	attempts := 0
	for i := int32(0); i < count && attempts < 9999; i, attempts = i+1, attempts+1 {
		randomPrize := c.GeneratePrize(false)
		if multiprizeExcluded(Prize(randomPrize)) {
			i--
			continue
		}
		bounty := self.Bounty
		c.ApplyPrize(self, randomPrize, tick)
		self.Bounty = bounty
	}
}

// GeneratePrize draws the next prize id from the seeded VIE RNG, exactly
// mirroring the server (spec §4.6): one draw selects from the cumulative
// weight table, a second decides negativity, and prize_seed advances to the
// final RNG state.
func (c *Controller) GeneratePrize(negativeAllowed bool) int32 {
	weights := c.Settings.PrizeWeights
	var weightTotal uint32
	for _, w := range weights {
		weightTotal += uint32(w)
	}
	if weightTotal == 0 {
		return 0
	}

	gen := rng.NewVIE(c.PrizeSeed)
	var r1 uint32
	gen, r1 = gen.Next()

	var result int32
	var weight uint32
	for i, w := range weights {
		weight += uint32(w)
		if r1%weightTotal < weight {
			var r2 uint32
			gen, r2 = gen.Next()
			if !negativeAllowed || c.Settings.PrizeNegativeFactor == 0 || r2%uint32(c.Settings.PrizeNegativeFactor) != 0 {
				result = int32(i + 1)
			} else {
				result = -int32(i + 1)
			}
			break
		}
	}

	c.PrizeSeed = gen.Seed()
	return result
}

// resetShipExcluded are prizes ResetShip's initial-bounty generation never
// grants (spec §4.6).
func resetShipExcluded(p Prize) bool {
	switch p {
	case PrizeFullCharge, PrizeEngineShutdown, PrizeShields, PrizeSuper, PrizeWarp, PrizeBrick:
		return true
	}
	return false
}

// ResetShip restores the self ship to its initial loadout, then generates
// InitialBounty prizes from the weighted RNG while save/restoring the
// prize seed to stay synchronized (spec §4.6; Open Question 3 resolution:
// the save/generate/restore sequence is atomic within this call because the
// core is single-threaded and ResetShip never yields).
func (c *Controller) ResetShip(tick clock.Tick) {
	self := c.players.Self()
	if self == nil {
		return
	}

	lastTick := tick - 1
	s := &c.Settings

	c.Ship.Shrapnel = 0
	c.Ship.Capability = 0
	c.Ship.Multifire = false
	c.Ship.EmpedTime = 0
	c.Ship.SuperTime = 0
	c.Ship.ShieldTime = 0
	c.Ship.PortalTime = 0
	c.Ship.NextBombTick = lastTick
	c.Ship.NextBulletTick = lastTick
	c.Ship.NextRepelTick = lastTick
	c.Ship.RocketEndTick = lastTick
	c.Ship.ShutdownEndTick = lastTick
	c.Ship.FakeAntiwarpEndTick = lastTick

	self.FlagTimer = 0
	self.Toggles = 0
	self.Bounty = 0

	if !self.IsAlive() {
		return
	}

	c.Ship.Energy = s.InitialEnergy
	c.Ship.Recharge = s.InitialRecharge
	c.Ship.Rotation = s.InitialRotation
	c.Ship.Guns = s.InitialGuns
	c.Ship.Bombs = s.InitialBombs
	c.Ship.Thrust = s.InitialThrust
	c.Ship.Speed = s.InitialSpeed
	c.Ship.Repels = s.InitialRepel
	c.Ship.Bursts = s.InitialBurst
	c.Ship.Decoys = s.InitialDecoy
	c.Ship.Thors = s.InitialThor
	c.Ship.Bricks = s.InitialBrick
	c.Ship.Rockets = s.InitialRocket
	c.Ship.Portals = s.InitialPortal

	if s.StealthStatus == 2 {
		c.Ship.Capability |= CapStealth
	}
	if s.CloakStatus == 2 {
		c.Ship.Capability |= CapCloak
	}
	if s.XRadarStatus == 2 {
		c.Ship.Capability |= CapXRadar
	}
	if s.AntiWarpStatus == 2 {
		c.Ship.Capability |= CapAntiwarp
	}

	pristineSeed := c.PrizeSeed

	var weightTotal uint32
	for _, w := range s.PrizeWeights {
		weightTotal += uint32(w)
	}
	if weightTotal > 0 {
		attempts := 0
		for i := int32(0); i < s.InitialBounty && attempts < 9999; i, attempts = i+1, attempts+1 {
			prizeID := c.GeneratePrize(false)
			if resetShipExcluded(Prize(prizeID)) {
				i--
				continue
			}
			c.ApplyPrize(self, prizeID, tick)
		}
	}

	// The generation above mutated the seed; restore it to stay
	// synchronized with other clients.
	c.PrizeSeed = pristineSeed

	c.SelfEnergy = float64(c.Ship.Energy)
	self.Energy = c.Ship.Energy
	self.Bounty = s.InitialBounty
}
