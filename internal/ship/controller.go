package ship

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/soccer"
	"github.com/lab1702/zerobot/internal/tilemap"
	"github.com/lab1702/zerobot/internal/weapon"
)

// kRepelDelayTicks is the fixed cooldown between sequential repels.
const kRepelDelayTicks clock.Tick = 50

// kShutdownRotation is the forced turn rate while engines are shut down.
const kShutdownRotation = 40.0 / 400.0

// Controller runs before the player manager each tick (spec §5 ordering),
// translating the behavior layer's InputState into self-ship state and fire
// intents. Collaborators are injected as funcs so the owning GameState can
// wire them without reference cycles (Design Notes §9).
type Controller struct {
	players *player.Manager
	tm      *tilemap.Map

	Settings netmsg.ArenaSettings

	Ship       Ship
	SelfEnergy float64
	ShipRadius float64

	// PrizeSeed is the server-synchronized prize RNG state (spec §4.6).
	PrizeSeed uint32

	// Rand jitters Super duration only; it is deliberately NOT the prize
	// RNG (spec §9: protocol determinism never uses a default generator,
	// but Super time is purely local state).
	Rand *rand.Rand

	// Collaborator hooks.
	FireWeapon   func(data weapon.Data) bool
	FireBall     func(method soccer.FireMethod) bool
	SendPosition func()
	Spawn        func(resetShip bool)
	DropBrick    func(pos mgl64.Vec2)

	// Event hooks.
	OnFullEnergy func()
	OnEmpLoss    func()
	OnSafeEnter  func(pos mgl64.Vec2)
	OnSafeLeave  func(pos mgl64.Vec2)

	portalInputCleared bool
	warpInputCleared   bool

	now clock.Tick
}

// NewController returns a controller for the self ship.
func NewController(players *player.Manager, tm *tilemap.Map) *Controller {
	return &Controller{
		players:            players,
		tm:                 tm,
		Rand:               rand.New(rand.NewSource(0)),
		portalInputCleared: true,
		warpInputCleared:   true,
	}
}

func headingOf(orientation float64) mgl64.Vec2 {
	angle := orientation * 2 * math.Pi
	return mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
}

func truncate(v mgl64.Vec2, max float64) mgl64.Vec2 {
	if max < 0 {
		max = -max
	}
	if v.Len() <= max {
		return v
	}
	return v.Normalize().Mul(max)
}

// IsAntiwarped reports whether self cannot warp or attach right now: the
// fake-antiwarp settle window is active, or a synchronized enemy with
// Antiwarp within AntiWarpPixels range.
func (c *Controller) IsAntiwarped(tick clock.Tick) bool {
	if clock.Diff(c.Ship.FakeAntiwarpEndTick, tick) > 0 {
		return true
	}
	self := c.players.Self()
	if self == nil {
		return false
	}
	radius := float64(c.Settings.AntiWarpPixels) / 16.0
	nowSmall := clock.SmallTick(tick)
	players := c.players.All()
	for i := range players {
		p := &players[i]
		if p.ID == self.ID || p.Freq == self.Freq || !p.IsAlive() {
			continue
		}
		if p.Toggles&player.StatusAntiwarp == 0 || !p.IsSynchronized(nowSmall) {
			continue
		}
		if p.Position.Sub(self.Position).Len() <= radius {
			return true
		}
	}
	return false
}

// Update runs one ship tick: afterburner/rocket/shutdown thrust, rotation,
// wormhole gravity, speed caps, the energy economy and the firing chain
// (spec §4.6).
func (c *Controller) Update(input InputState, dt float64, tick clock.Tick) {
	c.now = tick
	self := c.players.Self()
	if self == nil || !self.IsAlive() {
		return
	}

	rocketsEnabled := clock.Diff(tick, c.Ship.RocketEndTick) <= 0
	abCost := float64(c.Settings.AfterburnerEnergy) / 10.0 * dt
	afterburners := input.IsDown(ActionAfterburner) && c.SelfEnergy > abCost && !rocketsEnabled
	engineShutdown := clock.Diff(c.Ship.ShutdownEndTick, tick) > 0

	shipSpeed := c.Ship.Speed
	shipSpeed = c.applyWormholeGravity(self, dt, shipSpeed)

	if c.Ship.ShieldTime > 0 {
		c.Ship.ShieldTime -= dt
		if c.Ship.ShieldTime < 0 {
			c.Ship.ShieldTime = 0
		}
	}

	thrustForward, thrustBackward := false, false

	if self.AttachParent == player.InvalidID {
		thrust := c.Ship.Thrust
		if afterburners {
			thrust = c.Settings.MaximumThrust
		}
		if len(self.Children()) > 0 {
			thrust -= c.Settings.TurretThrustPenalty
			if thrust < 0 {
				thrust = 0
			}
		}
		if engineShutdown {
			thrust = 0
		}

		accel := float64(thrust) * 10.0 / 16.0
		heading := headingOf(self.Orientation)
		if rocketsEnabled {
			accel = float64(c.Settings.RocketThrust) * 10.0 / 16.0
			self.Velocity = self.Velocity.Add(heading.Mul(accel * dt))
		} else if input.IsDown(ActionBackward) {
			self.Velocity = self.Velocity.Sub(heading.Mul(accel * dt))
			thrustBackward = true
		} else if input.IsDown(ActionForward) {
			self.Velocity = self.Velocity.Add(heading.Mul(accel * dt))
			thrustForward = true
		}
	} else if parent := c.players.PlayerByID(self.AttachParent); parent != nil {
		// A turret mirrors its parent's motion.
		if parent.IsSynchronized(clock.SmallTick(tick)) {
			self.Position = parent.Position
			self.Velocity = parent.Velocity
		} else {
			self.Velocity = mgl64.Vec2{}
		}
	}

	if engineShutdown {
		thrustForward, thrustBackward = false, false
	}

	rotation := float64(c.Ship.Rotation) / 400.0
	if engineShutdown {
		rotation = kShutdownRotation
	}
	if input.IsDown(ActionLeft) {
		self.Orientation -= rotation * dt
		if self.Orientation < 0 {
			self.Orientation += 1
		}
	}
	if input.IsDown(ActionRight) {
		self.Orientation += rotation * dt
		if self.Orientation >= 1 {
			self.Orientation -= 1
		}
	}

	// Max speed and afterburner cost only apply while actually thrusting.
	afterburners = afterburners && (thrustForward || thrustBackward)

	speed := c.Ship.Speed
	if afterburners {
		speed = c.Settings.MaximumSpeed
	}
	if rocketsEnabled {
		speed = c.Settings.RocketSpeed
	}
	if speed < shipSpeed {
		speed = shipSpeed
	}
	if len(self.Children()) > 0 {
		speed -= c.Settings.TurretSpeedPenalty
	}
	self.Velocity = truncate(self.Velocity, float64(speed)/10.0/16.0)

	c.updateEnergy(self, afterburners, abCost, dt)
	c.updateSafety(self)

	c.fireWeapons(self, input, tick)

	self.Energy = int32(c.SelfEnergy)
}

func (c *Controller) applyWormholeGravity(self *player.Player, dt float64, shipSpeed int32) int32 {
	gravity := c.Settings.Gravity
	if gravity == 0 {
		return shipSpeed
	}
	for _, wh := range c.tm.Wormholes {
		dx := (self.Position.X() - wh.X()) * 16
		dy := (self.Position.Y() - wh.Y()) * 16
		distSq := dx*dx + dy*dy + 1

		if distSq >= math.Abs(float64(gravity))*1000 {
			continue
		}
		gravityThrust := float64(gravity) * 1000 / distSq
		dir := wh.Sub(self.Position)
		if dir.Len() == 0 {
			continue
		}
		perSecond := gravityThrust * 10.0 / 16.0
		self.Velocity = self.Velocity.Add(dir.Normalize().Mul(perSecond * dt))
		if math.Abs(gravityThrust) >= 1 {
			shipSpeed = c.Settings.GravityTopSpeed
		}
	}
	return shipSpeed
}

// updateEnergy runs the fixed order from spec §4.6: afterburner cost, then
// EMP-or-recharge, then each active status cost. Continuum sits at full
// energy with afterburners on when their cost is below recharge, so the
// order is observable.
func (c *Controller) updateEnergy(self *player.Player, afterburners bool, abCost, dt float64) {
	if afterburners {
		c.SelfEnergy -= abCost
	}

	if c.Ship.EmpedTime > 0 {
		c.Ship.EmpedTime -= dt
		if c.Ship.EmpedTime <= 0 && c.OnEmpLoss != nil {
			c.OnEmpLoss()
		}
	} else {
		wasBelowFull := c.SelfEnergy < float64(c.Ship.Energy)
		c.SelfEnergy += float64(c.Ship.Recharge) / 10.0 * dt
		if c.SelfEnergy >= float64(c.Ship.Energy) {
			c.SelfEnergy = float64(c.Ship.Energy)
			if wasBelowFull && c.OnFullEnergy != nil {
				c.OnFullEnergy()
			}
		}
	}

	c.statusEnergy(self, player.StatusXRadar, c.Settings.XRadarEnergy, dt)
	c.statusEnergy(self, player.StatusStealth, c.Settings.StealthEnergy, dt)
	c.statusEnergy(self, player.StatusCloak, c.Settings.CloakEnergy, dt)
	c.statusEnergy(self, player.StatusAntiwarp, c.Settings.AntiWarpEnergy, dt)
}

func (c *Controller) statusEnergy(self *player.Player, status player.Togglable, cost int32, dt float64) {
	if self.Toggles&status == 0 {
		return
	}
	updateCost := float64(cost) / 10.0 * dt
	if c.SelfEnergy > updateCost {
		c.SelfEnergy -= updateCost
	} else {
		self.Toggles &^= status
	}
}

func (c *Controller) updateSafety(self *player.Player) {
	x, y := int(math.Floor(self.Position.X())), int(math.Floor(self.Position.Y()))
	if c.tm.IsSafe(x, y) {
		if self.Toggles&player.StatusSafety == 0 && c.OnSafeEnter != nil {
			c.OnSafeEnter(self.Position)
		}
		self.Toggles |= player.StatusSafety
	} else {
		if self.Toggles&player.StatusSafety != 0 && c.OnSafeLeave != nil {
			c.OnSafeLeave(self.Position)
		}
		self.Toggles &^= player.StatusSafety
	}
}
