// Package soccer implements the powerball simulation: up to 8 balls with
// carry, pass-delay protection, goal detection, integer friction decay and
// microsecond-accurate interpolation between ticks (spec §4.8).
package soccer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// InvalidBallID marks an empty ball slot.
const InvalidBallID uint16 = 0xFFFF

// MaxBalls is the arena ball-slot capacity.
const MaxBalls = 8

// State is a ball's lifecycle phase.
type State uint8

const (
	StateWorld State = iota
	StateCarried
	StateGoal
)

// FireMethod distinguishes how the carrier released the ball.
type FireMethod uint8

const (
	FireGun FireMethod = iota
	FireBomb
	FireWarp
)

// Ball is one powerball slot. Positions are fixed-point x16000 (tile x16
// pixels, x1000 sub-pixel); velocities are the wire's x160 units applied
// directly to the fixed-point position each tick.
type Ball struct {
	ID        uint16
	CarrierID uint16
	Frequency uint16

	Friction      int32 // units 10^6 per second; <= 0 means at rest
	FrictionDelta int32

	X, Y         uint32
	VelX, VelY   int16
	NextX, NextY uint32

	Timestamp          uint32
	LastMicroTick      clock.Microtick
	LastTouchTimestamp clock.Tick
	TrailDelay         int32

	State State
}

// Sender is the connection-collaborator surface for ball traffic (spec §6:
// "Ball fire / pickup / goal: per connection collaborator").
type Sender interface {
	SendBallFire(ballID uint8, pos, vel mgl64.Vec2, playerID uint16, timestamp uint32)
	SendBallPickup(ballID uint8, timestamp uint32)
	SendBallGoal(ballID uint8, timestamp uint32)
}

// ShipDelays lets a ball release push the firing cooldowns forward so the
// throw doesn't coincide with a gun or bomb shot (spec §4.8).
type ShipDelays interface {
	AddBulletDelay(ticks clock.Tick)
	AddBombDelay(ticks clock.Tick)
}

// Manager owns the ball slots and the self-carry state. Invariant (iii): at
// most one ball has CarrierID == self at any time, tracked by carryID.
type Manager struct {
	players *player.Manager
	tm      *tilemap.Map
	sender  Sender
	delays  ShipDelays

	Settings netmsg.ArenaSettings

	// TimeDiff mirrors the connection's server-time offset for outgoing
	// timestamps.
	TimeDiff int32

	balls [MaxBalls]Ball

	carryID           uint16
	carryTimer        float64
	lastPickupRequest clock.Tick
}

// NewManager returns a cleared ball set.
func NewManager(players *player.Manager, tm *tilemap.Map, sender Sender, delays ShipDelays) *Manager {
	m := &Manager{
		players: players,
		tm:      tm,
		sender:  sender,
		delays:  delays,
		carryID: InvalidBallID,
	}
	m.Clear(0)
	return m
}

// Clear resets every slot to empty (arena change / map load).
func (m *Manager) Clear(now clock.Tick) {
	for i := range m.balls {
		m.balls[i] = Ball{
			ID:                 InvalidBallID,
			CarrierID:          player.InvalidID,
			LastTouchTimestamp: now,
		}
	}
	m.carryID = InvalidBallID
	m.carryTimer = 0
	m.lastPickupRequest = now
}

// Ball returns the slot for id, or nil.
func (m *Manager) Ball(id uint16) *Ball {
	if int(id) >= MaxBalls {
		return nil
	}
	if m.balls[id].ID == InvalidBallID {
		return nil
	}
	return &m.balls[id]
}

// IsCarryingBall reports whether the self player currently carries a ball.
func (m *Manager) IsCarryingBall() bool {
	return m.carryID != InvalidBallID
}

// CarryID returns the carried ball id, or InvalidBallID.
func (m *Manager) CarryID() uint16 { return m.carryID }

// simulateAxis steps one fixed-point axis and reverts/negates on wall
// contact, using the ball's full current tile for the solidity test.
func (m *Manager) simulateAxis(b *Ball, pos *uint32, vel *int16) {
	previous := *pos
	*pos = uint32(int64(*pos) + int64(*vel))

	x := int(b.X / 16000)
	y := int(b.Y / 16000)
	if m.tm.IsSolid(x, y, b.Frequency) {
		*pos = previous
		*vel = -*vel
	}
}

// simulate advances b one tick: both axes, own-goal check for the
// self-carrier trail, friction decay, and the one-step-ahead next position
// used for interpolation (spec §4.8).
func (m *Manager) simulate(b *Ball, dropTrail bool, now clock.Tick) {
	if b.Friction <= 0 {
		return
	}

	m.simulateAxis(b, &b.X, &b.VelX)
	m.simulateAxis(b, &b.Y, &b.VelY)

	if b.State != StateGoal && b.CarrierID == m.players.SelfID {
		x := int(b.X / 16000)
		y := int(b.Y / 16000)
		if m.tm.IsGoal(x, y) {
			pos := mgl64.Vec2{float64(b.X) / 16000.0, float64(b.Y) / 16000.0}
			if !m.IsTeamGoal(pos) {
				m.sender.SendBallGoal(uint8(b.ID), uint32(now)+uint32(m.TimeDiff))
				b.State = StateGoal
			}
		}
	}

	if dropTrail && (b.VelX != 0 || b.VelY != 0) {
		b.TrailDelay--
		if b.TrailDelay <= 0 {
			b.TrailDelay = 5
		}
	}

	friction := b.Friction / 1000
	b.VelX = int16((int32(b.VelX) * friction) / 1000)
	b.VelY = int16((int32(b.VelY) * friction) / 1000)
	b.Friction -= int32(b.FrictionDelta)

	b.NextX = b.X
	b.NextY = b.Y
	m.simulateAxis(b, &b.NextX, &b.VelX)
	m.simulateAxis(b, &b.NextY, &b.VelY)
}

// Update advances every ball's simulation to microtick, runs the self-carry
// throw timer, and performs touch detection under the pass-delay rules
// (spec §4.8).
func (m *Manager) Update(dt float64, microtick clock.Microtick, tick clock.Tick) {
	passDelay := clock.Tick(m.Settings.PassDelay)

	for i := range m.balls {
		b := &m.balls[i]
		if b.ID == InvalidBallID {
			continue
		}

		for int64(microtick-b.LastMicroTick) >= int64(clock.TickDurationMicro) {
			m.simulate(b, true, tick)
			b.LastMicroTick += clock.TickDurationMicro
		}

		if b.State == StateCarried && b.CarrierID == m.players.SelfID {
			m.carryID = b.ID
			m.carryTimer -= dt

			self := m.players.Self()
			if self != nil && self.IsAlive() {
				hasTimer := m.Settings.SoccerBallThrowTimer > 0
				if hasTimer && m.carryTimer < 0 {
					m.release(b, microtick, tick, false)
				}
			}
		}

		if b.State == StateWorld && clock.Diff(tick, b.LastTouchTimestamp) >= int32(passDelay) {
			m.detectTouch(b, tick, microtick)
		}
	}
}

// detectTouch finds the closest eligible player within the pickup radius;
// when that is the self player a BallPickup request goes out at most once
// per second (spec §4.8).
func (m *Manager) detectTouch(b *Ball, tick clock.Tick, microtick clock.Microtick) {
	position := mgl64.Vec2{float64(b.X) / 16000.0, float64(b.Y) / 16000.0}
	pickupRadius := float64(m.Settings.SoccerBallProximity) / 16.0
	nowSmall := clock.SmallTick(tick)

	closestDistSq := math.Inf(1)
	var closest *player.Player

	players := m.players.All()
	for i := range players {
		p := &players[i]
		if !p.IsAlive() {
			continue
		}
		if !p.IsSynchronized(nowSmall) {
			continue
		}
		if p.ID == b.CarrierID && (b.VelX != 0 || b.VelY != 0) {
			continue // previous carrier can't re-touch a moving ball
		}
		if p.AttachParent != player.InvalidID {
			continue
		}
		if m.IsCarryingBall() && p.ID == m.players.SelfID {
			continue
		}

		d := position.Sub(p.Position)
		distSq := d.Dot(d)
		if distSq <= pickupRadius*pickupRadius && distSq < closestDistSq {
			closestDistSq = distSq
			closest = p
		}
	}

	if closest == nil {
		return
	}

	if closest.ID == m.players.SelfID && clock.Diff(tick, m.lastPickupRequest) >= 100 {
		m.sender.SendBallPickup(uint8(b.ID), b.Timestamp)
		m.lastPickupRequest = tick
	}
	b.LastTouchTimestamp = tick
}

// FireBall releases the carried ball via method. Per the original client, a
// gun/bomb release only happens when that weapon class is disallowed in the
// arena: pressing fire with guns enabled shoots the gun, not the ball.
func (m *Manager) FireBall(method FireMethod, microtick clock.Microtick, tick clock.Tick) bool {
	if !m.IsCarryingBall() {
		return false
	}
	if method == FireGun && m.Settings.AllowGuns {
		return false
	}
	if method == FireBomb && m.Settings.AllowBombs {
		return false
	}

	b := m.Ball(m.carryID)
	if b == nil {
		return false
	}
	return m.release(b, microtick, tick, true)
}

// release sends the ball-fire packet with velocity = self velocity +/-
// heading * SoccerBallSpeed/160, clears carry state and pushes the firing
// cooldowns forward 50 ticks (spec §4.8). Forward is false for a throw-timer
// expiry, which ejects the ball backward the way the server does.
func (m *Manager) release(b *Ball, microtick clock.Microtick, tick clock.Tick, forward bool) bool {
	self := m.players.Self()
	if self == nil {
		return false
	}

	speed := float64(m.Settings.SoccerBallSpeed) / 160.0
	heading := headingOf(self.Orientation)
	velocity := self.Velocity.Add(heading.Mul(speed))
	if !forward {
		velocity = self.Velocity.Sub(heading.Mul(speed))
	}

	position := m.BallPosition(b, microtick)
	timestamp := uint32(tick) + uint32(m.TimeDiff)

	m.sender.SendBallFire(uint8(b.ID), position, velocity, self.ID, timestamp)
	m.carryID = InvalidBallID
	m.carryTimer = 0

	if m.delays != nil {
		m.delays.AddBulletDelay(50)
		m.delays.AddBombDelay(50)
	}
	return true
}

// OnPowerballPosition absorbs an incoming ball update (spec §4.8): a newer
// timestamp resets the slot as a field ball and fast-forwards it; timestamp
// zero means "currently carried".
func (m *Manager) OnPowerballPosition(pkt netmsg.PowerballPositionPacket, tick clock.Tick, microtick clock.Microtick) {
	if int(pkt.BallID) >= MaxBalls {
		return
	}
	b := &m.balls[pkt.BallID]
	timestamp := pkt.Timestamp & 0x7FFFFFFF

	isNew := b.ID == InvalidBallID ||
		int32(timestamp-b.Timestamp) > 0 ||
		b.State == StateGoal ||
		(b.State == StateCarried && timestamp != 0)
	b.ID = uint16(pkt.BallID)

	if isNew {
		m.absorbFieldBall(b, pkt, timestamp, tick, microtick)
		return
	}

	if timestamp == 0 {
		m.absorbCarried(b, pkt, microtick)
	}
}

func (m *Manager) absorbFieldBall(b *Ball, pkt netmsg.PowerballPositionPacket, timestamp uint32, tick clock.Tick, microtick clock.Microtick) {
	b.X = uint32(pkt.X) * 1000
	b.Y = uint32(pkt.Y) * 1000
	b.NextX = b.X
	b.NextY = b.Y
	b.VelX = pkt.VelX
	b.VelY = pkt.VelY
	b.Frequency = 0xFFFF
	b.State = StateWorld

	if b.ID == m.carryID {
		m.carryID = InvalidBallID
		m.carryTimer = 0
	}

	current := uint32(tick) + uint32(m.TimeDiff)
	simTicks := int32(current - timestamp)
	if simTicks > 6000 || simTicks < 0 {
		simTicks = 6000
	}
	if timestamp == 0 {
		simTicks = 0
	}

	if pkt.Owner != player.InvalidID {
		if carrier := m.players.PlayerByID(pkt.Owner); carrier != nil {
			b.Frequency = carrier.Freq
		}
		if pkt.Owner == m.players.SelfID {
			m.lastPickupRequest = tick
		}
		b.LastTouchTimestamp = tick
	}

	if b.VelX != 0 || b.VelY != 0 {
		b.FrictionDelta = m.Settings.SoccerBallFriction
		b.Friction = 1_000_000
	} else {
		b.Friction = 0
	}

	b.CarrierID = pkt.Owner

	for i := int32(0); i < simTicks; i++ {
		m.simulate(b, false, tick)
	}

	b.LastMicroTick = microtick
	b.Timestamp = timestamp
}

func (m *Manager) absorbCarried(b *Ball, pkt netmsg.PowerballPositionPacket, microtick clock.Microtick) {
	b.Timestamp = 0
	b.CarrierID = pkt.Owner
	b.VelX = 0
	b.VelY = 0
	b.LastMicroTick = microtick

	carrier := m.players.PlayerByID(pkt.Owner)
	if b.State != StateCarried && carrier != nil && carrier.IsAlive() {
		b.State = StateCarried
		if carrier.ID == m.players.SelfID {
			m.carryTimer = float64(m.Settings.SoccerBallThrowTimer) / 100.0
			m.carryID = b.ID
			if m.delays != nil {
				m.delays.AddBulletDelay(50)
				m.delays.AddBombDelay(50)
			}
		}
	}
}

// BallPosition interpolates b's render/query position at microtick: the
// carrier's nose when carried, else a lerp between the current and
// one-step-ahead simulated positions (spec §4.8).
func (m *Manager) BallPosition(b *Ball, microtick clock.Microtick) mgl64.Vec2 {
	if b.State == StateCarried {
		if carrier := m.players.PlayerByID(b.CarrierID); carrier != nil && carrier.IsAlive() {
			return carrier.Position.Add(headingOf(carrier.Orientation).Mul(0.75))
		}
	}

	current := mgl64.Vec2{float64(b.X) / 16000.0, float64(b.Y) / 16000.0}
	next := mgl64.Vec2{float64(b.NextX) / 16000.0, float64(b.NextY) / 16000.0}
	t := float64(microtick-b.LastMicroTick) / float64(clock.TickDurationMicro)
	return current.Mul(1 - t).Add(next.Mul(t))
}

func headingOf(orientation float64) mgl64.Vec2 {
	angle := orientation * 2 * math.Pi
	return mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
}
