// Package game owns the whole core as one arena: every manager lives in a
// single State value and holds plain references into it, with no cycles to
// backpatch (Design Notes §9). The per-tick Update runs the fixed order
// from spec §5: ship, player, weapon, soccer, chat queue, map/flag/green.
package game

import (
	"log"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/chat"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/dispatch"
	"github.com/lab1702/zerobot/internal/energy"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/num"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/rng"
	"github.com/lab1702/zerobot/internal/ship"
	"github.com/lab1702/zerobot/internal/soccer"
	"github.com/lab1702/zerobot/internal/telemetry"
	"github.com/lab1702/zerobot/internal/tilemap"
	"github.com/lab1702/zerobot/internal/weapon"
)

// Config carries the external collaborators State wires together.
type Config struct {
	Conn       netmsg.Connection
	Logger     *log.Logger
	Map        *tilemap.Map
	BallSender soccer.Sender
	ShipRadius float64
	Hub        *telemetry.Hub // optional spectator hub
}

// State is the arena root.
type State struct {
	Logger *log.Logger
	Conn   netmsg.Connection
	Clock  *clock.Source

	Dispatcher *dispatch.Dispatcher

	Map     *tilemap.Map
	Players *player.Manager
	Weapons *weapon.Manager
	Ship    *ship.Controller
	Chat    *chat.Controller
	Queue   *chat.Queue
	Soccer  *soccer.Manager
	Energy  *energy.Tracker
	Flags   FlagSet
	Greens  GreenSet
	Hub     *telemetry.Hub

	Settings   netmsg.ArenaSettings
	ShipRadius float64

	Rand *rand.Rand

	lastTick              clock.Tick
	lastPositionTick      clock.Tick
	lastPositionTimestamp uint32
	havePositionTimestamp bool
	pendingWeapon         uint16
}

// New assembles the arena and wires the ship controller's collaborator
// hooks into the sibling managers.
func New(cfg Config) *State {
	s := &State{
		Logger:     cfg.Logger,
		Conn:       cfg.Conn,
		Clock:      clock.NewSource(clock.Tick(cfg.Conn.ServerTick())),
		Dispatcher: dispatch.New(cfg.Logger),
		Map:        cfg.Map,
		Players:    player.NewManager(),
		Weapons:    weapon.NewManager(),
		Hub:        cfg.Hub,
		Settings:   cfg.Conn.Settings(),
		ShipRadius: cfg.ShipRadius,
		Rand:       rand.New(rand.NewSource(1)),
	}

	s.Ship = ship.NewController(s.Players, s.Map)
	s.Ship.Settings = s.Settings
	s.Ship.ShipRadius = cfg.ShipRadius

	s.Chat = chat.NewController(s.Players)
	s.Queue = chat.NewQueue(cfg.Conn, s.Players, s.Settings.FloodLimit, cfg.Logger)

	s.Soccer = soccer.NewManager(s.Players, s.Map, cfg.BallSender, s.Ship)
	s.Soccer.Settings = s.Settings

	s.Energy = energy.NewTracker(s.Players, s.Map)
	s.Energy.Settings = s.Settings

	s.Ship.FireWeapon = s.fireSelfWeapon
	s.Ship.FireBall = func(m soccer.FireMethod) bool {
		return s.Soccer.FireBall(m, s.Clock.Microtick(), s.lastTick)
	}
	s.Ship.SendPosition = s.SendPositionPacket
	s.Ship.Spawn = s.SpawnSelf

	s.registerHandlers()
	return s
}

// aliveTime resolves a weapon lifetime from the settings table.
func (s *State) aliveTime(t weapon.Type, alternate bool) clock.Tick {
	key := int(t) * 2
	if alternate {
		key++
	}
	if v, ok := s.Settings.AliveTime[key]; ok {
		return clock.Tick(v)
	}
	return 0
}

// shipStats bridges arena settings into the weapon manager's fire
// parameters.
func (s *State) shipStats() weapon.ShipWeaponStats {
	return weapon.ShipWeaponStats{
		BaseSpeed: func(t weapon.Type, level int) float64 {
			switch t {
			case weapon.TypeBomb, weapon.TypeProximityBomb, weapon.TypeThor:
				return float64(s.Settings.BombSpeed) / 160.0
			default:
				return float64(s.Settings.BulletSpeed) / 160.0
			}
		},
		AliveTime:      s.aliveTime,
		MultiFire:      s.Ship.Ship.Capability&ship.CapMultifire != 0,
		MultiFireAngle: float64(s.Settings.MultiFireAngle),
		ShipRadius:     s.ShipRadius,
	}
}

// simSettings bridges arena settings into the weapon simulator.
func (s *State) simSettings() weapon.SimSettings {
	return weapon.SimSettings{
		RepelDistance:      float64(s.Settings.RepelDistance) / 16.0,
		RepelSpeed:         float64(s.Settings.RepelSpeed) / 160.0,
		GravityBombs:       s.Settings.GravityBombs,
		Gravity:            s.Settings.Gravity,
		ProximityDistance:  float64(s.Settings.ProximityDistance),
		BombExplodeDelay:   clock.Tick(s.Settings.BombExplodeDelay),
		ShrapnelRandom:     s.Settings.ShrapnelRandom,
		InactiveShrapTicks: 25,
		BounceFactor:       16.0 / float64(num.Max(s.Settings.BounceFactor, 1)),
		AliveTime:          s.aliveTime,
	}
}

// fireSelfWeapon realizes a ship fire intent as live weapons, enforcing
// mine quotas, and records the weapon field for the next position packet
// so the fire is announced in the same tick's packet (spec §5 ordering).
func (s *State) fireSelfWeapon(d weapon.Data) bool {
	self := s.Players.Self()
	if self == nil {
		return false
	}

	if d.Type == weapon.TypeBomb && d.Alternate {
		x, y := int(math.Floor(self.Position.X())), int(math.Floor(self.Position.Y()))
		if s.Weapons.MineQuotaExceeded(self.ID, self.Freq, x, y,
			int(s.Settings.MaxMines), int(s.Settings.TeamMaxMines)) {
			return false
		}
	}

	intent := weapon.FireIntent{
		PlayerID:    self.ID,
		Frequency:   self.Freq,
		Position:    self.Position,
		PlayerVel:   self.Velocity,
		Heading:     self.Orientation * 2 * math.Pi,
		Data:        d,
		FireTick:    s.lastTick,
		CurrentTick: s.lastTick,
		MultifireOn: s.Ship.Ship.Multifire,
	}
	indices := s.Weapons.Fire(intent, s.shipStats())
	if len(indices) == 0 {
		return false
	}

	if (d.Type == weapon.TypeBomb || d.Type == weapon.TypeProximityBomb) && s.Settings.EmpBomb {
		for _, idx := range indices {
			s.Weapons.At(idx).Flags |= weapon.FlagEMP
		}
	}

	s.pendingWeapon = EncodeWeapon(d)
	s.Energy.OnWeaponFire(self.ID, d)
	return true
}

// SpawnSelf places the self player at a clear spawn point; resetShip also
// restores the initial loadout (ShipReset path), a plain warp does not.
// The spawn disk comes from SpawnSettings[freq%count] when one is defined,
// else the zone default region (spec §4.4).
func (s *State) SpawnSelf(resetShip bool) {
	self := s.Players.Self()
	if self == nil {
		return
	}

	region := player.SpawnRegion{
		Center: mgl64.Vec2{tilemap.Size / 2, tilemap.Size / 2},
		Radius: tilemap.Size / 2,
	}
	if n := len(s.Settings.SpawnSettings); n > 0 {
		sp := s.Settings.SpawnSettings[int(self.Freq)%n]
		if sp.Radius > 0 {
			region = player.SpawnRegion{
				Center: mgl64.Vec2{float64(sp.X), float64(sp.Y)},
				Radius: float64(sp.Radius),
			}
		}
	}

	s.Players.Spawn(s.Map, region, s.ShipRadius, self.Freq, s.Rand)
	if resetShip {
		s.Ship.ResetShip(s.lastTick)
	}
	s.SendPositionPacket()
}

// Update advances one tick of the whole core in the fixed §5 order.
func (s *State) Update(input ship.InputState, dt float64) {
	tick := s.Clock.Tick()
	s.lastTick = tick

	// ship first: a fire intent must become a weapon before the outgoing
	// position packet is assembled (spec §5).
	s.Ship.Update(input, dt, tick)

	// player simulation
	bounceFactor := 16.0 / float64(num.Max(s.Settings.BounceFactor, 1))
	players := s.Players.All()
	for i := range players {
		s.Players.Simulate(&players[i], s.Map, dt, bounceFactor, s.ShipRadius, tick)
	}

	// weapons
	enemies := s.enemyViews()
	events, _ := s.Weapons.Step(s.Map, enemies, s.simSettings(), tick)
	for _, ev := range events {
		if ev.Kind != weapon.ExplodePlayer {
			continue
		}
		// The slot was freed by the explosion but its contents are intact
		// until reuse; copy it for the damage estimate.
		w := *s.Weapons.At(ev.WeaponIndex)
		victim := s.Players.PlayerByID(ev.VictimID)
		gen := rng.NewVIE(w.RNGSeed)
		draw := func() uint32 {
			var v uint32
			gen, v = gen.Next()
			return v
		}
		s.Energy.OnWeaponHit(&w, victim, tick, draw)
		s.applySelfBlast(&w, tick)
	}

	// soccer
	s.Soccer.Update(dt, s.Clock.Microtick(), tick)

	// chat queue
	s.Queue.Update(tick)

	// map doors, flags, greens
	if _, closed := s.Map.UpdateDoors(uint32(tick), uint32(s.Settings.DoorDelay), tilemap.DoorMode(s.Settings.DoorMode)); len(closed) > 0 {
		s.checkDoorCrush(closed)
	}
	s.Greens.Update(tick)

	s.Energy.Update(tick)

	s.maybeSendPosition(tick)
	s.publishSnapshot(tick)
}

// applySelfBlast applies a bomb explosion's damage to the self ship using
// the §4.5 formulas, including the EMP recharge shutdown when the bomb
// carries the EMP flag and self is outside a safe tile.
func (s *State) applySelfBlast(w *weapon.Weapon, tick clock.Tick) {
	self := s.Players.Self()
	if self == nil || !self.IsAlive() {
		return
	}
	if w.Data.Type != weapon.TypeBomb && w.Data.Type != weapon.TypeProximityBomb && w.Data.Type != weapon.TypeThor {
		return
	}

	blast := weapon.ComputeBombBlast(w, s.Settings)
	distPixels := w.Position.Sub(self.Position).Len() * 16
	dealt := int32(blast.DamageAt(distPixels))
	dealt = weapon.ApplyOwnBlastHalving(dealt, w.PlayerID == self.ID)
	if dealt <= 0 {
		return
	}

	s.Ship.SelfEnergy -= float64(dealt)
	if s.Ship.SelfEnergy < 0 {
		s.Ship.SelfEnergy = 0
	}

	if w.Flags&weapon.FlagEMP != 0 && w.PlayerID != self.ID {
		x, y := int(math.Floor(self.Position.X())), int(math.Floor(self.Position.Y()))
		if !s.Map.IsSafe(x, y) {
			s.Ship.Ship.EmpedTime = weapon.EmpShutdownSeconds(s.Settings, blast.BaseDamage, dealt)
		}
	}
}

// checkDoorCrush respawns self when a door just transitioned from open to
// closed while overlapping the ship's bounding box (spec §4.2). Only the
// doors SeedDoors reported as freshly closed are tested, so a door that
// was already closed never re-triggers the warp.
func (s *State) checkDoorCrush(closed []tilemap.Door) {
	self := s.Players.Self()
	if self == nil || !self.IsAlive() {
		return
	}
	r := s.ShipRadius
	minX, minY := self.Position.X()-r, self.Position.Y()-r
	maxX, maxY := self.Position.X()+r, self.Position.Y()+r

	for _, d := range closed {
		if maxX >= float64(d.X) && minX <= float64(d.X+1) &&
			maxY >= float64(d.Y) && minY <= float64(d.Y+1) {
			s.SpawnSelf(false)
			return
		}
	}
}

// AttachSelf runs the client-side attach gates and, on success, starts the
// fake-antiwarp settle window on the ship controller (spec §4.4). The
// behavior layer calls this; the actual attach request rides the
// connection collaborator.
func (s *State) AttachSelf(targetID uint16) bool {
	endTick, ok := s.Players.AttachSelf(s.Players.SelfID, targetID, player.AttachSettings{
		AttachBounty:        s.Settings.AttachBounty,
		TurretLimit:         int(s.Settings.TurretLimit),
		AntiwarpSettleDelay: clock.Tick(s.Settings.AntiwarpSettleDelay),
		MaxEnergy:           s.Ship.Ship.Energy,
	}, s.lastTick)
	if !ok {
		return false
	}
	s.Ship.Ship.FakeAntiwarpEndTick = endTick
	s.Ship.SelfEnergy = float64(s.Players.Self().Energy)
	return true
}

// DetachSelf drops the self player's attachment (explicit request path).
func (s *State) DetachSelf() {
	s.Players.DetachSelf(s.Players.SelfID)
}

// enemyViews projects the roster into the weapon simulator's minimal view.
func (s *State) enemyViews() []weapon.EnemyPlayer {
	players := s.Players.All()
	views := make([]weapon.EnemyPlayer, 0, len(players))
	nowSmall := clock.SmallTick(s.lastTick)
	for i := range players {
		p := &players[i]
		if !p.IsAlive() || !p.IsSynchronized(nowSmall) {
			continue
		}
		x, y := int(math.Floor(p.Position.X())), int(math.Floor(p.Position.Y()))
		views = append(views, weapon.EnemyPlayer{
			ID:       p.ID,
			Freq:     p.Freq,
			Position: p.Position,
			InSafe:   s.Map.IsSafe(x, y),
		})
	}
	return views
}

// maybeSendPosition enforces the outgoing cadence: no more often than
// max(SendPositionDelay, 5) ticks (spec §4.4).
func (s *State) maybeSendPosition(tick clock.Tick) {
	delay := s.Settings.SendPositionDelay
	if delay < 5 {
		delay = 5
	}
	if clock.Diff(tick, s.lastPositionTick) < delay {
		return
	}
	s.SendPositionPacket()
}

// SendPositionPacket serializes and sends the self position now. The
// server timestamp is forced strictly greater than the previous packet's
// (spec §5, P8).
func (s *State) SendPositionPacket() {
	self := s.Players.Self()
	if self == nil || !self.IsAlive() {
		return
	}

	ts := s.Clock.ServerTimestamp()
	if s.havePositionTimestamp && int32(ts-s.lastPositionTimestamp) <= 0 {
		ts = s.lastPositionTimestamp + 1
	}
	s.lastPositionTimestamp = ts
	s.havePositionTimestamp = true
	s.lastPositionTick = s.lastTick

	out := netmsg.OutgoingPosition{
		Direction:       uint8(self.Orientation * 40),
		ServerTimestamp: ts,
		X:               uint16(self.Position.X() * 16),
		Y:               uint16(self.Position.Y() * 16),
		VelX:            int16(self.Velocity.X() * 160),
		VelY:            int16(self.Velocity.Y() * 160),
		Toggles:         uint8(self.Toggles),
		Bounty:          uint16(self.Bounty),
		Energy:          uint16(num.Clamp(int64(s.Ship.SelfEnergy), 0, 65535)),
		Weapon:          s.pendingWeapon,
	}
	s.pendingWeapon = 0

	s.Conn.Send(netmsg.BuildPosition(out))
}

// publishSnapshot streams the spectator frame when a hub is attached.
func (s *State) publishSnapshot(tick clock.Tick) {
	if s.Hub == nil {
		return
	}
	snap := telemetry.Snapshot{Tick: uint32(tick)}
	players := s.Players.All()
	for i := range players {
		p := &players[i]
		snap.Players = append(snap.Players, telemetry.PlayerSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			Freq:   p.Freq,
			Ship:   p.Ship,
			X:      p.Position.X(),
			Y:      p.Position.Y(),
			Bounty: p.Bounty,
		})
	}
	s.Weapons.Alive(func(_ int, w *weapon.Weapon) {
		snap.Weapons = append(snap.Weapons, telemetry.WeaponSnapshot{
			Owner: w.PlayerID,
			Type:  uint8(w.Data.Type),
			X:     w.Position.X(),
			Y:     w.Position.Y(),
		})
	})
	for id := uint16(0); id < soccer.MaxBalls; id++ {
		if b := s.Soccer.Ball(id); b != nil {
			pos := s.Soccer.BallPosition(b, s.Clock.Microtick())
			snap.Balls = append(snap.Balls, telemetry.BallSnapshot{
				ID: b.ID, Carrier: b.CarrierID, X: pos.X(), Y: pos.Y(),
			})
		}
	}
	s.Hub.Publish(snap)
}
