package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/weapon"
)

// registerHandlers subscribes every manager to its packet types. Handlers
// parse defensively: a malformed packet is logged and discarded, never
// fatal (spec §7 transport failures).
func (s *State) registerHandlers() {
	d := s.Dispatcher

	d.Register(netmsg.PlayerID, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParsePlayerLeaving(b) // same u16-id layout
		if err != nil {
			s.warn("PlayerId", err)
			return
		}
		s.Players.SelfID = p.PlayerID
	})

	d.Register(netmsg.PlayerEntering, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParsePlayerEntering(b)
		if err != nil {
			s.warn("PlayerEntering", err)
			return
		}
		s.Players.OnPlayerEntering(p.PlayerID, p.Name, p.Squad, p.Ship, p.Freq)
		s.Energy.OnPlayerReset(p.PlayerID)
		if p.Attach != player.InvalidID {
			s.Players.Attach(p.PlayerID, p.Attach)
		}
		if p.PlayerID == s.Players.SelfID && p.Ship != 8 {
			s.SpawnSelf(false)
		}
	})

	d.Register(netmsg.PlayerLeaving, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParsePlayerLeaving(b)
		if err != nil {
			s.warn("PlayerLeaving", err)
			return
		}
		if p.PlayerID != s.Players.SelfID {
			s.Players.OnPlayerLeaving(p.PlayerID)
		}
	})

	d.Register(netmsg.TeamAndShipChange, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseTeamAndShipChange(b)
		if err != nil {
			s.warn("TeamAndShipChange", err)
			return
		}
		s.onFreqOrShipChange(p.PlayerID, p.Freq, p.Ship, true)
	})

	d.Register(netmsg.FrequencyChange, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseFrequencyChange(b)
		if err != nil {
			s.warn("FrequencyChange", err)
			return
		}
		pl := s.Players.PlayerByID(p.PlayerID)
		if pl == nil {
			return
		}
		s.onFreqOrShipChange(p.PlayerID, p.Freq, pl.Ship, false)
	})

	d.Register(netmsg.LargePosition, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseLargePosition(b)
		if err != nil {
			s.warn("LargePosition", err)
			return
		}
		s.absorbLargePosition(p)
	})

	d.Register(netmsg.SmallPosition, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseSmallPosition(b)
		if err != nil {
			s.warn("SmallPosition", err)
			return
		}
		s.absorbSmallPosition(p)
	})

	d.Register(netmsg.BatchedLarge, s, func(_ interface{}, b []byte) {
		records, err := netmsg.ParseBatchedLarge(b)
		if err != nil {
			s.warn("BatchedLarge", err)
		}
		s.absorbBatched(records)
	})

	d.Register(netmsg.BatchedSmall, s, func(_ interface{}, b []byte) {
		records, err := netmsg.ParseBatchedSmall(b)
		if err != nil {
			s.warn("BatchedSmall", err)
		}
		s.absorbBatched(records)
	})

	d.Register(netmsg.PlayerDeath, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParsePlayerDeath(b)
		if err != nil {
			s.warn("PlayerDeath", err)
			return
		}
		s.Players.DetachAllChildren(p.KilledID)
		s.Players.DetachSelf(p.KilledID)
		s.Energy.OnPlayerReset(p.KilledID)
		if p.KilledID == s.Players.SelfID {
			s.SpawnSelf(false)
		}
	})

	d.Register(netmsg.Chat, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseChat(b)
		if err != nil {
			s.warn("Chat", err)
			return
		}
		s.Chat.OnChatPacket(p)
	})

	d.Register(netmsg.FlagPosition, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseFlagPosition(b)
		if err != nil {
			s.warn("FlagPosition", err)
			return
		}
		s.Flags.OnFlagPosition(p)
	})

	d.Register(netmsg.FlagClaim, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseFlagClaim(b)
		if err != nil {
			s.warn("FlagClaim", err)
			return
		}
		s.Flags.OnFlagClaim(p)
		if carrier := s.Players.PlayerByID(p.PlayerID); carrier != nil {
			carrier.Flags++
		}
	})

	d.Register(netmsg.DropFlag, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseFlagClaim(b)
		if err != nil {
			s.warn("DropFlag", err)
			return
		}
		if flag := s.Flags.Flag(p.ID); flag != nil && flag.Carrier != player.InvalidID {
			if carrier := s.Players.PlayerByID(flag.Carrier); carrier != nil && carrier.Flags > 0 {
				carrier.Flags--
			}
		}
		s.Flags.OnDropFlag(p)
	})

	d.Register(netmsg.TurfFlagUpdate, s, func(_ interface{}, b []byte) {
		owners, err := netmsg.ParseTurfFlagUpdate(b)
		if err != nil {
			s.warn("TurfFlagUpdate", err)
		}
		s.Flags.OnTurfUpdate(owners)
	})

	d.Register(netmsg.SetCoordinates, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseSetCoordinates(b)
		if err != nil {
			s.warn("SetCoordinates", err)
			return
		}
		self := s.Players.Self()
		if self == nil {
			return
		}
		self.Position = mgl64.Vec2{float64(p.X), float64(p.Y)}
		self.Velocity = mgl64.Vec2{}
		self.Toggles |= player.StatusFlash
	})

	d.Register(netmsg.CreateTurret, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseTurret(b)
		if err != nil || !p.HasDest {
			return
		}
		s.Players.Attach(p.RequesterID, p.DestID)
	})

	d.Register(netmsg.DestroyTurret, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseTurret(b)
		if err != nil {
			return
		}
		s.Players.DetachSelf(p.RequesterID)
	})

	d.Register(netmsg.PlayerPrize, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParsePlayerPrize(b)
		if err != nil {
			s.warn("PlayerPrize", err)
			return
		}
		s.Greens.OnPlayerPrize(p)
	})

	d.Register(netmsg.CollectedPrize, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParseCollectedPrize(b)
		if err != nil {
			s.warn("CollectedPrize", err)
			return
		}
		self := s.Players.Self()
		if self == nil {
			return
		}
		for i := uint16(0); i < p.Count; i++ {
			s.Ship.ApplyPrize(self, int32(p.PrizeID), s.lastTick)
		}
	})

	d.Register(netmsg.ShipReset, s, func(_ interface{}, b []byte) {
		s.Ship.ResetShip(s.lastTick)
	})

	d.Register(netmsg.ArenaSettingsPacket, s, func(_ interface{}, b []byte) {
		s.applySettings(s.Conn.Settings())
	})

	d.Register(netmsg.PowerballPosition, s, func(_ interface{}, b []byte) {
		p, err := netmsg.ParsePowerballPosition(b)
		if err != nil {
			s.warn("PowerballPosition", err)
			return
		}
		s.Soccer.OnPowerballPosition(p, s.lastTick, s.Clock.Microtick())
	})

	d.Register(netmsg.SoccerGoal, s, func(_ interface{}, b []byte) {
		// goal announcements only matter to the behavior layer; the ball
		// slot resets on its next PowerballPosition
	})
}

func (s *State) warn(packet string, err error) {
	if s.Logger != nil {
		s.Logger.Printf("game: malformed %s packet: %v", packet, err)
	}
}

// applySettings refreshes every manager's settings copy after an
// ArenaSettings update.
func (s *State) applySettings(settings netmsg.ArenaSettings) {
	s.Settings = settings
	s.Ship.Settings = settings
	s.Soccer.Settings = settings
	s.Energy.Settings = settings
	s.Queue.SetFloodLimit(settings.FloodLimit)
}

// onFreqOrShipChange applies a server-announced team or ship change:
// detach chains propagate to all children, and the player's own attachment
// drops (spec §4.4, scenario S6).
func (s *State) onFreqOrShipChange(id, freq uint16, newShip uint8, shipChanged bool) {
	p := s.Players.PlayerByID(id)
	if p == nil {
		return
	}
	s.Players.DetachAllChildren(id)
	s.Players.DetachSelf(id)
	p.Freq = freq
	p.Ship = newShip
	s.Energy.OnPlayerReset(id)

	if id == s.Players.SelfID && shipChanged && newShip != 8 {
		s.Ship.ResetShip(s.lastTick)
	}
}

// absorbLargePosition feeds a LargePosition packet through the player
// manager's snap/lerp absorption and realizes any announced weapon fire
// (spec §4.4, §4.5).
func (s *State) absorbLargePosition(p netmsg.LargePositionPacket) {
	if p.PlayerID == s.Players.SelfID {
		return
	}
	pl := s.Players.PlayerByID(p.PlayerID)
	if pl == nil {
		return
	}

	// Reject packets whose reconstructed local timestamp is too old (spec
	// §5: >300 ticks in the past is silently dropped).
	nowSmall := clock.SmallTick(s.lastTick)
	age := int32(nowSmall) - int32(p.Timestamp&clock.SmallTickMask)
	if age < 0 {
		age += 1 << 15
	}
	if age > 300 && age < (1<<15)-clock.StaleReorderSlack {
		return
	}

	pl.Toggles = player.Togglable(p.Toggles)
	pl.Bounty = int32(p.Bounty)
	if p.ExtraPresent {
		pl.Energy = int32(p.Energy)
		pl.FlagTimer = int32(p.FlagTimer)
	}

	pos := mgl64.Vec2{float64(p.X) / 16.0, float64(p.Y) / 16.0}
	vel := mgl64.Vec2{float64(p.VelX) / 160.0, float64(p.VelY) / 160.0}
	flash := p.Toggles&uint8(player.StatusFlash) != 0

	absorbed := s.Players.AbsorbPosition(p.PlayerID, player.IncomingPosition{
		SmallTick: p.Timestamp & clock.SmallTickMask,
		Position:  pos,
		Velocity:  vel,
		Flash:     flash,
	}, nowSmall, s.Map, pl.Freq, s.ShipRadius)
	if !absorbed {
		return
	}

	pl.Orientation = float64(p.Direction) / 40.0

	if p.Weapon != 0 {
		s.fireRemoteWeapon(pl, p.Weapon, p.Timestamp)
	}
}

func (s *State) absorbSmallPosition(p netmsg.SmallPositionPacket) {
	if uint16(p.PlayerID) == s.Players.SelfID {
		return
	}
	pl := s.Players.PlayerByID(uint16(p.PlayerID))
	if pl == nil {
		return
	}
	pl.Toggles = player.Togglable(p.Toggles)
	pl.Bounty = int32(p.Bounty)

	pos := mgl64.Vec2{float64(p.X) / 16.0, float64(p.Y) / 16.0}
	vel := mgl64.Vec2{float64(p.VelX) / 160.0, float64(p.VelY) / 160.0}
	flash := p.Toggles&uint8(player.StatusFlash) != 0

	if s.Players.AbsorbPosition(uint16(p.PlayerID), player.IncomingPosition{
		SmallTick: p.Timestamp & clock.SmallTickMask,
		Position:  pos,
		Velocity:  vel,
		Flash:     flash,
	}, clock.SmallTick(s.lastTick), s.Map, pl.Freq, s.ShipRadius) {
		pl.Orientation = float64(p.Direction) / 40.0
	}
}

func (s *State) absorbBatched(records []netmsg.BatchedPositionRecord) {
	nowSmall := clock.SmallTick(s.lastTick)
	for _, rec := range records {
		if rec.PlayerID == s.Players.SelfID {
			continue
		}
		pl := s.Players.PlayerByID(rec.PlayerID)
		if pl == nil {
			continue
		}
		pos := mgl64.Vec2{float64(rec.X) / 16.0, float64(rec.Y) / 16.0}
		vel := mgl64.Vec2{float64(rec.VelX) / 160.0, float64(rec.VelY) / 160.0}
		s.Players.AbsorbBatchedPosition(rec.PlayerID, rec.Timestamp10, pos, vel, false,
			nowSmall, s.Map, pl.Freq, s.ShipRadius)
	}
}

// fireRemoteWeapon realizes the weapon a remote position packet announced,
// catching the projectile up from its fire tick to now (spec §4.5).
func (s *State) fireRemoteWeapon(pl *player.Player, encoded uint16, smallTick uint16) {
	data, ok := DecodeWeapon(encoded)
	if !ok {
		return
	}

	fireTick := s.lastTick
	diff := int32(clock.SmallTick(s.lastTick)) - int32(smallTick&clock.SmallTickMask)
	if diff < 0 {
		diff += 1 << 15
	}
	if diff > 0 && diff < 300 {
		fireTick -= clock.Tick(diff)
	}

	intent := weapon.FireIntent{
		PlayerID:    pl.ID,
		Frequency:   pl.Freq,
		Position:    pl.Position,
		PlayerVel:   pl.Velocity,
		Heading:     pl.Orientation * 2 * math.Pi,
		Data:        data,
		FireTick:    fireTick,
		CurrentTick: s.lastTick,
		MultifireOn: pl.Toggles&player.StatusMultifire != 0,
	}
	s.Weapons.Fire(intent, s.shipStats())
	s.Energy.OnWeaponFire(pl.ID, data)
}
