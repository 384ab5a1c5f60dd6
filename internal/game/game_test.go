package game

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/ship"
	"github.com/lab1702/zerobot/internal/tilemap"
	"github.com/lab1702/zerobot/internal/weapon"
)

type fakeConn struct {
	sent     [][]byte
	reliable [][]byte
	settings netmsg.ArenaSettings
}

func (c *fakeConn) Send(buffer []byte)                 { c.sent = append(c.sent, buffer) }
func (c *fakeConn) SendReliableMessage(payload []byte) { c.reliable = append(c.reliable, payload) }
func (c *fakeConn) ServerTick() uint32                 { return 0 }
func (c *fakeConn) Settings() netmsg.ArenaSettings     { return c.settings }

type nopBallSender struct{}

func (nopBallSender) SendBallFire(uint8, mgl64.Vec2, mgl64.Vec2, uint16, uint32) {}
func (nopBallSender) SendBallPickup(uint8, uint32)                              {}
func (nopBallSender) SendBallGoal(uint8, uint32)                                {}

func testState(t *testing.T) (*State, *fakeConn) {
	t.Helper()
	conn := &fakeConn{settings: netmsg.ArenaSettings{
		BounceFactor:      16,
		SendPositionDelay: 5,
		FloodLimit:        10,
		BulletSpeed:       1600,
		BombSpeed:         1600,
		MaxMines:          2,
		TeamMaxMines:      4,
		AliveTime: map[int]int32{
			int(weapon.TypeBullet) * 2: 500,
			int(weapon.TypeBomb) * 2:   500,
			int(weapon.TypeBomb)*2 + 1: 6000,
		},
		InitialEnergy: 1000,
		MaximumEnergy: 1700,
	}}

	s := New(Config{
		Conn:       conn,
		Map:        tilemap.New(),
		BallSender: nopBallSender{},
		ShipRadius: 14.0 / 16.0,
	})
	// pin the clock for determinism
	base := time.Now()
	s.Clock.Now = func() time.Time { return base }

	self := s.Players.OnPlayerEntering(1, "self", "", 0, 0)
	s.Players.SelfID = 1
	self.Position = mgl64.Vec2{512, 512}
	self.Timestamp = 0
	s.Ship.Ship.Energy = 1000
	s.Ship.SelfEnergy = 1000
	return s, conn
}

func TestPositionExtrapolation(t *testing.T) {
	// Scenario S1: a position packet stamped 8 ticks ago with velocity
	// (1,0) tiles/s projects forward by 0.08 tiles and arms the lerp.
	s, _ := testState(t)
	s.lastTick = 100

	x := s.Players.OnPlayerEntering(2, "x", "", 0, 1)
	x.Position = mgl64.Vec2{100, 100}
	x.Timestamp = clock.InvalidSmallTick

	now := clock.SmallTick(s.lastTick)
	pkt := netmsg.LargePositionPacket{
		PlayerID:  2,
		Timestamp: now - 8,
		X:         200 * 16,
		Y:         200 * 16,
		VelX:      160, // 1 tile/s
		VelY:      0,
	}
	s.absorbLargePosition(pkt)

	// axis error >= 4 tiles forces a snap to the projection
	if math.Abs(x.Position.X()-200.08) > 1e-3 {
		t.Errorf("x = %f, want 200.08", x.Position.X())
	}
	if math.Abs(x.Position.Y()-200) > 1e-3 {
		t.Errorf("y = %f, want 200", x.Position.Y())
	}
}

func TestPositionPacketTimestampsStrictlyIncrease(t *testing.T) {
	// P8 / R1: every outgoing packet's server timestamp exceeds the last,
	// even when sent within the same tick.
	s, conn := testState(t)
	s.lastTick = 50

	s.SendPositionPacket()
	s.SendPositionPacket()
	s.SendPositionPacket()

	if len(conn.sent) != 3 {
		t.Fatalf("sent %d packets, want 3", len(conn.sent))
	}
	var prev uint32
	for i, buf := range conn.sent {
		parsed, err := netmsg.ParseOutgoingPosition(buf)
		if err != nil {
			t.Fatalf("packet %d unparsable: %v", i, err)
		}
		if i > 0 && parsed.ServerTimestamp <= prev {
			t.Errorf("packet %d timestamp %d not > %d", i, parsed.ServerTimestamp, prev)
		}
		prev = parsed.ServerTimestamp
	}
}

func TestPositionRoundTrip(t *testing.T) {
	// R1: serialize -> parse -> serialize is byte-identical.
	s, conn := testState(t)
	self := s.Players.Self()
	self.Velocity = mgl64.Vec2{3, -2}
	self.Bounty = 17
	s.SendPositionPacket()

	buf := conn.sent[0]
	parsed, err := netmsg.ParseOutgoingPosition(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	again := netmsg.BuildPosition(parsed)
	if len(again) != len(buf) {
		t.Fatalf("re-serialized length %d, want %d", len(again), len(buf))
	}
	for i := range buf {
		if buf[i] != again[i] {
			t.Fatalf("byte %d differs: %#x vs %#x", i, buf[i], again[i])
		}
	}
}

func TestWeaponFieldRoundTrip(t *testing.T) {
	cases := []weapon.Data{
		{Type: weapon.TypeBullet, Level: 2},
		{Type: weapon.TypeBomb, Level: 1, Alternate: true, Shrap: 12, ShrapLevel: 1, ShrapBouncing: true},
		{Type: weapon.TypeThor},
		{Type: weapon.TypeRepel},
	}
	for _, d := range cases {
		encoded := EncodeWeapon(d)
		decoded, ok := DecodeWeapon(encoded)
		if !ok {
			t.Fatalf("decode failed for %+v", d)
		}
		if decoded != d {
			t.Errorf("round trip %+v -> %+v", d, decoded)
		}
	}
	if _, ok := DecodeWeapon(0); ok {
		t.Error("zero weapon field decoded as a weapon")
	}
}

func TestRemoteFireSpawnsWeapon(t *testing.T) {
	s, _ := testState(t)
	s.lastTick = 1000

	x := s.Players.OnPlayerEntering(2, "x", "", 0, 1)
	x.Position = mgl64.Vec2{100, 100}
	x.Timestamp = clock.InvalidSmallTick

	pkt := netmsg.LargePositionPacket{
		PlayerID:  2,
		Timestamp: clock.SmallTick(s.lastTick),
		X:         100 * 16,
		Y:         100 * 16,
		Weapon:    EncodeWeapon(weapon.Data{Type: weapon.TypeBullet, Level: 1}),
	}
	s.absorbLargePosition(pkt)

	live := 0
	s.Weapons.Alive(func(_ int, w *weapon.Weapon) {
		if w.PlayerID == 2 {
			live++
		}
	})
	if live == 0 {
		t.Error("remote fire produced no weapon")
	}
}

func TestFreqChangeDetachesChildren(t *testing.T) {
	// Scenario S6: a parent's frequency change leaves every child detached
	// with an invalid timestamp.
	s, _ := testState(t)
	parent := s.Players.OnPlayerEntering(10, "t", "", 0, 1)
	a := s.Players.OnPlayerEntering(11, "a", "", 0, 1)
	b := s.Players.OnPlayerEntering(12, "b", "", 0, 1)
	s.Players.Attach(11, 10)
	s.Players.Attach(12, 10)

	s.onFreqOrShipChange(10, 5, parent.Ship, false)

	for _, child := range []*player.Player{a, b} {
		if child.AttachParent != player.InvalidID {
			t.Errorf("child %d still attached", child.ID)
		}
		if child.Timestamp != clock.InvalidSmallTick {
			t.Errorf("child %d timestamp not invalidated", child.ID)
		}
	}
	if len(parent.Children()) != 0 {
		t.Error("parent children list not empty")
	}
}

func TestFlagLifecycle(t *testing.T) {
	s, _ := testState(t)

	s.Flags.OnFlagPosition(netmsg.FlagPositionPacket{ID: 3, X: 500, Y: 501, Owner: 2})
	flag := s.Flags.Flag(3)
	if flag == nil {
		t.Fatal("flag not created on FlagPosition")
	}
	if flag.Owner != 2 || flag.X != 500 {
		t.Error("flag fields wrong")
	}

	// claim keeps the flag in the table (spec §3: carried, not erased)
	s.Flags.OnFlagClaim(netmsg.FlagClaimPacket{ID: 3, PlayerID: 9})
	if s.Flags.Flag(3) == nil {
		t.Fatal("claimed flag erased")
	}
	if s.Flags.Flag(3).Carrier != 9 {
		t.Error("carrier not recorded")
	}

	s.Flags.OnDropFlag(netmsg.FlagClaimPacket{ID: 3, PlayerID: 9})
	if s.Flags.Flag(3).Carrier != player.InvalidID {
		t.Error("drop did not clear carrier")
	}
}

func TestGreensExpire(t *testing.T) {
	s, _ := testState(t)
	s.Greens.Add(100, 100, 7, 500)
	s.Greens.Add(200, 200, 3, 1500)

	s.Greens.Update(1000)
	if s.Greens.Count() != 1 {
		t.Errorf("greens = %d after expiry pass, want 1", s.Greens.Count())
	}
	if s.Greens.At(200, 200) == nil {
		t.Error("wrong green reaped")
	}
}

func TestMineQuota(t *testing.T) {
	// Laying the MaxMines+1-th mine fails.
	s, _ := testState(t)
	self := s.Players.Self()
	self.Position = mgl64.Vec2{512, 512}

	mine := weapon.Data{Type: weapon.TypeBomb, Alternate: true}
	if !s.fireSelfWeapon(mine) {
		t.Fatal("first mine rejected")
	}
	// move so the same-tile check doesn't trip first
	self.Position = mgl64.Vec2{520, 512}
	if !s.fireSelfWeapon(mine) {
		t.Fatal("second mine rejected")
	}
	self.Position = mgl64.Vec2{530, 512}
	if s.fireSelfWeapon(mine) {
		t.Error("third mine accepted past MaxMines=2")
	}
}

func TestDispatchRouting(t *testing.T) {
	s, _ := testState(t)

	// build a PlayerEntering payload through the writer
	w := netmsg.NewWriter()
	w.U8(0) // ship
	w.U8(0) // audio
	w.FixedString("newguy", 20)
	w.FixedString("squad", 20)
	w.U32(0)
	w.U32(0)
	w.U16(42)     // pid
	w.U16(3)      // freq
	w.U16(0)      // wins
	w.U16(0)      // losses
	w.U16(0xFFFF) // attach
	w.U16(0)      // flags
	w.U8(0)       // koth

	s.Dispatcher.Dispatch(netmsg.PlayerEntering, w.Buffer())

	p := s.Players.PlayerByID(42)
	if p == nil {
		t.Fatal("PlayerEntering did not create roster entry")
	}
	if p.Name != "newguy" || p.Freq != 3 {
		t.Errorf("entry fields: name %q freq %d", p.Name, p.Freq)
	}

	// leaving removes it
	lw := netmsg.NewWriter()
	lw.U16(42)
	s.Dispatcher.Dispatch(netmsg.PlayerLeaving, lw.Buffer())
	if s.Players.PlayerByID(42) != nil {
		t.Error("PlayerLeaving did not remove roster entry")
	}
}

func TestUpdateTickSmoke(t *testing.T) {
	// One full tick through the fixed §5 order with a live weapon, a ball
	// and a queued chat message must leave the world consistent.
	s, conn := testState(t)

	s.Queue.SendTeam("tick check")
	s.fireSelfWeapon(weapon.Data{Type: weapon.TypeBullet})

	// advance the pinned clock a tenth of a second so the position cadence
	// gate opens
	base := s.Clock.Now()
	s.Clock.Now = func() time.Time { return base.Add(100 * time.Millisecond) }

	var input ship.InputState
	input.Set(ship.ActionForward, true)
	s.Update(input, 0.01)

	if len(conn.sent) == 0 {
		t.Error("no position packet went out")
	}
	if s.Queue.Pending() != 0 {
		t.Error("chat queue did not drain")
	}
}
