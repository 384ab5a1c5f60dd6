package soccer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/tilemap"
)

type recordingSender struct {
	fires   int
	pickups int
	goals   int
}

func (s *recordingSender) SendBallFire(ballID uint8, pos, vel mgl64.Vec2, playerID uint16, ts uint32) {
	s.fires++
}
func (s *recordingSender) SendBallPickup(ballID uint8, ts uint32) { s.pickups++ }
func (s *recordingSender) SendBallGoal(ballID uint8, ts uint32)   { s.goals++ }

type recordingDelays struct {
	bullet, bomb clock.Tick
}

func (d *recordingDelays) AddBulletDelay(t clock.Tick) { d.bullet += t }
func (d *recordingDelays) AddBombDelay(t clock.Tick)   { d.bomb += t }

func newTestManager(t *testing.T) (*Manager, *player.Manager, *recordingSender, *recordingDelays) {
	t.Helper()
	players := player.NewManager()
	self := players.OnPlayerEntering(1, "self", "", 0, 0)
	players.SelfID = 1
	self.Timestamp = 0

	sender := &recordingSender{}
	delays := &recordingDelays{}
	m := NewManager(players, tilemap.New(), sender, delays)
	m.Settings = netmsg.ArenaSettings{
		SoccerBallProximity:  32, // 2 tiles
		SoccerBallSpeed:      320,
		SoccerBallFriction:   100,
		SoccerBallThrowTimer: 500,
		PassDelay:            50,
		SoccerMode:           0,
		AllowGuns:            false,
		AllowBombs:           true,
	}
	return m, players, sender, delays
}

func fieldBall(m *Manager, id uint8, x, y uint16, vx, vy int16, ts uint32) {
	m.OnPowerballPosition(netmsg.PowerballPositionPacket{
		BallID: id, X: x, Y: y, VelX: vx, VelY: vy,
		Owner: player.InvalidID, Timestamp: ts,
	}, clock.Tick(ts), 0)
}

func TestFrictionDecay(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	fieldBall(m, 0, 100, 100, 160, 0, 1)
	b := m.Ball(0)
	if b == nil {
		t.Fatal("ball slot not populated")
	}
	if b.Friction != 1_000_000 {
		t.Fatalf("moving ball friction = %d, want 1000000", b.Friction)
	}

	vel0 := b.VelX
	m.simulate(b, false, 0)
	if b.Friction != 1_000_000-100 {
		t.Errorf("friction after one step = %d, want friction - delta", b.Friction)
	}
	// position advanced by vel in fixed-point units; the first step keeps
	// full velocity (friction is still exactly 10^6)
	if b.X != uint32(100)*1000+uint32(vel0) {
		t.Errorf("X = %d, want %d", b.X, uint32(100)*1000+uint32(vel0))
	}
	m.simulate(b, false, 0)
	if b.VelX >= vel0 {
		t.Errorf("velocity did not decay once friction dropped: %d -> %d", vel0, b.VelX)
	}
}

func TestStationaryBallHasNoFriction(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	fieldBall(m, 0, 100, 100, 0, 0, 1)
	b := m.Ball(0)
	if b.Friction != 0 {
		t.Errorf("stationary ball friction = %d, want 0", b.Friction)
	}
	x := b.X
	m.simulate(b, false, 0)
	if b.X != x {
		t.Error("at-rest ball moved")
	}
}

func TestInterpolation(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	fieldBall(m, 0, 100, 100, 160, 0, 1)
	b := m.Ball(0)
	b.LastMicroTick = 0
	m.simulate(b, false, 0) // fills NextX/NextY

	p0 := m.BallPosition(b, 0)
	pHalf := m.BallPosition(b, clock.TickDurationMicro/2)
	p1 := m.BallPosition(b, clock.TickDurationMicro)

	mid := p0.Add(p1).Mul(0.5)
	if math.Abs(pHalf.X()-mid.X()) > 1e-9 {
		t.Errorf("half-tick interpolation x = %f, want %f", pHalf.X(), mid.X())
	}
}

func TestPassDelayGatesPickup(t *testing.T) {
	m, players, sender, _ := newTestManager(t)
	self := players.Self()
	// the ball's 100,100 below is in pixels: tile 6.25,6.25
	self.Position = mgl64.Vec2{100.0 / 16, 100.0 / 16}

	fieldBall(m, 0, 100, 100, 0, 0, 1)
	b := m.Ball(0)
	b.LastTouchTimestamp = 1

	// within pass delay: no pickup request
	m.Update(0.01, clock.TickDurationMicro, 10)
	if sender.pickups != 0 {
		t.Fatalf("pickup sent inside pass delay")
	}

	// past pass delay and past the 1/s request gate
	m.Update(0.01, 2*clock.TickDurationMicro, 200)
	if sender.pickups != 1 {
		t.Fatalf("pickups = %d, want 1", sender.pickups)
	}

	// immediately again: once-per-second limit
	b.LastTouchTimestamp = 1
	m.Update(0.01, 3*clock.TickDurationMicro, 210)
	if sender.pickups != 1 {
		t.Errorf("pickup request not rate-limited: %d", sender.pickups)
	}
}

func TestCarriedBallAndFire(t *testing.T) {
	m, players, sender, delays := newTestManager(t)
	_ = players

	fieldBall(m, 0, 100, 100, 0, 0, 5)
	m.OnPowerballPosition(netmsg.PowerballPositionPacket{
		BallID: 0, X: 100, Y: 100, Owner: 1, Timestamp: 0,
	}, 10, 0)

	if !m.IsCarryingBall() {
		t.Fatal("self should be carrying")
	}
	if m.Ball(0).State != StateCarried {
		t.Fatal("ball state should be Carried")
	}

	// guns are disallowed, so a gun release throws the ball
	if !m.FireBall(FireGun, 0, 20) {
		t.Fatal("FireBall(Gun) should release when guns are disallowed")
	}
	if m.IsCarryingBall() {
		t.Error("carry state not cleared")
	}
	if sender.fires != 1 {
		t.Errorf("fires = %d, want 1", sender.fires)
	}
	if delays.bullet < 50 || delays.bomb < 50 {
		t.Errorf("cooldowns not extended: bullet %d bomb %d", delays.bullet, delays.bomb)
	}
}

func TestFireBallBlockedWhenWeaponAllowed(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	fieldBall(m, 0, 100, 100, 0, 0, 5)
	m.OnPowerballPosition(netmsg.PowerballPositionPacket{
		BallID: 0, X: 100, Y: 100, Owner: 1, Timestamp: 0,
	}, 10, 0)

	// bombs are allowed in this arena: pressing bomb fires the bomb, not
	// the ball
	if m.FireBall(FireBomb, 0, 20) {
		t.Error("FireBall(Bomb) should not release while bombs are allowed")
	}
}

func TestNoGoalMode(t *testing.T) {
	// P7: SoccerMode 0 means IsTeamGoal is false everywhere.
	m, _, _, _ := newTestManager(t)
	for _, p := range []mgl64.Vec2{{0, 0}, {511, 511}, {512, 512}, {1023, 1023}} {
		if m.IsTeamGoal(p) {
			t.Errorf("IsTeamGoal(%v) true under mode 0", p)
		}
	}
}

func TestGoalModes(t *testing.T) {
	m, players, _, _ := newTestManager(t)
	self := players.Self()

	m.Settings.SoccerMode = 1
	self.Freq = 0
	if !m.IsTeamGoal(mgl64.Vec2{100, 500}) {
		t.Error("mode 1, freq 0: left half should be own goal")
	}
	if m.IsTeamGoal(mgl64.Vec2{900, 500}) {
		t.Error("mode 1, freq 0: right half should be scorable")
	}
	self.Freq = 1
	if !m.IsTeamGoal(mgl64.Vec2{900, 500}) {
		t.Error("mode 1, freq 1: right half should be own goal")
	}

	m.Settings.SoccerMode = 3
	self.Freq = 2
	if !m.IsTeamGoal(mgl64.Vec2{100, 900}) {
		t.Error("mode 3, freq 2: bottom-left quadrant should be own goal")
	}
	if m.IsTeamGoal(mgl64.Vec2{900, 100}) {
		t.Error("mode 3, freq 2: top-right quadrant should be scorable")
	}
}

func TestStaleTimestampIgnored(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	fieldBall(m, 0, 100, 100, 160, 0, 50)
	// older timestamp, same slot: the field-ball state must not reset
	before := m.Ball(0).X
	fieldBall(m, 0, 500, 500, 0, 0, 10)
	if m.Ball(0).X != before {
		t.Error("stale powerball position overwrote newer state")
	}
}
