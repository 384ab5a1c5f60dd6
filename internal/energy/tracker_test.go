package energy

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/rng"
	"github.com/lab1702/zerobot/internal/tilemap"
	"github.com/lab1702/zerobot/internal/weapon"
)

func newTestTracker(t *testing.T) (*Tracker, *player.Manager) {
	t.Helper()
	players := player.NewManager()
	tr := NewTracker(players, tilemap.New())
	tr.Settings = netmsg.ArenaSettings{
		InitialEnergy:      1000,
		MaximumEnergy:      1700,
		InitialRecharge:    400,
		MaximumRecharge:    700,
		BulletFireEnergy:   10,
		BombFireEnergy:     50,
		BombDamageLevel:    7500000,
		BombExplodePixels:  80,
		EBombDamagePercent: 1000,
		BBombDamagePercent: 1000,
		BulletDamageLevel:  200000,
		ExactDamage:        true,
	}
	return tr, players
}

func TestRechargeAndClamp(t *testing.T) {
	tr, players := newTestTracker(t)
	players.OnPlayerEntering(5, "p", "", 0, 0)
	tr.OnPlayerReset(5)
	tr.playerEnergy[5].energy = 0

	tr.Update(100)
	// 100 ticks at MaximumRecharge 700/1000 per tick
	want := 100 * 700.0 / 1000.0
	if got := tr.playerEnergy[5].energy; math.Abs(got-want) > 1e-9 {
		t.Errorf("energy = %f, want %f", got, want)
	}

	// long catch-up is capped at 1000 ticks: 70 + 1000*0.7 = 770
	tr.Update(100000)
	if got := tr.playerEnergy[5].energy; math.Abs(got-770) > 1e-9 {
		t.Errorf("energy = %f, want capped 770", got)
	}

	// two more full catch-ups (1470, then 2170) clamp at the policy max
	tr.Update(101000)
	tr.Update(102000)
	if got := tr.playerEnergy[5].energy; got != 1700 {
		t.Errorf("energy = %f, want clamped 1700", got)
	}
}

func TestEmpSkipsRecharge(t *testing.T) {
	tr, players := newTestTracker(t)
	players.OnPlayerEntering(5, "p", "", 0, 0)
	tr.playerEnergy[5].energy = 100
	tr.playerEnergy[5].empTicks = 50

	tr.Update(30)
	if tr.playerEnergy[5].energy != 100 {
		t.Errorf("energy = %f while emped, want unchanged", tr.playerEnergy[5].energy)
	}
	if tr.playerEnergy[5].empTicks != 20 {
		t.Errorf("empTicks = %d, want 20", tr.playerEnergy[5].empTicks)
	}

	tr.Update(60)
	if tr.playerEnergy[5].energy <= 100 {
		t.Error("recharge did not resume after EMP expired")
	}
}

func TestFireCost(t *testing.T) {
	tr, players := newTestTracker(t)
	players.OnPlayerEntering(5, "p", "", 0, 0)
	tr.playerEnergy[5].energy = 500

	tr.OnWeaponFire(5, weapon.Data{Type: weapon.TypeBullet, Level: 1})
	if got := tr.playerEnergy[5].energy; got != 500-20 {
		t.Errorf("energy = %f after L2 bullet, want 480", got)
	}

	tr.OnWeaponFire(5, weapon.Data{Type: weapon.TypeBomb, Level: 0})
	if got := tr.playerEnergy[5].energy; got != 480-50 {
		t.Errorf("energy = %f after bomb, want 430", got)
	}
}

func TestPolicyNoneIsInert(t *testing.T) {
	tr, players := newTestTracker(t)
	p := players.OnPlayerEntering(5, "p", "", 0, 0)
	tr.Policy = PolicyNone

	tr.Update(1000)
	tr.OnWeaponFire(5, weapon.Data{Type: weapon.TypeBullet})
	if got := tr.GetEnergy(p); got != 0 {
		t.Errorf("GetEnergy = %f under PolicyNone, want 0", got)
	}
}

func TestExactValuePreferred(t *testing.T) {
	tr, players := newTestTracker(t)
	p := players.OnPlayerEntering(5, "p", "", 0, 0)
	tr.playerEnergy[5].energy = 1234

	p.Energy = 777
	if got := tr.GetEnergy(p); got != 777 {
		t.Errorf("GetEnergy = %f, want server-reported 777", got)
	}
	p.Energy = 0
	if got := tr.GetEnergy(p); got != 1234 {
		t.Errorf("GetEnergy = %f, want estimate 1234", got)
	}
}

func TestBombBlastHitsEveryoneInRadius(t *testing.T) {
	tr, players := newTestTracker(t)
	players.OnPlayerEntering(1, "shooter", "", 0, 0)
	victim := players.OnPlayerEntering(2, "victim", "", 0, 1)
	far := players.OnPlayerEntering(3, "far", "", 0, 1)

	shooter := players.PlayerByID(1)
	shooter.Position = mgl64.Vec2{100, 100}
	victim.Position = mgl64.Vec2{102, 100} // 32 pixels away
	far.Position = mgl64.Vec2{500, 500}

	tr.playerEnergy[2].energy = 1000
	tr.playerEnergy[3].energy = 1000

	w := &weapon.Weapon{
		PlayerID:  1,
		Frequency: 0,
		Data:      weapon.Data{Type: weapon.TypeBomb},
		Position:  mgl64.Vec2{102, 100},
	}

	gen := rng.NewVIE(1)
	draw := func() uint32 {
		var v uint32
		gen, v = gen.Next()
		return v
	}

	tr.OnWeaponHit(w, victim, 0, draw)

	if tr.playerEnergy[2].energy >= 1000 {
		t.Error("victim took no blast damage")
	}
	if tr.playerEnergy[3].energy != 1000 {
		t.Error("player outside radius took damage")
	}
}
