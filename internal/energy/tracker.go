// Package energy implements the heuristic energy tracker: an estimate of
// every visible player's current energy, maintained from observed fire and
// hit events plus a policy-selected recharge model (spec §4.11).
package energy

import (
	"math"

	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/num"
	"github.com/lab1702/zerobot/internal/player"
	"github.com/lab1702/zerobot/internal/tilemap"
	"github.com/lab1702/zerobot/internal/weapon"
)

// Policy selects the recharge/maximum estimator.
type Policy uint8

const (
	PolicyNone Policy = iota
	PolicyInitial
	PolicyMaximum
	PolicyAverage
)

// data is one player's tracked state.
type data struct {
	energy   float64
	empTicks int32
}

// Tracker estimates energy for every player id (spec §4.11: the table
// spans the full id space, contents are trivial).
type Tracker struct {
	players *player.Manager
	tm      *tilemap.Map

	Settings netmsg.ArenaSettings
	Policy   Policy

	lastTick     clock.Tick
	playerEnergy [65535]data
}

// NewTracker returns a tracker estimating with the Maximum policy.
func NewTracker(players *player.Manager, tm *tilemap.Map) *Tracker {
	return &Tracker{players: players, tm: tm, Policy: PolicyMaximum}
}

func (t *Tracker) estimatedMax() float64 {
	switch t.Policy {
	case PolicyInitial:
		return float64(t.Settings.InitialEnergy)
	case PolicyMaximum:
		return float64(t.Settings.MaximumEnergy)
	case PolicyAverage:
		return float64(t.Settings.InitialEnergy+t.Settings.MaximumEnergy) / 2
	}
	return 0
}

func (t *Tracker) estimatedRecharge() float64 {
	switch t.Policy {
	case PolicyInitial:
		return float64(t.Settings.InitialRecharge)
	case PolicyMaximum:
		return float64(t.Settings.MaximumRecharge)
	case PolicyAverage:
		return float64(t.Settings.InitialRecharge+t.Settings.MaximumRecharge) / 2
	}
	return 0
}

// Update applies per-tick recharge to every in-ship player, catching up at
// most 1000 ticks; emped players tick their EMP counter down instead of
// recharging (spec §4.11).
func (t *Tracker) Update(tick clock.Tick) {
	if t.Policy == PolicyNone {
		t.lastTick = tick
		return
	}

	ticks := clock.Diff(tick, t.lastTick)
	if ticks > 1000 {
		ticks = 1000
	}

	recharge := t.estimatedRecharge() / 1000.0
	max := t.estimatedMax()

	for ; ticks > 0; ticks-- {
		players := t.players.All()
		for i := range players {
			p := &players[i]
			if !p.IsAlive() {
				continue
			}
			d := &t.playerEnergy[p.ID]

			if d.empTicks > 0 {
				d.empTicks--
				if d.empTicks > 0 {
					continue
				}
			}

			d.energy = num.Clamp(num.Max(d.energy, 0)+recharge, 0, max)
		}
	}
	t.lastTick = tick
}

// GetEnergy returns the player's exact server-reported energy when one was
// sent this tick, otherwise the tracked estimate (spec §4.11).
func (t *Tracker) GetEnergy(p *player.Player) float64 {
	if p.Energy > 0 {
		return float64(p.Energy)
	}
	if t.Policy == PolicyNone {
		return 0
	}
	return t.playerEnergy[p.ID].energy
}

// GetEnergyPercent returns GetEnergy normalized by the policy maximum.
func (t *Tracker) GetEnergyPercent(p *player.Player) float64 {
	max := t.estimatedMax()
	if max <= 0 {
		return 1
	}
	return t.GetEnergy(p) / max
}

// OnWeaponFire subtracts the fire energy cost for the shooter's weapon
// (spec §4.11).
func (t *Tracker) OnWeaponFire(shooterID uint16, d weapon.Data) {
	if t.Policy == PolicyNone {
		return
	}
	shooter := t.players.PlayerByID(shooterID)
	if shooter == nil || !shooter.IsAlive() {
		return
	}

	s := &t.Settings
	var cost int32
	switch d.Type {
	case weapon.TypeBullet, weapon.TypeBouncingBullet:
		if d.Alternate {
			cost = s.MultiFireEnergy * int32(d.Level+1)
		} else {
			cost = s.BulletFireEnergy * int32(d.Level+1)
		}
	case weapon.TypeBomb, weapon.TypeProximityBomb:
		if d.Alternate {
			cost = s.LandmineFireEnergy + s.LandmineFireEnergyUpgrade*int32(d.Level+1)
		} else {
			cost = s.BombFireEnergy + s.BombFireEnergyUpgrade*int32(d.Level+1)
		}
	}

	t.playerEnergy[shooterID].energy -= float64(cost)
}

// OnPlayerReset restores a player's estimate to the policy maximum and
// clears the EMP counter: ship/freq change, enter, death (spec §4.11).
func (t *Tracker) OnPlayerReset(id uint16) {
	if t.Policy == PolicyNone {
		return
	}
	t.playerEnergy[id] = data{energy: t.estimatedMax()}
}

// bombReport carries one victim's computed blast damage and EMP duration.
type bombReport struct {
	damage   int32
	empTicks int32
}

// bombDamageTo reproduces the §4.5 blast formulas for the estimator: base
// damage with Thor/EMP/bouncing multipliers, linear falloff, shooter
// own-blast halving and the EMP shutdown time.
func (t *Tracker) bombDamageTo(w *weapon.Weapon, victim *player.Player) bombReport {
	var report bombReport
	shooter := t.players.PlayerByID(w.PlayerID)
	if victim == nil || !victim.IsAlive() || shooter == nil || !shooter.IsAlive() {
		return report
	}

	s := &t.Settings
	bombDmg := float64(s.BombDamageLevel)
	level := w.Data.Level
	if w.Data.Type == weapon.TypeThor {
		bombDmg = bombDmg + bombDmg*float64(level*level)
		level = 3 + level
	}
	bombDmg /= 1000

	if w.Flags&weapon.FlagEMP != 0 {
		bombDmg *= float64(s.EBombDamagePercent) / 1000
	}
	if w.Bounced {
		bombDmg *= float64(s.BBombDamagePercent) / 1000
	}

	deltaPixels := w.Position.Sub(victim.Position).Mul(16)
	explodePixels := float64(s.BombExplodePixels) * (1 + float64(level))
	distSq := deltaPixels.Dot(deltaPixels)
	if distSq >= explodePixels*explodePixels || explodePixels <= 0 {
		return report
	}

	const kBombSize = 2.0
	distance := math.Sqrt(distSq) - kBombSize
	if distance < 0 {
		distance = 0
	}
	damage := (explodePixels - distance) * (bombDmg / explodePixels)

	if victim.ID != shooter.ID {
		shooterDist := w.Position.Sub(shooter.Position).Mul(16).Len()
		if shooterDist < explodePixels {
			damage -= (bombDmg / explodePixels) * (explodePixels - shooterDist) / 2
			if damage < 0 {
				damage = 0
			}
		}
	}

	report.damage = int32(damage)

	if w.Flags&weapon.FlagEMP != 0 && report.damage > 0 && victim.ID != shooter.ID {
		x, y := int(victim.Position.X()), int(victim.Position.Y())
		if !t.tm.IsSafe(x, y) {
			report.empTicks = int32(float64(s.EBombShutdownTime) * float64(report.damage) / bombDmg)
		}
	}
	return report
}

// OnWeaponHit applies the observed hit's damage to the estimate: a bomb
// blast damages everyone in radius, a bullet/burst damages the struck
// player (spec §4.11). draw supplies the non-exact damage randomization
// stream; callers thread the weapon's own seed so estimates match what the
// server rolled.
func (t *Tracker) OnWeaponHit(w *weapon.Weapon, target *player.Player, tick clock.Tick, draw weapon.DrawFunc) {
	if t.Policy == PolicyNone {
		return
	}

	switch w.Data.Type {
	case weapon.TypeBomb, weapon.TypeProximityBomb, weapon.TypeThor:
		players := t.players.All()
		for i := range players {
			p := &players[i]
			report := t.bombDamageTo(w, p)
			if report.damage <= 0 {
				continue
			}
			t.playerEnergy[p.ID].energy -= float64(report.damage)
			if report.empTicks > t.playerEnergy[p.ID].empTicks {
				t.playerEnergy[p.ID].empTicks = report.empTicks
			}
		}
		return
	}

	if target == nil {
		return
	}

	var damage int32
	switch w.Data.Type {
	case weapon.TypeBullet, weapon.TypeBouncingBullet:
		remaining := int(clock.Diff(w.EndTick, tick))
		damage = weapon.BulletDamage(w, remaining, t.Settings, t.Settings.ExactDamage, draw)
	case weapon.TypeBurst:
		damage = weapon.BurstDamage(t.Settings, t.Settings.ExactDamage, draw)
	default:
		return
	}

	if damage > 0 {
		t.playerEnergy[target.ID].energy -= float64(damage)
	}
}
