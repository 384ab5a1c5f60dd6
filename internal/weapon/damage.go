package weapon

import (
	"math"

	"github.com/lab1702/zerobot/internal/netmsg"
)

// DrawFunc returns the next raw draw (0..32767) from a caller-owned RNG
// sequence, used only for the non-exact damage randomization step. Callers
// thread the weapon's own RNGSeed through rng.VIE so damage stays
// reproducible against the same seed (spec §9: never a language-default
// RNG).
type DrawFunc func() uint32

// randomizeDamage applies the server's non-exact damage jitter (spec
// §4.5): dmg' = floor(sqrt(rand()*1000 mod (dmg^2+1))).
func randomizeDamage(dmg float64, draw DrawFunc) float64 {
	r := float64(draw()) / 32768.0
	mod := dmg*dmg + 1
	val := math.Mod(r*1000, mod)
	if val < 0 {
		val += mod
	}
	return math.Floor(math.Sqrt(val))
}

// BulletDamage computes a bullet or bouncing-bullet's damage, per spec
// §4.5. remainingTicks is the weapon's life left at the moment of impact;
// bullets with 25 ticks of life or less deal InactiveShrapDamage instead
// of their normal formula.
func BulletDamage(w *Weapon, remainingTicks int, settings netmsg.ArenaSettings, exact bool, draw DrawFunc) int32 {
	var dmg float64
	if remainingTicks <= 25 {
		dmg = float64(settings.InactiveShrapDamage) / 1000
	} else {
		dmg = float64(settings.BulletDamageLevel)/1000 + float64(settings.BulletDamageUpgrade)/1000*float64(w.Data.Level)
		if w.Data.Shrap > 0 {
			dmg *= float64(settings.ShrapnelDamagePercent) / 1000
		}
	}
	if !exact {
		dmg = randomizeDamage(dmg, draw)
	}
	return int32(dmg)
}

// BurstDamage is BurstDamageLevel flat, subject to the same randomization
// as bullets unless ExactDamage is set.
func BurstDamage(settings netmsg.ArenaSettings, exact bool, draw DrawFunc) int32 {
	dmg := float64(settings.BurstDamageLevel)
	if !exact {
		dmg = randomizeDamage(dmg, draw)
	}
	return int32(dmg)
}

// BombBlast is the precomputed shape of a bomb/Thor's blast: its full
// (pre-falloff) damage and its explosion radius in pixels.
type BombBlast struct {
	BaseDamage     float64
	ExplodePixels  float64
	EffectiveLevel int
}

// ComputeBombBlast derives the blast shape for w, per spec §4.5: Thor uses
// BombDamageLevel*(1+level^2)/1000 and bumps its effective level by 3 for
// the radius formula; EMP and bounced bombs apply their percent
// multipliers; radius is BombExplodePixels*(1+level).
func ComputeBombBlast(w *Weapon, settings netmsg.ArenaSettings) BombBlast {
	level := w.Data.Level
	var dmg float64
	if w.Data.Type == TypeThor {
		dmg = float64(settings.BombDamageLevel) * (1 + float64(level*level)) / 1000
		level = 3 + level
	} else {
		dmg = float64(settings.BombDamageLevel) / 1000
	}
	if w.Flags&FlagEMP != 0 {
		dmg *= float64(settings.EBombDamagePercent) / 1000
	}
	if w.Bounced {
		dmg *= float64(settings.BBombDamagePercent) / 1000
	}
	return BombBlast{
		BaseDamage:     dmg,
		ExplodePixels:  float64(settings.BombExplodePixels) * (1 + float64(level)),
		EffectiveLevel: level,
	}
}

// DamageAt returns the damage a target at distancePixels from the blast
// center takes: full BaseDamage at distance 0, falling off linearly to
// exactly zero at ExplodePixels (spec §7: "damage at distance ==
// explode_pixels is exactly 0").
func (b BombBlast) DamageAt(distancePixels float64) float64 {
	if distancePixels >= b.ExplodePixels || b.ExplodePixels <= 0 {
		return 0
	}
	return b.BaseDamage * (1 - distancePixels/b.ExplodePixels)
}

// ApplyOwnBlastHalving halves dmg when the blast's victim is also its
// shooter (spec §4.5: "subtract half of its own-blast contribution, min
// 0").
func ApplyOwnBlastHalving(dmg int32, victimIsShooter bool) int32 {
	if !victimIsShooter {
		return dmg
	}
	half := dmg - dmg/2
	if half < 0 {
		return 0
	}
	return dmg - half
}

// EmpShutdownSeconds computes how long an EMP hit disables recharge for,
// per spec §4.5. bombDmg is the blast's pre-falloff BaseDamage; dealt is
// the actual damage applied to the victim.
func EmpShutdownSeconds(settings netmsg.ArenaSettings, bombDmg float64, dealt int32) float64 {
	if bombDmg <= 0 || dealt <= 0 {
		return 0
	}
	return (float64(settings.EBombShutdownTime) * float64(dealt)) / bombDmg / 100
}

// MineQuotaExceeded reports whether laying another mine at (x,y) for
// playerID/freq would violate the per-player, per-team, or per-tile limits
// (spec §4.5).
func (m *Manager) MineQuotaExceeded(playerID, freq uint16, x, y int, maxMines, teamMaxMines int) bool {
	byPlayer, byTeam := m.CountMines(playerID, freq)
	if byPlayer >= maxMines || byTeam >= teamMaxMines {
		return true
	}
	return m.MineAtTile(x, y)
}
