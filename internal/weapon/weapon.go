// Package weapon implements the weapon manager: the weapon pool, firing,
// per-tick simulation and collision, link-group explosion, shrapnel spawn,
// mine quotas and repel (spec §4.5).
package weapon

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
)

// Type enumerates the weapon variants (spec §3).
type Type uint8

const (
	TypeBullet Type = iota
	TypeBouncingBullet
	TypeBomb
	TypeProximityBomb
	TypeThor
	TypeRepel
	TypeBurst
	TypeDecoy
)

// Flags are per-weapon status bits.
type Flags uint8

const (
	FlagEMP Flags = 1 << iota
	FlagBurstActive
)

// LinkUnlinked is the sentinel link_id for a weapon fired alone.
const LinkUnlinked uint32 = 0xFFFFFFFF

// Data mirrors the fire-intent payload a ship hands to the manager.
type Data struct {
	Type           Type
	Level          int
	Alternate      bool // mines are bombs with Alternate=true and zero velocity
	Shrap          int
	ShrapLevel     int
	ShrapBouncing  bool
}

// Weapon is one live projectile.
type Weapon struct {
	PlayerID  uint16
	Frequency uint16
	Data      Data

	Position mgl64.Vec2
	Velocity mgl64.Vec2

	LastTick clock.Tick
	EndTick  clock.Tick

	BouncesRemaining int
	Bounced          bool // has hit a wall at least once; gates BBombDamagePercent
	Flags            Flags
	LinkID           uint32

	LastEventPosition mgl64.Vec2
	LastEventTimeMicro clock.Microtick

	RNGSeed uint32

	ProxHitPlayerID    uint16
	ProxHighestOffset  float64
	SensorEndTick      clock.Tick

	alive bool
}

// IsMine reports whether w is a mine (a bomb with Alternate set).
func (w *Weapon) IsMine() bool {
	return w.Data.Type == TypeBomb && w.Data.Alternate
}

// IsAlive reports whether the slot holds a live weapon.
func (w *Weapon) IsAlive() bool {
	return w.alive
}

// MaxWeapons bounds the weapon pool (spec §5: "a fixed 65,535-entry array").
const MaxWeapons = 65535

// Manager owns the weapon pool and the monotonically increasing link-id
// counter (invariant vi).
type Manager struct {
	weapons    [MaxWeapons]Weapon
	nextLinkID uint32
	freeList   []int
}

// NewManager returns an empty weapon pool.
func NewManager() *Manager {
	m := &Manager{}
	m.freeList = make([]int, MaxWeapons)
	for i := range m.freeList {
		m.freeList[i] = MaxWeapons - 1 - i
	}
	return m
}

// Alive iterates over every live weapon slot.
func (m *Manager) Alive(fn func(idx int, w *Weapon)) {
	for i := range m.weapons {
		if m.weapons[i].alive {
			fn(i, &m.weapons[i])
		}
	}
}

// At returns a pointer to the weapon slot at idx.
func (m *Manager) At(idx int) *Weapon {
	return &m.weapons[idx]
}

// nextLink returns a fresh, monotonically increasing link id (invariant
// vi).
func (m *Manager) nextLink() uint32 {
	m.nextLinkID++
	return m.nextLinkID
}

// alloc reserves a free slot, or -1 if the pool is exhausted (spec §7:
// resource exhaustion returns null/false, caller tolerates failure).
func (m *Manager) alloc() int {
	n := len(m.freeList)
	if n == 0 {
		return -1
	}
	idx := m.freeList[n-1]
	m.freeList = m.freeList[:n-1]
	m.weapons[idx] = Weapon{}
	m.weapons[idx].alive = true
	return idx
}

// free releases a slot back to the pool.
func (m *Manager) free(idx int) {
	if !m.weapons[idx].alive {
		return
	}
	m.weapons[idx].alive = false
	m.freeList = append(m.freeList, idx)
}

// CountMines counts live mines by player and by frequency, for quota
// enforcement (spec §4.5).
func (m *Manager) CountMines(playerID uint16, freq uint16) (byPlayer, byTeam int) {
	m.Alive(func(_ int, w *Weapon) {
		if !w.IsMine() {
			return
		}
		if w.PlayerID == playerID {
			byPlayer++
		}
		if w.Frequency == freq {
			byTeam++
		}
	})
	return
}

// MineAtTile reports whether a live mine already occupies (x,y).
func (m *Manager) MineAtTile(x, y int) bool {
	found := false
	m.Alive(func(_ int, w *Weapon) {
		if found || !w.IsMine() {
			return
		}
		if int(w.Position.X()) == x && int(w.Position.Y()) == y {
			found = true
		}
	})
	return found
}
