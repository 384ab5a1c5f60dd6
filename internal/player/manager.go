package player

import "github.com/lab1702/zerobot/internal/clock"

// MaxPlayers bounds the roster array (the real protocol allows up to 65535
// ids but simultaneous occupancy is bounded far below that; 1024 matches
// zero's PlayerManager::players capacity).
const MaxPlayers = 1024

// Manager owns the player roster. players is kept compact via swap-and-pop;
// lookup maps a protocol id to its current index in players, or -1.
// Invariant (i): lookup[id] always matches the index of the player with
// that id, including across swap-and-pop removals.
type Manager struct {
	players []Player
	lookup  map[uint16]int

	SelfID uint16

	childFreeList []uint16 // unused child-slot arena, kept for parity with
	// the intrusive free-list design described in spec §3; children are
	// modeled as a plain slice per player here (see Player.children), and
	// nothing reads or writes this field.
}

// NewManager returns an empty roster.
func NewManager() *Manager {
	return &Manager{
		players: make([]Player, 0, MaxPlayers),
		lookup:  make(map[uint16]int),
		SelfID:  InvalidID,
	}
}

// Count returns the number of players currently in the roster.
func (m *Manager) Count() int {
	return len(m.players)
}

// PlayerByID returns a pointer to the roster entry for id, or nil.
func (m *Manager) PlayerByID(id uint16) *Player {
	idx, ok := m.lookup[id]
	if !ok {
		return nil
	}
	return &m.players[idx]
}

// Self returns the self player, or nil if not yet assigned.
func (m *Manager) Self() *Player {
	if m.SelfID == InvalidID {
		return nil
	}
	return m.PlayerByID(m.SelfID)
}

// All returns every roster entry; callers must not retain the slice across
// a mutation that adds/removes players.
func (m *Manager) All() []Player {
	return m.players
}

// OnPlayerEntering creates a roster entry (spec §3 Lifecycles). It returns
// nil when the roster already holds MaxPlayers entries.
func (m *Manager) OnPlayerEntering(id uint16, name, squad string, ship uint8, freq uint16) *Player {
	if _, exists := m.lookup[id]; exists {
		return m.PlayerByID(id)
	}
	if len(m.players) >= MaxPlayers {
		return nil
	}
	p := Player{
		ID:           id,
		Name:         name,
		Squad:        squad,
		Ship:         ship,
		Freq:         freq,
		AttachParent: InvalidID,
		Timestamp:    clock.InvalidSmallTick,
	}
	m.players = append(m.players, p)
	m.lookup[id] = len(m.players) - 1
	return &m.players[len(m.players)-1]
}

// OnPlayerLeaving destroys the roster entry for id via swap-and-pop,
// fixing up the lookup table for whichever player moved into the vacated
// slot (invariant i). The self player is never removed by this path (spec
// §3: "the self player lives for the whole connection"); callers must not
// call this for SelfID.
func (m *Manager) OnPlayerLeaving(id uint16) {
	idx, ok := m.lookup[id]
	if !ok {
		return
	}
	m.detachOnLeave(id)

	last := len(m.players) - 1
	if idx != last {
		m.players[idx] = m.players[last]
		m.lookup[m.players[idx].ID] = idx
	}
	m.players = m.players[:last]
	delete(m.lookup, id)
}

// detachOnLeave unlinks a departing player from the attach graph: if it was
// a child, remove it from its parent's list; if it had children, detach all
// of them (spec §4.4).
func (m *Manager) detachOnLeave(id uint16) {
	p := m.PlayerByID(id)
	if p == nil {
		return
	}
	if p.AttachParent != InvalidID {
		m.removeChild(p.AttachParent, id)
	}
	for _, childID := range append([]uint16(nil), p.children...) {
		m.DetachSelf(childID)
	}
}

func (m *Manager) removeChild(parentID, childID uint16) {
	parent := m.PlayerByID(parentID)
	if parent == nil {
		return
	}
	for i, c := range parent.children {
		if c == childID {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}
