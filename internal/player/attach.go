package player

import "github.com/lab1702/zerobot/internal/clock"

// AttachSettings bundles the arena-configured numbers AttachSelf must
// enforce (spec §4.4).
type AttachSettings struct {
	AttachBounty        int32
	TurretLimit          int
	AntiwarpSettleDelay  clock.Tick
	MaxEnergy            int32
}

// AttachSelf attempts to attach childID to targetID, enforcing every
// precondition from spec §4.4: both alive, full energy, bounty >=
// AttachBounty, same frequency, target in ship (not spectator), target has
// TurretLimit > 0 and fewer than TurretLimit children already, and the
// caller is not antiwarped. On success the child enters the parent's
// children list, drains 1/3 of its own energy, and a fake-antiwarp window
// of AntiwarpSettleDelay begins (tracked by the caller via
// FakeAntiwarpEndTick, since antiwarp cooldowns belong to the ship
// controller's state, not the player manager's).
func (m *Manager) AttachSelf(childID, targetID uint16, s AttachSettings, now clock.Tick) (fakeAntiwarpEndTick clock.Tick, ok bool) {
	child := m.PlayerByID(childID)
	target := m.PlayerByID(targetID)
	if child == nil || target == nil {
		return 0, false
	}
	if !child.IsAlive() || !target.IsAlive() {
		return 0, false
	}
	if child.Energy < s.MaxEnergy {
		return 0, false
	}
	if child.Bounty < s.AttachBounty {
		return 0, false
	}
	if child.Freq != target.Freq {
		return 0, false
	}
	if s.TurretLimit <= 0 || len(target.children) >= s.TurretLimit {
		return 0, false
	}
	if child.Toggles&StatusAntiwarp != 0 {
		return 0, false
	}
	if child.AttachParent != InvalidID {
		m.removeChild(child.AttachParent, childID)
	}

	child.AttachParent = targetID
	target.children = append(target.children, childID)
	child.Energy -= child.Energy / 3

	return now + s.AntiwarpSettleDelay, true
}

// Attach links child under parent without precondition checks: used when
// the server announces a turret (CreateTurret), which is authoritative and
// does not re-run the client-side AttachSelf gates.
func (m *Manager) Attach(childID, parentID uint16) {
	child := m.PlayerByID(childID)
	parent := m.PlayerByID(parentID)
	if child == nil || parent == nil {
		return
	}
	if child.AttachParent != InvalidID {
		m.removeChild(child.AttachParent, childID)
	}
	child.AttachParent = parentID
	parent.children = append(parent.children, childID)
}

// DetachSelf detaches id from its current parent, if any (spec §4.4: death,
// frequency change, ship change, or explicit request). The detached player
// is left with AttachParent = InvalidID and Timestamp = invalid so it will
// not render until its next position packet.
func (m *Manager) DetachSelf(id uint16) {
	p := m.PlayerByID(id)
	if p == nil {
		return
	}
	if p.AttachParent != InvalidID {
		m.removeChild(p.AttachParent, id)
	}
	p.AttachParent = InvalidID
	p.Timestamp = clock.InvalidSmallTick
}

// DetachAllChildren detaches every child of parentID — e.g. when the parent
// changes frequency (scenario S6). Each child ends up with AttachParent
// invalid and an invalid timestamp, and the parent's children list is left
// empty.
func (m *Manager) DetachAllChildren(parentID uint16) {
	parent := m.PlayerByID(parentID)
	if parent == nil {
		return
	}
	children := append([]uint16(nil), parent.children...)
	for _, c := range children {
		if child := m.PlayerByID(c); child != nil {
			child.AttachParent = InvalidID
			child.Timestamp = clock.InvalidSmallTick
		}
	}
	parent.children = parent.children[:0]
}
