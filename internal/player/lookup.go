package player

import "strings"

// IDByName returns the id of the roster entry whose name matches name
// (case-insensitive), or InvalidID.
func (m *Manager) IDByName(name string) uint16 {
	for i := range m.players {
		if strings.EqualFold(m.players[i].Name, name) {
			return m.players[i].ID
		}
	}
	return InvalidID
}

// Name returns the name for id, or "".
func (m *Manager) Name(id uint16) string {
	p := m.PlayerByID(id)
	if p == nil {
		return ""
	}
	return p.Name
}

// SelfFreq returns the self player's frequency, or InvalidID's low bits if
// the self player is not yet known.
func (m *Manager) SelfFreq() uint16 {
	self := m.Self()
	if self == nil {
		return InvalidID
	}
	return self.Freq
}

// AnyOnFreq returns the id of any player on freq, or InvalidID. The chat
// queue uses this to pick an addressee for a frequency-directed team
// message (spec §4.7).
func (m *Manager) AnyOnFreq(freq uint16) uint16 {
	for i := range m.players {
		if m.players[i].Freq == freq {
			return m.players[i].ID
		}
	}
	return InvalidID
}
