package soccer

import "github.com/go-gl/mathgl/mgl64"

// IsTeamGoal reports whether position lies on the self player's own goal,
// where scoring is forbidden, under the arena's SoccerMode (spec §4.8):
// 0 = no-goal, 1 = left/right by freq parity, 2 = top/bottom, 3/4 =
// quadrants, 5/6 = diagonal wedges.
func (m *Manager) IsTeamGoal(position mgl64.Vec2) bool {
	self := m.players.Self()
	if self == nil {
		return true
	}
	freq := uint32(self.Freq)

	switch m.Settings.SoccerMode {
	case 0:
		return false
	case 1:
		if freq&1 != 0 {
			return position.X() >= 512
		}
		return position.X() < 512
	case 2:
		if freq&1 != 0 {
			return position.Y() >= 512
		}
		return position.Y() < 512
	case 3:
		return onQuadrant(position, freq)
	case 4:
		return !onQuadrant(position, freq)
	case 5:
		return onWedge(position, freq)
	case 6:
		return !onWedge(position, freq)
	}
	return true
}

// onQuadrant assigns each frequency (mod 4) one corner quadrant.
func onQuadrant(position mgl64.Vec2, freq uint32) bool {
	switch freq % 4 {
	case 0:
		return position.X() < 512 && position.Y() < 512
	case 1:
		return position.X() >= 512 && position.Y() < 512
	case 2:
		return position.X() < 512 && position.Y() >= 512
	case 3:
		return position.X() >= 512 && position.Y() >= 512
	}
	return false
}

// onWedge assigns each frequency (mod 4) one diagonal wedge of the map.
func onWedge(position mgl64.Vec2, freq uint32) bool {
	x, y := position.X(), position.Y()
	switch freq % 4 {
	case 0:
		if y < 512 {
			return x < y
		}
		return x+y < 1024
	case 1:
		if x < 512 {
			return x+y >= 1024
		}
		return x < y
	case 2:
		if x < 512 {
			return x >= y
		}
		return x+y < 1024
	case 3:
		if y <= 512 {
			return x+y >= 1024
		}
		return x >= y
	}
	return false
}
