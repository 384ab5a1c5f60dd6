package game

import (
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
)

// MaxGreens bounds the live prize-green table (spec §3).
const MaxGreens = 256

// PrizeGreen is one prize pickup spawned into the world (spec §3).
type PrizeGreen struct {
	X, Y    uint16
	EndTick clock.Tick
	PrizeID int16

	present bool
}

// GreenSet owns the live greens; expired entries are reaped each tick.
type GreenSet struct {
	greens [MaxGreens]PrizeGreen
}

// Add places a green, evicting nothing: a full table drops the new green
// (spec §7: resource exhaustion is tolerated).
func (g *GreenSet) Add(x, y uint16, prizeID int16, endTick clock.Tick) bool {
	for i := range g.greens {
		if !g.greens[i].present {
			g.greens[i] = PrizeGreen{X: x, Y: y, PrizeID: prizeID, EndTick: endTick, present: true}
			return true
		}
	}
	return false
}

// Count returns the number of live greens.
func (g *GreenSet) Count() int {
	n := 0
	for i := range g.greens {
		if g.greens[i].present {
			n++
		}
	}
	return n
}

// At returns the live green at (x,y), or nil.
func (g *GreenSet) At(x, y uint16) *PrizeGreen {
	for i := range g.greens {
		if g.greens[i].present && g.greens[i].X == x && g.greens[i].Y == y {
			return &g.greens[i]
		}
	}
	return nil
}

// Update reaps greens whose end tick has passed (spec §3 Lifecycles).
func (g *GreenSet) Update(tick clock.Tick) {
	for i := range g.greens {
		if g.greens[i].present && clock.Diff(tick, g.greens[i].EndTick) >= 0 {
			g.greens[i].present = false
		}
	}
}

// OnPlayerPrize removes the green another player collected (spec §6
// PlayerPrize).
func (g *GreenSet) OnPlayerPrize(pkt netmsg.PlayerPrizePacket) {
	if green := g.At(pkt.X, pkt.Y); green != nil {
		green.present = false
	}
}
