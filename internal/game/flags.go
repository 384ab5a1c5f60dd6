package game

import (
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
)

// MaxFlags bounds the per-arena flag table (spec §3).
const MaxFlags = 256

// FlagStateBits mark a flag's mode.
type FlagStateBits uint8

const (
	FlagDropped FlagStateBits = 1 << iota
	FlagTurf
)

// GameFlag is one capture flag (spec §3).
type GameFlag struct {
	ID    uint16
	Owner uint16 // frequency; player.InvalidID = unowned
	X, Y  uint16
	Bits  FlagStateBits

	HiddenEndTick         clock.Tick
	LastPickupRequestTick clock.Tick

	// Carrier is the player currently holding the flag, or InvalidID; a
	// claimed flag becomes Carried rather than being erased (spec §3
	// Lifecycles).
	Carrier uint16

	present bool
}

// FlagSet owns the arena's flags.
type FlagSet struct {
	flags [MaxFlags]GameFlag
}

// Flag returns the flag record for id, or nil.
func (f *FlagSet) Flag(id uint16) *GameFlag {
	if int(id) >= MaxFlags || !f.flags[id].present {
		return nil
	}
	return &f.flags[id]
}

// Count returns how many flags are known.
func (f *FlagSet) Count() int {
	n := 0
	for i := range f.flags {
		if f.flags[i].present {
			n++
		}
	}
	return n
}

// OnFlagPosition creates or moves a flag (spec §3: flags are created on
// FlagPosition).
func (f *FlagSet) OnFlagPosition(pkt netmsg.FlagPositionPacket) {
	if int(pkt.ID) >= MaxFlags {
		return
	}
	flag := &f.flags[pkt.ID]
	flag.ID = pkt.ID
	flag.X = pkt.X
	flag.Y = pkt.Y
	flag.Owner = pkt.Owner
	flag.Carrier = player.InvalidID
	flag.Bits |= FlagDropped
	flag.present = true
}

// OnFlagClaim marks a flag carried by a player; it stays in the table.
func (f *FlagSet) OnFlagClaim(pkt netmsg.FlagClaimPacket) {
	flag := f.Flag(pkt.ID)
	if flag == nil {
		return
	}
	flag.Carrier = pkt.PlayerID
	flag.Bits &^= FlagDropped
}

// OnDropFlag returns a carried flag to the field.
func (f *FlagSet) OnDropFlag(pkt netmsg.FlagClaimPacket) {
	flag := f.Flag(pkt.ID)
	if flag == nil {
		return
	}
	flag.Carrier = player.InvalidID
	flag.Bits |= FlagDropped
}

// OnTurfUpdate applies a TurfFlagUpdate owner sequence: the i-th entry owns
// flag i.
func (f *FlagSet) OnTurfUpdate(owners []uint16) {
	for i, owner := range owners {
		if i >= MaxFlags {
			return
		}
		flag := &f.flags[i]
		flag.ID = uint16(i)
		flag.Owner = owner
		flag.Bits |= FlagTurf
		flag.present = true
	}
}
