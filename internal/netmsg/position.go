package netmsg

// OutgoingPosition holds the fields needed to build an outgoing position
// packet (spec §4.4). Coordinates are already in ×16 tile units and
// velocities in ×160 tile/s units, matching the wire format.
type OutgoingPosition struct {
	Direction        uint8 // orientation*40
	ServerTimestamp  uint32
	VelX, VelY       int16
	X, Y             uint16
	Toggles          uint8
	Bounty           uint16
	Energy           uint16
	Weapon           uint16

	// Extra is appended when non-nil: energy, ping/10, flag_timer/100,
	// packed 32-bit item counts (spec §4.4).
	Extra *PositionExtra
}

// PositionExtra is the optional 10-byte tail.
type PositionExtra struct {
	Energy    uint16
	PingDiv10 uint16
	FlagTimerDiv100 uint16
	Items     uint32
}

// WeaponChecksum computes the byte-10 checksum for an outgoing position
// packet. The real formula lives in the security collaborator (spec §9 Open
// Question 2, resolved in DESIGN.md): the core exposes the injection point
// and defaults to a stub that always returns 0 so packets still build and
// round-trip (minus that one byte) without a live helper attached.
var WeaponChecksum = func(buf []byte) byte { return 0 }

// BuildPosition serializes p per the 22-byte core layout from spec §4.4:
//
//	u8 0x03 | u8 direction | u32 server_timestamp
//	u16 vel_x_lo | u16 y | u8 checksum | u8 togglables
//	u16 x | u16 vel_y_lo | u16 bounty | u16 energy | u16 weapon
func BuildPosition(p OutgoingPosition) []byte {
	w := NewWriter()
	w.U8(OutPosition)
	w.U8(p.Direction)
	w.U32(p.ServerTimestamp)
	w.S16(p.VelX)
	w.U16(p.Y)
	checksumOffset := len(w.Buffer())
	w.U8(0) // placeholder for checksum byte at offset 10
	w.U8(p.Toggles)
	w.U16(p.X)
	w.S16(p.VelY)
	w.U16(p.Bounty)
	w.U16(p.Energy)
	w.U16(p.Weapon)

	if p.Extra != nil {
		w.U16(p.Extra.Energy)
		w.U16(p.Extra.PingDiv10)
		w.U16(p.Extra.FlagTimerDiv100)
		w.U32(p.Extra.Items)
	}

	buf := w.Buffer()
	buf[checksumOffset] = WeaponChecksum(buf)
	return buf
}

// ParseOutgoingPosition is the inverse of BuildPosition, used by round-trip
// tests (R1): it does not itself carry the player's self id, matching the
// spec's note that self id is elided from the wire packet.
func ParseOutgoingPosition(buf []byte) (OutgoingPosition, error) {
	r := NewReader(buf)
	var p OutgoingPosition
	var err error
	if _, err = r.U8(); err != nil { // type byte
		return p, err
	}
	if p.Direction, err = r.U8(); err != nil {
		return p, err
	}
	if p.ServerTimestamp, err = r.U32(); err != nil {
		return p, err
	}
	if p.VelX, err = r.S16(); err != nil {
		return p, err
	}
	if p.Y, err = r.U16(); err != nil {
		return p, err
	}
	if _, err = r.U8(); err != nil { // checksum
		return p, err
	}
	if p.Toggles, err = r.U8(); err != nil {
		return p, err
	}
	if p.X, err = r.U16(); err != nil {
		return p, err
	}
	if p.VelY, err = r.S16(); err != nil {
		return p, err
	}
	if p.Bounty, err = r.U16(); err != nil {
		return p, err
	}
	if p.Energy, err = r.U16(); err != nil {
		return p, err
	}
	if p.Weapon, err = r.U16(); err != nil {
		return p, err
	}
	if r.Remaining() >= 10 {
		var extra PositionExtra
		if extra.Energy, err = r.U16(); err != nil {
			return p, err
		}
		if extra.PingDiv10, err = r.U16(); err != nil {
			return p, err
		}
		if extra.FlagTimerDiv100, err = r.U16(); err != nil {
			return p, err
		}
		if extra.Items, err = r.U32(); err != nil {
			return p, err
		}
		p.Extra = &extra
	}
	return p, nil
}
