package netmsg

// TeamAndShipChangePacket is the TeamAndShipChange event payload (spec §6).
type TeamAndShipChangePacket struct {
	Ship     uint8
	PlayerID uint16
	Freq     uint16
}

func ParseTeamAndShipChange(b []byte) (TeamAndShipChangePacket, error) {
	r := NewReader(b)
	var p TeamAndShipChangePacket
	var err error
	if p.Ship, err = r.U8(); err != nil {
		return p, err
	}
	if p.PlayerID, err = r.U16(); err != nil {
		return p, err
	}
	p.Freq, err = r.U16()
	return p, err
}

// FrequencyChangePacket is the FrequencyChange event payload.
type FrequencyChangePacket struct {
	PlayerID uint16
	Freq     uint16
}

func ParseFrequencyChange(b []byte) (FrequencyChangePacket, error) {
	r := NewReader(b)
	var p FrequencyChangePacket
	var err error
	if p.PlayerID, err = r.U16(); err != nil {
		return p, err
	}
	p.Freq, err = r.U16()
	return p, err
}

// PlayerDeathPacket is the PlayerDeath event payload.
type PlayerDeathPacket struct {
	GreenID      uint8
	KillerID     uint16
	KilledID     uint16
	Bounty       uint16
	FlagTransfer uint16
}

func ParsePlayerDeath(b []byte) (PlayerDeathPacket, error) {
	r := NewReader(b)
	var p PlayerDeathPacket
	var err error
	if p.GreenID, err = r.U8(); err != nil {
		return p, err
	}
	if p.KillerID, err = r.U16(); err != nil {
		return p, err
	}
	if p.KilledID, err = r.U16(); err != nil {
		return p, err
	}
	if p.Bounty, err = r.U16(); err != nil {
		return p, err
	}
	p.FlagTransfer, err = r.U16()
	return p, err
}

// SmallPositionPacket is the abbreviated per-player position update: 1-byte
// pid, 1-byte ping, 1-byte bounty, no weapon field in the header (spec §6).
type SmallPositionPacket struct {
	Direction uint8
	Timestamp uint16
	X         uint16
	Ping      uint8
	Bounty    uint8
	PlayerID  uint8
	Toggles   uint8
	VelY      int16
	Y         uint16
	VelX      int16
}

func ParseSmallPosition(b []byte) (SmallPositionPacket, error) {
	r := NewReader(b)
	var p SmallPositionPacket
	var err error
	if p.Direction, err = r.U8(); err != nil {
		return p, err
	}
	if p.Timestamp, err = r.U16(); err != nil {
		return p, err
	}
	if p.X, err = r.U16(); err != nil {
		return p, err
	}
	if p.Ping, err = r.U8(); err != nil {
		return p, err
	}
	if p.Bounty, err = r.U8(); err != nil {
		return p, err
	}
	if p.PlayerID, err = r.U8(); err != nil {
		return p, err
	}
	if p.Toggles, err = r.U8(); err != nil {
		return p, err
	}
	if p.VelY, err = r.S16(); err != nil {
		return p, err
	}
	if p.Y, err = r.U16(); err != nil {
		return p, err
	}
	p.VelX, err = r.S16()
	return p, err
}

// BatchedPositionRecord is one bit-packed entry of a BatchedLarge or
// BatchedSmall packet. The timestamp field is only 10 bits wide; see
// internal/player for how it is renormalized into small-tick space.
type BatchedPositionRecord struct {
	PlayerID    uint16
	Timestamp10 uint16
	X, Y        uint16
	VelX, VelY  int16
}

// ParseBatchedSmall decodes the repeated 10-byte records of a BatchedSmall
// packet: u8 pid | u16 (ts:10 | x_hi:6) | u8 x_lo | u16 y | s16 vx | s16 vy.
func ParseBatchedSmall(b []byte) ([]BatchedPositionRecord, error) {
	r := NewReader(b)
	var out []BatchedPositionRecord
	for r.Remaining() >= 10 {
		var rec BatchedPositionRecord
		pid, err := r.U8()
		if err != nil {
			return out, err
		}
		rec.PlayerID = uint16(pid)
		packed, err := r.U16()
		if err != nil {
			return out, err
		}
		rec.Timestamp10 = packed & 0x3FF
		xHi := uint16(packed >> 10)
		xLo, err := r.U8()
		if err != nil {
			return out, err
		}
		rec.X = xHi<<8 | uint16(xLo)
		if rec.Y, err = r.U16(); err != nil {
			return out, err
		}
		if rec.VelX, err = r.S16(); err != nil {
			return out, err
		}
		if rec.VelY, err = r.S16(); err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseBatchedLarge decodes the repeated 11-byte records of a BatchedLarge
// packet: same as the small record with a 2-byte pid.
func ParseBatchedLarge(b []byte) ([]BatchedPositionRecord, error) {
	r := NewReader(b)
	var out []BatchedPositionRecord
	for r.Remaining() >= 11 {
		var rec BatchedPositionRecord
		var err error
		if rec.PlayerID, err = r.U16(); err != nil {
			return out, err
		}
		packed, err := r.U16()
		if err != nil {
			return out, err
		}
		rec.Timestamp10 = packed & 0x3FF
		xHi := uint16(packed >> 10)
		xLo, err := r.U8()
		if err != nil {
			return out, err
		}
		rec.X = xHi<<8 | uint16(xLo)
		if rec.Y, err = r.U16(); err != nil {
			return out, err
		}
		if rec.VelX, err = r.S16(); err != nil {
			return out, err
		}
		if rec.VelY, err = r.S16(); err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FlagClaimPacket covers both FlagClaim and DropFlag (identical layout).
type FlagClaimPacket struct {
	ID       uint16
	PlayerID uint16
}

func ParseFlagClaim(b []byte) (FlagClaimPacket, error) {
	r := NewReader(b)
	var p FlagClaimPacket
	var err error
	if p.ID, err = r.U16(); err != nil {
		return p, err
	}
	p.PlayerID, err = r.U16()
	return p, err
}

// ParseTurfFlagUpdate decodes the per-flag owner sequence of a
// TurfFlagUpdate packet.
func ParseTurfFlagUpdate(b []byte) ([]uint16, error) {
	r := NewReader(b)
	var owners []uint16
	for r.Remaining() >= 2 {
		team, err := r.U16()
		if err != nil {
			return owners, err
		}
		owners = append(owners, team)
	}
	return owners, nil
}

// SetCoordinatesPacket is the warp-to event payload.
type SetCoordinatesPacket struct {
	X uint16
	Y uint16
}

func ParseSetCoordinates(b []byte) (SetCoordinatesPacket, error) {
	r := NewReader(b)
	var p SetCoordinatesPacket
	var err error
	if p.X, err = r.U16(); err != nil {
		return p, err
	}
	p.Y, err = r.U16()
	return p, err
}

// TurretPacket covers CreateTurret and DestroyTurret: requester plus an
// optional destination id.
type TurretPacket struct {
	RequesterID uint16
	DestID      uint16
	HasDest     bool
}

func ParseTurret(b []byte) (TurretPacket, error) {
	r := NewReader(b)
	var p TurretPacket
	var err error
	if p.RequesterID, err = r.U16(); err != nil {
		return p, err
	}
	if r.Remaining() >= 2 {
		p.HasDest = true
		p.DestID, err = r.U16()
	}
	return p, err
}

// CollectedPrizePacket is the CollectedPrize event payload.
type CollectedPrizePacket struct {
	Count   uint16
	PrizeID int16
}

func ParseCollectedPrize(b []byte) (CollectedPrizePacket, error) {
	r := NewReader(b)
	var p CollectedPrizePacket
	var err error
	if p.Count, err = r.U16(); err != nil {
		return p, err
	}
	p.PrizeID, err = r.S16()
	return p, err
}

// SoccerGoalPacket is the SoccerGoal event payload.
type SoccerGoalPacket struct {
	BallID uint8
}

func ParseSoccerGoal(b []byte) (SoccerGoalPacket, error) {
	r := NewReader(b)
	id, err := r.U8()
	return SoccerGoalPacket{BallID: id}, err
}

// BuildChat serializes an outgoing 0x06 chat packet (spec §6): reliable,
// u8 type | u8 sound | u16 targetPid | message bytes.
func BuildChat(chatType, sound uint8, targetPid uint16, msg string) []byte {
	w := NewWriter()
	w.U8(OutChat)
	w.U8(chatType)
	w.U8(sound)
	w.U16(targetPid)
	w.Bytes([]byte(msg))
	w.U8(0)
	return w.Buffer()
}

// BuildTakeGreen serializes the outgoing take-green packet.
func BuildTakeGreen(x, y uint16, prizeID int16) []byte {
	w := NewWriter()
	w.U16(x)
	w.U16(y)
	w.S16(prizeID)
	return w.Buffer()
}

// BuildDeath serializes the outgoing death packet.
func BuildDeath(killerID, bounty uint16) []byte {
	w := NewWriter()
	w.U16(killerID)
	w.U16(bounty)
	return w.Buffer()
}
