package netmsg

// PlayerEnteringPacket is the PlayerEntering event payload (spec §6).
type PlayerEnteringPacket struct {
	Ship      uint8
	Audio     uint8
	Name      string
	Squad     string
	KillPts   uint32
	FlagPts   uint32
	PlayerID  uint16
	Freq      uint16
	Wins      uint16
	Losses    uint16
	Attach    uint16
	Flags     uint16
	KOTH      uint8
}

// ParsePlayerEntering parses a PlayerEntering packet.
func ParsePlayerEntering(b []byte) (PlayerEnteringPacket, error) {
	r := NewReader(b)
	var p PlayerEnteringPacket
	var err error
	if p.Ship, err = r.U8(); err != nil {
		return p, err
	}
	if p.Audio, err = r.U8(); err != nil {
		return p, err
	}
	if p.Name, err = r.FixedString(20); err != nil {
		return p, err
	}
	if p.Squad, err = r.FixedString(20); err != nil {
		return p, err
	}
	if p.KillPts, err = r.U32(); err != nil {
		return p, err
	}
	if p.FlagPts, err = r.U32(); err != nil {
		return p, err
	}
	if p.PlayerID, err = r.U16(); err != nil {
		return p, err
	}
	if p.Freq, err = r.U16(); err != nil {
		return p, err
	}
	if p.Wins, err = r.U16(); err != nil {
		return p, err
	}
	if p.Losses, err = r.U16(); err != nil {
		return p, err
	}
	if p.Attach, err = r.U16(); err != nil {
		return p, err
	}
	if p.Flags, err = r.U16(); err != nil {
		return p, err
	}
	p.KOTH, err = r.U8()
	return p, err
}

// PlayerLeavingPacket is the PlayerLeaving event payload.
type PlayerLeavingPacket struct {
	PlayerID uint16
}

func ParsePlayerLeaving(b []byte) (PlayerLeavingPacket, error) {
	r := NewReader(b)
	id, err := r.U16()
	return PlayerLeavingPacket{PlayerID: id}, err
}

// LargePositionPacket is the per-player full position update (spec §6).
// ExtraPresent reports whether the optional 10-byte energy/ping/flag/items
// tail was included.
type LargePositionPacket struct {
	Direction    uint8
	Timestamp    uint16
	X            uint16
	VelY         int16
	PlayerID     uint16
	VelX         int16
	Checksum     uint8
	Toggles      uint8
	Ping         uint8
	Y            uint16
	Bounty       uint16
	Weapon       uint16
	ExtraPresent bool
	Energy       uint16
	Latency      uint16
	FlagTimer    uint16
	Items        uint32
}

func ParseLargePosition(b []byte) (LargePositionPacket, error) {
	r := NewReader(b)
	var p LargePositionPacket
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
	if p.VelY, err = r.S16(); err != nil {
		return p, err
	}
	if p.PlayerID, err = r.U16(); err != nil {
		return p, err
	}
	if p.VelX, err = r.S16(); err != nil {
		return p, err
	}
	if p.Checksum, err = r.U8(); err != nil {
		return p, err
	}
	if p.Toggles, err = r.U8(); err != nil {
		return p, err
	}
	if p.Ping, err = r.U8(); err != nil {
		return p, err
	}
	if p.Y, err = r.U16(); err != nil {
		return p, err
	}
	if p.Bounty, err = r.U16(); err != nil {
		return p, err
	}
	if p.Weapon, err = r.U16(); err != nil {
		return p, err
	}
	if r.Remaining() >= 10 {
		p.ExtraPresent = true
		if p.Energy, err = r.U16(); err != nil {
			return p, err
		}
		if p.Latency, err = r.U16(); err != nil {
			return p, err
		}
		if p.FlagTimer, err = r.U16(); err != nil {
			return p, err
		}
		if p.Items, err = r.U32(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// ChatPacket is the Chat event payload.
type ChatPacket struct {
	Type     uint8
	Sound    uint8
	SenderID uint16
	Message  string
}

func ParseChat(b []byte) (ChatPacket, error) {
	r := NewReader(b)
	var p ChatPacket
	var err error
	if p.Type, err = r.U8(); err != nil {
		return p, err
	}
	if p.Sound, err = r.U8(); err != nil {
		return p, err
	}
	if p.SenderID, err = r.U16(); err != nil {
		return p, err
	}
	p.Message = string(r.Rest())
	return p, nil
}

// FlagPositionPacket is the FlagPosition event payload.
type FlagPositionPacket struct {
	ID    uint16
	X     uint16
	Y     uint16
	Owner uint16
}

func ParseFlagPosition(b []byte) (FlagPositionPacket, error) {
	r := NewReader(b)
	var p FlagPositionPacket
	var err error
	if p.ID, err = r.U16(); err != nil {
		return p, err
	}
	if p.X, err = r.U16(); err != nil {
		return p, err
	}
	if p.Y, err = r.U16(); err != nil {
		return p, err
	}
	p.Owner, err = r.U16()
	return p, err
}

// PlayerPrizePacket is the PlayerPrize event payload.
type PlayerPrizePacket struct {
	Timestamp uint32
	X         uint16
	Y         uint16
	PrizeID   uint16
	PlayerID  uint16
}

func ParsePlayerPrize(b []byte) (PlayerPrizePacket, error) {
	r := NewReader(b)
	var p PlayerPrizePacket
	var err error
	if p.Timestamp, err = r.U32(); err != nil {
		return p, err
	}
	if p.X, err = r.U16(); err != nil {
		return p, err
	}
	if p.Y, err = r.U16(); err != nil {
		return p, err
	}
	if p.PrizeID, err = r.U16(); err != nil {
		return p, err
	}
	p.PlayerID, err = r.U16()
	return p, err
}

// PowerballPositionPacket is the PowerballPosition event payload.
type PowerballPositionPacket struct {
	BallID    uint8
	X         uint16
	Y         uint16
	VelX      int16
	VelY      int16
	Owner     uint16
	Timestamp uint32
}

func ParsePowerballPosition(b []byte) (PowerballPositionPacket, error) {
	r := NewReader(b)
	var p PowerballPositionPacket
	var err error
	if p.BallID, err = r.U8(); err != nil {
		return p, err
	}
	if p.X, err = r.U16(); err != nil {
		return p, err
	}
	if p.Y, err = r.U16(); err != nil {
		return p, err
	}
	if p.VelX, err = r.S16(); err != nil {
		return p, err
	}
	if p.VelY, err = r.S16(); err != nil {
		return p, err
	}
	if p.Owner, err = r.U16(); err != nil {
		return p, err
	}
	p.Timestamp, err = r.U32()
	return p, err
}
