// Package netmsg defines the wire-level contract between the core and the
// Connection collaborator (spec §1, §6): incoming protocol packet type ids
// and payload structs, the outgoing position/chat packet builders, a typed
// byte reader that refuses over-reads, and the Connection interface itself.
// Low-level UDP framing, reliability and encryption are the collaborator's
// job; this package only knows how to parse/build already-reassembled
// application packets.
package netmsg

import "github.com/lab1702/zerobot/internal/dispatch"

// ProtocolS2C enumerates the incoming packet types from spec §6.
const (
	PlayerID dispatch.PacketType = iota
	PlayerEntering
	PlayerLeaving
	TeamAndShipChange
	FrequencyChange
	LargePosition
	SmallPosition
	BatchedLarge
	BatchedSmall
	PlayerDeath
	Chat
	FlagPosition
	FlagClaim
	DropFlag
	TurfFlagUpdate
	SetCoordinates
	CreateTurret
	DestroyTurret
	PlayerPrize
	CollectedPrize
	ShipReset
	Security
	JoinGame
	ArenaDirectoryListing
	ArenaSettingsPacket // carries the ArenaSettings blob; name avoids the struct
	PowerballPosition
	SoccerGoal
)

// Outgoing packet type bytes (spec §6).
const (
	OutPosition byte = 0x03
	OutChat     byte = 0x06
)
