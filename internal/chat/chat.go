// Package chat implements the chat controller and outgoing queue: the
// received-chat ring buffer, the private-sender MRU history, and a 128-slot
// send queue drained under a leaky-bucket flood regulator (spec §4.7).
package chat

import (
	"strings"

	"github.com/lab1702/zerobot/internal/netmsg"
)

// Type enumerates chat message kinds (spec §3).
type Type uint8

const (
	TypeArena Type = iota
	TypePublicMacro
	TypePublic
	TypeTeam
	TypeOtherTeam
	TypePrivate
	TypeRedWarning
	TypeRemotePrivate
	TypeRedError
	TypeChannel
	TypeFuchsia Type = 79
)

// Entry is one received chat message.
type Entry struct {
	Type    Type
	Sound   uint8
	Sender  string
	Message string
}

// RingSize is the received-chat ring capacity; the oldest entry is evicted
// by wrap (spec §3).
const RingSize = 64

// PrivateHistorySize bounds the MRU list of recent private correspondents.
const PrivateHistorySize = 5

// Roster is the player-manager view the controller needs: name lookup for
// incoming sender ids, id lookup for outgoing private targets, and a
// frequency representative for freq-directed team messages.
type Roster interface {
	Name(id uint16) string
	IDByName(name string) uint16
	AnyOnFreq(freq uint16) uint16
	SelfFreq() uint16
}

// Event is delivered to the subscriber for every received message.
type Event struct {
	Entry    Entry
	SenderID uint16
}

// Controller owns the received-chat ring and private-sender history.
type Controller struct {
	roster Roster

	ring      [RingSize]Entry
	ringIndex int
	ringCount int

	privateSenders []string

	OnEvent func(Event)
}

// NewController returns a controller resolving sender ids through roster.
func NewController(roster Roster) *Controller {
	return &Controller{roster: roster}
}

// RingIndex returns the next write slot, for the R4 wrap invariant.
func (c *Controller) RingIndex() int { return c.ringIndex }

// OnChatPacket absorbs one incoming chat packet: resolve the sender name,
// push into the ring, track remote-private correspondents, and dispatch the
// event (spec §4.7).
func (c *Controller) OnChatPacket(pkt netmsg.ChatPacket) {
	entry := Entry{
		Type:    Type(pkt.Type),
		Sound:   pkt.Sound,
		Sender:  c.roster.Name(pkt.SenderID),
		Message: pkt.Message,
	}

	if entry.Type == TypeRemotePrivate {
		if name, rest, ok := parseRemoteSender(pkt.Message); ok {
			entry.Sender = name
			entry.Message = rest
			c.pushPrivateSender(name)
		}
	} else if entry.Type == TypePrivate && entry.Sender != "" {
		c.pushPrivateSender(entry.Sender)
	}

	c.ring[c.ringIndex] = entry
	c.ringIndex = (c.ringIndex + 1) % RingSize
	if c.ringCount < RingSize {
		c.ringCount++
	}

	if c.OnEvent != nil {
		c.OnEvent(Event{Entry: entry, SenderID: pkt.SenderID})
	}
}

// parseRemoteSender extracts the "(name)message" prefix of a remote
// private payload.
func parseRemoteSender(msg string) (name, rest string, ok bool) {
	if !strings.HasPrefix(msg, "(") {
		return "", "", false
	}
	end := strings.IndexByte(msg, ')')
	if end <= 1 {
		return "", "", false
	}
	return msg[1:end], msg[end+1:], true
}

// pushPrivateSender moves name to the front of the MRU list, evicting the
// oldest entry past PrivateHistorySize.
func (c *Controller) pushPrivateSender(name string) {
	for i, n := range c.privateSenders {
		if strings.EqualFold(n, name) {
			c.privateSenders = append(c.privateSenders[:i], c.privateSenders[i+1:]...)
			break
		}
	}
	c.privateSenders = append([]string{name}, c.privateSenders...)
	if len(c.privateSenders) > PrivateHistorySize {
		c.privateSenders = c.privateSenders[:PrivateHistorySize]
	}
}

// PrivateSenders returns the recent private correspondents, most recent
// first.
func (c *Controller) PrivateSenders() []string {
	return c.privateSenders
}

// Recent returns up to n received entries, oldest first.
func (c *Controller) Recent(n int) []Entry {
	if n > c.ringCount {
		n = c.ringCount
	}
	out := make([]Entry, 0, n)
	start := (c.ringIndex - n + RingSize) % RingSize
	for i := 0; i < n; i++ {
		out = append(out, c.ring[(start+i)%RingSize])
	}
	return out
}
