package chat

import (
	"log"
	"strings"

	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/player"
)

// QueueSize is the outgoing ring capacity (spec §4.7).
const QueueSize = 128

type outgoing struct {
	chatType   Type
	targetName string
	frequency  uint16
	message    string
}

// Queue is the single-writer/single-reader outgoing chat ring: producers
// push on the main thread via the Send* methods, Update drains while the
// leaky-bucket regulator permits it. Private targets are resolved at drain
// time, not enqueue time, so a player entering the arena between the two is
// still addressed directly.
type Queue struct {
	Logger *log.Logger

	conn   netmsg.Connection
	roster Roster

	entries    [QueueSize]outgoing
	writeIndex int
	sendIndex  int

	floodLimit       int32
	sentMessageCount int32
	lastCheckTick    clock.Tick
}

// NewQueue returns an empty queue sending through conn.
func NewQueue(conn netmsg.Connection, roster Roster, floodLimit int32, logger *log.Logger) *Queue {
	return &Queue{
		Logger:     logger,
		conn:       conn,
		roster:     roster,
		floodLimit: floodLimit,
	}
}

// SentCount exposes the regulator's bucket level (P3).
func (q *Queue) SentCount() int32 { return q.sentMessageCount }

// SetFloodLimit applies a new server flood limit (arena settings update).
func (q *Queue) SetFloodLimit(limit int32) { q.floodLimit = limit }

// Pending returns how many queued messages have not been sent yet.
func (q *Queue) Pending() int {
	return (q.writeIndex - q.sendIndex + QueueSize) % QueueSize
}

// acquire reserves the next write slot, or nil when the ring is full (spec
// §7: resource exhaustion logs at Warning and returns failure).
func (q *Queue) acquire() *outgoing {
	next := (q.writeIndex + 1) % QueueSize
	if next == q.sendIndex {
		if q.Logger != nil {
			q.Logger.Printf("chat: failed to enqueue message, queue was full")
		}
		return nil
	}
	e := &q.entries[q.writeIndex]
	q.writeIndex = next
	return e
}

// SendPublic queues a public message.
func (q *Queue) SendPublic(msg string) bool {
	e := q.acquire()
	if e == nil {
		return false
	}
	*e = outgoing{chatType: TypePublic, message: msg}
	return true
}

// SendPrivate queues a private message to name.
func (q *Queue) SendPrivate(name, msg string) bool {
	e := q.acquire()
	if e == nil {
		return false
	}
	*e = outgoing{chatType: TypePrivate, targetName: name, message: msg}
	return true
}

// SendTeam queues a message to the bot's own frequency.
func (q *Queue) SendTeam(msg string) bool {
	return q.SendFrequency(q.roster.SelfFreq(), msg)
}

// SendFrequency queues a message directed at freq; the addressee id is
// resolved from the roster at drain time.
func (q *Queue) SendFrequency(freq uint16, msg string) bool {
	e := q.acquire()
	if e == nil {
		return false
	}
	t := TypeOtherTeam
	if freq == q.roster.SelfFreq() {
		t = TypeTeam
	}
	*e = outgoing{chatType: t, frequency: freq, message: msg}
	return true
}

// Update drains the send end of the ring while the regulator permits: the
// bucket halves once per elapsed second, and a message goes out only while
// sent_message_count < flood_limit - 1 (spec §4.7, P3, scenario S4). Cost:
// commands (`?` but not `??`) cost 2, public messages 3, others 1.
func (q *Queue) Update(tick clock.Tick) {
	for q.sendIndex != q.writeIndex {
		d := clock.Diff(tick, q.lastCheckTick) / clock.TicksPerSecond
		if d > 0 {
			q.sentMessageCount >>= uint(d)
			q.lastCheckTick = tick
		}

		if q.sentMessageCount >= q.floodLimit-1 {
			break
		}

		e := q.entries[q.sendIndex]
		q.sendIndex = (q.sendIndex + 1) % QueueSize

		targetPid := uint16(0)
		chatType := e.chatType
		msg := e.message

		switch e.chatType {
		case TypePrivate:
			id := q.roster.IDByName(e.targetName)
			if id == player.InvalidID {
				// Recipient is not in the arena: compose a remote private
				// with a ":target:message" payload addressed to pid 0.
				chatType = TypeRemotePrivate
				msg = ":" + e.targetName + ":" + e.message
			} else {
				targetPid = id
			}
		case TypeTeam, TypeOtherTeam:
			id := q.roster.AnyOnFreq(e.frequency)
			if id == player.InvalidID {
				if q.Logger != nil {
					q.Logger.Printf("chat: failed to send to frequency %d, no player on frequency", e.frequency)
				}
				continue
			}
			targetPid = id
		}

		q.conn.SendReliableMessage(netmsg.BuildChat(uint8(chatType), 0, targetPid, msg))
		q.sentMessageCount += messageCost(chatType, msg)
	}
}

func messageCost(t Type, msg string) int32 {
	if strings.HasPrefix(msg, "?") && !strings.HasPrefix(msg, "??") {
		return 2
	}
	if t == TypePublic || t == TypePublicMacro {
		return 3
	}
	return 1
}
