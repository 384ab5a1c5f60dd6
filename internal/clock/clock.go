// Package clock implements the core's tick semantics: a 32-bit monotonic
// tick counter, its 15-bit "small tick" wire projection, and the 64-bit
// microtick clock the powerball simulator interpolates against. Comparisons
// use signed modular arithmetic so wrap-around never desynchronizes the
// client from the server.
package clock

import "time"

// TicksPerSecond is the server's simulation rate: one tick is 1/100 s.
const TicksPerSecond = 100

// SmallTickMask keeps a tick in its 15-bit wire representation.
const SmallTickMask = 0x7FFF

// InvalidSmallTick marks a player as "not synchronized yet" (spec §3).
const InvalidSmallTick uint16 = 0xFFFF

// kPlayerTimeout bounds how stale a small-tick can be before a player is no
// longer considered synchronized (spec P1).
const kPlayerTimeout = 1000

// StaleReorderSlack is the maximum "newer" distance accepted before a
// smaller small-tick value is assumed to be an old, reordered packet rather
// than a genuine wrap. See SmallTickNewer.
const StaleReorderSlack = 999

// Tick is the 32-bit monotonic simulation counter.
type Tick uint32

// Diff returns a-b using signed modular arithmetic, safe across 32-bit
// wrap-around.
func Diff(a, b Tick) int32 {
	return int32(a - b)
}

// SmallTick projects t into its 15-bit wire representation.
func SmallTick(t Tick) uint16 {
	return uint16(t) & SmallTickMask
}

// SmallTickNewer reports whether candidate is a strictly newer small-tick
// than reference, given 15-bit wrap and a 999-tick reorder slack: with the
// difference wrapped into (-16384, 16384], candidate is newer only when it
// is 1 to StaleReorderSlack-1 ticks ahead of reference; equal, behind, or
// StaleReorderSlack or more ahead is not newer. An invalid reference makes
// any candidate newer. This matches spec §3's `>=` predicate that "rejects a
// difference >= 999 to reject stale reorderings".
func SmallTickNewer(candidate, reference uint16) bool {
	if reference == InvalidSmallTick {
		return true
	}
	diff := int32(candidate) - int32(reference)
	// normalize into (-16384, 16384]
	const span = 1 << 15
	if diff <= -span/2 {
		diff += span
	} else if diff > span/2 {
		diff -= span
	}
	if diff <= 0 {
		return false
	}
	return diff < StaleReorderSlack
}

// IsSynchronized implements P1: a player whose stored small tick is within
// kPlayerTimeout of now is considered synchronized.
func IsSynchronized(nowSmall, playerSmall uint16) bool {
	if playerSmall == InvalidSmallTick {
		return false
	}
	diff := int32(nowSmall) - int32(playerSmall)
	const span = 1 << 15
	if diff < 0 {
		diff += span
	}
	return diff < kPlayerTimeout
}

// Microtick is the 64-bit microsecond clock used by sub-tick interpolation
// (powerball).
type Microtick uint64

// TickDurationMicro is one simulation tick expressed in microseconds.
const TickDurationMicro Microtick = 1_000_000 / TicksPerSecond

// Source produces ticks and microticks from a server-synchronized monotonic
// base, mirroring the Connection collaborator's tick clock (spec §1/§6). It
// is deliberately not wall-clock-driven on its own: the connection
// collaborator supplies the authoritative offset, this type just exposes
// convenient derived values plus an injectable wall clock for tests.
type Source struct {
	// Now returns the current wall-clock time; overridable in tests.
	Now func() time.Time

	startWall  time.Time
	startTick  Tick
	serverDiff int32 // local_tick + time_diff = server_timestamp (spec §4.4)
}

// NewSource creates a Source anchored at startTick, as of the current wall
// clock.
func NewSource(startTick Tick) *Source {
	return &Source{
		Now:       time.Now,
		startWall: time.Now(),
		startTick: startTick,
	}
}

// SetServerTimeDiff records the offset used to compute server_timestamp in
// outgoing position packets.
func (s *Source) SetServerTimeDiff(diff int32) {
	s.serverDiff = diff
}

// Tick returns the current local tick, derived from elapsed wall time.
func (s *Source) Tick() Tick {
	elapsed := s.Now().Sub(s.startWall)
	ticks := Tick(elapsed.Milliseconds() / (1000 / TicksPerSecond))
	return s.startTick + ticks
}

// ServerTimestamp computes `local_tick + time_diff` per spec §4.4.
func (s *Source) ServerTimestamp() uint32 {
	return uint32(int64(s.Tick()) + int64(s.serverDiff))
}

// Microtick returns the current microtick.
func (s *Source) Microtick() Microtick {
	elapsed := s.Now().Sub(s.startWall)
	return Microtick(elapsed.Microseconds()) + Microtick(s.startTick)*TickDurationMicro
}
