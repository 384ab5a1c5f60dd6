package player

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/clock"
	"github.com/lab1702/zerobot/internal/tilemap"
)

func TestSwapAndPopLookupInvariant(t *testing.T) {
	m := NewManager()
	m.OnPlayerEntering(1, "a", "", 0, 0)
	m.OnPlayerEntering(2, "b", "", 0, 0)
	m.OnPlayerEntering(3, "c", "", 0, 0)

	m.OnPlayerLeaving(1) // removes index 0, should swap id 3 into its place

	if m.Count() != 2 {
		t.Fatalf("expected 2 players remaining, got %d", m.Count())
	}
	for _, id := range []uint16{2, 3} {
		p := m.PlayerByID(id)
		if p == nil {
			t.Fatalf("expected player %d to still be found after swap-and-pop", id)
		}
		if p.ID != id {
			t.Fatalf("lookup invariant violated: lookup[%d] does not point at player %d", id, id)
		}
	}
	if m.PlayerByID(1) != nil {
		t.Fatalf("expected player 1 to be gone")
	}
}

func TestRapidEnterLeaveCycles(t *testing.T) {
	m := NewManager()
	for round := 0; round < 50; round++ {
		for id := uint16(1); id <= 10; id++ {
			m.OnPlayerEntering(id, "x", "", 0, 0)
		}
		for id := uint16(1); id <= 10; id += 2 {
			m.OnPlayerLeaving(id)
		}
		for id := uint16(2); id <= 10; id += 2 {
			p := m.PlayerByID(id)
			if p == nil || p.ID != id {
				t.Fatalf("round %d: lookup invariant broken for id %d", round, id)
			}
		}
		for id := uint16(2); id <= 10; id += 2 {
			m.OnPlayerLeaving(id)
		}
	}
	if m.Count() != 0 {
		t.Fatalf("expected empty roster at the end, got %d", m.Count())
	}
}

func TestAttachDetachGraph(t *testing.T) {
	// S6: A and B attach to T; T changes frequency; both should detach and
	// T's children list should be empty.
	m := NewManager()
	a := m.OnPlayerEntering(1, "A", "", 0, 0)
	b := m.OnPlayerEntering(2, "B", "", 0, 0)
	tgt := m.OnPlayerEntering(3, "T", "", 0, 0)
	a.Energy, a.Bounty = 100, 10
	b.Energy, b.Bounty = 100, 10
	tgt.Energy = 100

	settings := AttachSettings{AttachBounty: 5, TurretLimit: 2, MaxEnergy: 100}

	if _, ok := m.AttachSelf(1, 3, settings, 0); !ok {
		t.Fatalf("expected A to attach successfully")
	}
	if _, ok := m.AttachSelf(2, 3, settings, 0); !ok {
		t.Fatalf("expected B to attach successfully")
	}
	if len(tgt.children) != 2 {
		t.Fatalf("expected T to have 2 children, got %d", len(tgt.children))
	}

	m.DetachAllChildren(3)

	if a.AttachParent != InvalidID || b.AttachParent != InvalidID {
		t.Fatalf("expected both children detached")
	}
	if a.Timestamp != clock.InvalidSmallTick || b.Timestamp != clock.InvalidSmallTick {
		t.Fatalf("expected detached children to have invalid timestamps")
	}
	if len(tgt.children) != 0 {
		t.Fatalf("expected T's children list to be empty, got %d", len(tgt.children))
	}
}

func TestAttachRejectsOverLimit(t *testing.T) {
	m := NewManager()
	tgt := m.OnPlayerEntering(1, "T", "", 0, 0)
	tgt.Energy = 100
	settings := AttachSettings{AttachBounty: 0, TurretLimit: 1, MaxEnergy: 100}

	for i := uint16(2); i <= 3; i++ {
		p := m.OnPlayerEntering(i, "x", "", 0, 0)
		p.Energy = 100
	}
	if _, ok := m.AttachSelf(2, 1, settings, 0); !ok {
		t.Fatalf("expected first attach to succeed")
	}
	if _, ok := m.AttachSelf(3, 1, settings, 0); ok {
		t.Fatalf("expected second attach to fail: TurretLimit is 1")
	}
}

func TestAbsorbPositionSnapVsLerp(t *testing.T) {
	// S1: self at (100,100) v(0,0); player X stamped now-8 with
	// pos (200,200) v(1,0) tiles/s. Expect placement near (200.08, 200),
	// lerp_time 0.2s (since 0.08 < SnapThreshold, it should lerp not snap).
	m := NewManager()
	m.OnPlayerEntering(1, "X", "", 0, 0)
	p := m.PlayerByID(1)
	p.Position = mgl64.Vec2{200, 200}
	p.Timestamp = 0

	tm := tilemap.New()
	pkt := IncomingPosition{
		SmallTick: 8,
		Position:  mgl64.Vec2{200, 200},
		Velocity:  mgl64.Vec2{1, 0},
	}
	ok := m.AbsorbPosition(1, pkt, 16, tm, 0, 1.0)
	if !ok {
		t.Fatalf("expected packet to be absorbed")
	}

	if p.lerpRemaining != LerpDuration {
		t.Fatalf("expected lerp window of %v, got %v", LerpDuration, p.lerpRemaining)
	}
	expectedX := 200.08
	if math.Abs(p.lerpVelocity.X()*LerpDuration+p.Position.X()-expectedX) > 1e-3 {
		t.Fatalf("unexpected projected x: lerpVel=%v pos=%v", p.lerpVelocity, p.Position)
	}
}

func TestAbsorbPositionRejectsStale(t *testing.T) {
	m := NewManager()
	m.OnPlayerEntering(1, "X", "", 0, 0)
	p := m.PlayerByID(1)
	p.Timestamp = 500

	tm := tilemap.New()
	ok := m.AbsorbPosition(1, IncomingPosition{SmallTick: 100}, 600, tm, 0, 1.0)
	if ok {
		t.Fatalf("expected a stale/reordered small tick to be rejected")
	}
}
