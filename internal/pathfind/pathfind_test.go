package pathfind

import (
	"testing"

	"github.com/lab1702/zerobot/internal/tilemap"
)

func TestSearchOpenField(t *testing.T) {
	m := tilemap.New()
	g := NewGrid(m, 1.0, 0)

	path, ok := g.Search(10, 10, 15, 10, WeightFlat, nil)
	if !ok {
		t.Fatalf("expected a path across open field")
	}
	if len(path.Points) == 0 {
		t.Fatalf("expected non-empty path")
	}
	first := path.Points[0]
	last := path.Points[len(path.Points)-1]
	if first.X() != 10 || first.Y() != 10 {
		t.Fatalf("path should start at (10,10), got %v", first)
	}
	if last.X() != 15 || last.Y() != 10 {
		t.Fatalf("path should end at (15,10), got %v", last)
	}
}

func TestSearchBlockedGoalFails(t *testing.T) {
	m := tilemap.New()
	// Wall off the goal entirely.
	for y := 8; y <= 12; y++ {
		for x := 18; x <= 22; x++ {
			m.SetTile(x, y, 1) // any solid, non-walkable id
		}
	}
	// carve the goal back out but keep a full solid ring around it so it is
	// unreachable.
	m.SetTile(20, 10, tilemap.TileEmpty)

	g := NewGrid(m, 1.0, 0)
	_, ok := g.Search(0, 0, 20, 10, WeightFlat, nil)
	if ok {
		t.Fatalf("expected no path to a fully walled-off goal")
	}
}

func TestWallWeightMonotonic(t *testing.T) {
	near := WallWeight(WeightQuadratic, 1)
	far := WallWeight(WeightQuadratic, 5)
	if !(near > far) {
		t.Fatalf("expected closer distance to carry more weight: near=%f far=%f", near, far)
	}
	if WallWeight(WeightQuadratic, CloseDistance) != 0 {
		t.Fatalf("expected zero weight at or beyond CloseDistance")
	}
}
