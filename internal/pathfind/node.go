// Package pathfind implements the pathfinder processor: a node grid with
// per-node 8-way edge sets, ship-radius clearance precompute, wall-distance
// weighting and an A* search with reopening.
package pathfind

import "github.com/lab1702/zerobot/internal/tilemap"

// NodeFlags are per-node bits tracked during precompute and search.
type NodeFlags uint8

const (
	FlagTraversable NodeFlags = 1 << iota
	FlagOpenset
	FlagTouched
	FlagSafety
	FlagBrick
	FlagInitialized
)

// Node is one tile's pathfinding record.
type Node struct {
	Flags    NodeFlags
	ParentID int32 // -1 = none
	G, F     float64
	Edges    EdgeSet
}

// EdgeSet is the 8-way neighbor traversability mask plus a dynamic flag
// tagging any door/brick tile among the neighbors (spec §4.3): such an edge
// must be rebuilt when door state changes.
type EdgeSet struct {
	Mask    uint8 // bit i set => direction i (see dirs below) is traversable
	Dynamic bool
}

// dirs lists the 8 neighbor offsets in a fixed order shared by EdgeSet bits
// and the A* search.
var dirs = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func dirCost(i int) float64 {
	if i%2 == 0 {
		return 1.0
	}
	return 1.4142135623730951
}

// Grid is the precomputed pathfinding node grid for one ship radius.
type Grid struct {
	m      *tilemap.Map
	radius float64
	freq   uint16
	nodes  []Node
	width  int
}

func idx(x, y, width int) int { return y*width + x }

// NewGrid precomputes traversability, edge sets and wall-distance weights
// for m at the given ship radius and caster frequency.
func NewGrid(m *tilemap.Map, radius float64, freq uint16) *Grid {
	g := &Grid{
		m:      m,
		radius: radius,
		freq:   freq,
		nodes:  make([]Node, tilemap.Size*tilemap.Size),
		width:  tilemap.Size,
	}
	g.precomputeTraversability()
	g.precomputeEdges()
	return g
}

// precomputeTraversability marks nodes traversable per spec §4.3: a tile is
// traversable if CanOverlapTile holds *and* the set of occupiable sub-rects
// is not purely diagonal (a 2-rect set offset on both axes is rejected).
func (g *Grid) precomputeTraversability() {
	for y := 0; y < tilemap.Size; y++ {
		for x := 0; x < tilemap.Size; x++ {
			n := &g.nodes[idx(x, y, g.width)]
			if g.m.IsSafe(x, y) {
				n.Flags |= FlagSafety
			}
			if !g.m.CanOverlapTile(x, y, g.radius, g.freq) {
				continue
			}
			if purelyDiagonal(g.m, x, y, g.radius, g.freq) {
				continue
			}
			n.Flags |= FlagTraversable
		}
	}
}

// purelyDiagonal rejects the case spec §4.3 calls out: the occupiable
// sub-rects found by CanOverlapTile are only reachable via a diagonal-only
// offset on both axes, which the server does not consider a valid stance.
func purelyDiagonal(m *tilemap.Map, x, y int, radius float64, freq uint16) bool {
	// A tile is "purely diagonal" when none of the 4 axis-aligned
	// half-steps are individually clear but opposite diagonal corners are;
	// detect by checking the four orthogonal neighbors are all blocked
	// while two opposing diagonals are open.
	axisClear := 0
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if m.CanOverlapTile(x+d[0], y+d[1], radius, freq) {
			axisClear++
		}
	}
	if axisClear > 0 {
		return false
	}
	diagClear := 0
	for _, d := range [4][2]int{{1, 1}, {-1, -1}, {1, -1}, {-1, 1}} {
		if m.CanOverlapTile(x+d[0], y+d[1], radius, freq) {
			diagClear++
		}
	}
	return diagClear == 2
}

func (g *Grid) precomputeEdges() {
	for y := 0; y < tilemap.Size; y++ {
		for x := 0; x < tilemap.Size; x++ {
			n := &g.nodes[idx(x, y, g.width)]
			if n.Flags&FlagTraversable == 0 {
				continue
			}
			var edges EdgeSet
			for i, d := range dirs {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= tilemap.Size || ny < 0 || ny >= tilemap.Size {
					continue
				}
				neighbor := &g.nodes[idx(nx, ny, g.width)]
				if neighbor.Flags&FlagTraversable == 0 {
					continue
				}
				if !g.m.CanTraverse(x, y, nx, ny, g.radius, g.freq) {
					continue
				}
				edges.Mask |= 1 << uint(i)
				tile := g.m.TileAt(nx, ny)
				if (tile >= tilemap.FirstDoor && tile <= tilemap.DoorOpen) || tile == tilemap.TileBrick {
					edges.Dynamic = true
					n.Flags |= FlagBrick
				}
			}
			n.Edges = edges
		}
	}
}

// Node returns the node at (x,y).
func (g *Grid) Node(x, y int) Node {
	return g.nodes[idx(x, y, g.width)]
}

// RebuildDynamic recomputes every node's edge set. Paths marked dynamic
// (see Path.Dynamic) must trigger this whenever door state changes; the
// precompute itself is cheap enough to not need a more selective rebuild.
func (g *Grid) RebuildDynamic() {
	g.precomputeEdges()
}
