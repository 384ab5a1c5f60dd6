// Package mapbase implements the map base analyzer: it locates "flagroom"
// candidates by path winding, floods the regions around them, and exposes
// entrance/flagroom positions plus optional depth maps (spec §4.9). It runs
// once per map load and feeds the behavior layer.
package mapbase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/pathfind"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// kShipRadius is the clearance used for base detection: the smallest ship.
const kShipRadius = 14.0 / 16.0

// kIgnoreBasesDistance keeps flagroom candidates more than this far apart.
const kIgnoreBasesDistance = 125.0

// Config controls base detection for one map.
type Config struct {
	SpawnX, SpawnY   int
	BaseCount        int
	EmptyExitRange   int
	FlagroomSize     int
	PopulateFloodMap bool
}

// Base is one detected base region.
type Base struct {
	// Bitset covers the whole reachable walled region.
	Bitset *tilemap.RegionBitset
	// FlagroomBitset covers the FlagroomSize-bounded core.
	FlagroomBitset *tilemap.RegionBitset

	EntrancePosition mgl64.Vec2
	FlagroomPosition mgl64.Vec2

	// Path runs entrance -> flagroom, derived from the flood depth map.
	Path []mgl64.Vec2

	// PathFloodMap holds per-tile flood depth from the flagroom center,
	// populated when Config.PopulateFloodMap is set.
	PathFloodMap *tilemap.RegionDataMap[uint16]

	MaxDepth int
}

// BaseSet answers containment queries over the detected bases.
type BaseSet struct {
	Bases []Base
}

// BaseAt returns the base whose region contains (x,y), or nil (spec §4.9
// contract).
func (s *BaseSet) BaseAt(x, y int) *Base {
	for i := range s.Bases {
		if s.Bases[i].Bitset.Test(x, y) {
			return &s.Bases[i]
		}
	}
	return nil
}

// cardinal direction bit indices into pathfind's 8-way edge order.
const (
	dirEast  = 0
	dirSouth = 2
	dirWest  = 4
	dirNorth = 6
)

var cardinals = [4][3]int{
	{1, 0, dirEast},
	{0, 1, dirSouth},
	{-1, 0, dirWest},
	{0, -1, dirNorth},
}

// FindBases runs the full analysis (spec §4.9): shortest-path distances
// from spawn, winding-maximal flagroom candidates, a walled bitset, and a
// flood fill per candidate.
func FindBases(m *tilemap.Map, grid *pathfind.Grid, cfg Config) *BaseSet {
	dist := floodDistances(grid, cfg.SpawnX, cfg.SpawnY)
	flagrooms := detectFlagrooms(dist, cfg)
	walled := buildWalledBitset(m, cfg.EmptyExitRange)

	set := &BaseSet{}
	for _, fr := range flagrooms {
		base := Base{
			Bitset:           tilemap.NewRegionBitset(),
			FlagroomBitset:   tilemap.NewRegionBitset(),
			FlagroomPosition: mgl64.Vec2{float64(fr[0]), float64(fr[1])},
		}
		var depthMap *tilemap.RegionDataMap[uint16]
		if cfg.PopulateFloodMap {
			depthMap = tilemap.NewRegionDataMap[uint16]()
		}
		ex, ey, maxDepth := floodFillRegion(grid, walled, base.Bitset, fr[0], fr[1], -1, depthMap)
		base.EntrancePosition = mgl64.Vec2{float64(ex), float64(ey)}
		base.PathFloodMap = depthMap
		base.MaxDepth = maxDepth

		floodFillRegion(grid, walled, base.FlagroomBitset, fr[0], fr[1], cfg.FlagroomSize, nil)

		if depthMap != nil {
			base.Path = tracePath(depthMap, ex, ey, fr[0], fr[1])
		}

		set.Bases = append(set.Bases, base)
	}
	return set
}

// floodDistances computes each traversable tile's shortest-path distance
// from spawn over the 4-way edge graph; unit edge weights make a breadth-
// first wave exact. Unreached tiles hold a negative distance.
func floodDistances(grid *pathfind.Grid, spawnX, spawnY int) []float64 {
	dist := make([]float64, tilemap.Size*tilemap.Size)
	for i := range dist {
		dist[i] = -1
	}

	type coord struct{ x, y int }
	queue := []coord{{spawnX, spawnY}}
	dist[spawnY*tilemap.Size+spawnX] = 0

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		d := dist[c.y*tilemap.Size+c.x]

		edges := grid.Node(c.x, c.y).Edges
		for _, card := range cardinals {
			if edges.Mask&(1<<uint(card[2])) == 0 {
				continue
			}
			nx, ny := c.x+card[0], c.y+card[1]
			if nx < 0 || nx >= tilemap.Size || ny < 0 || ny >= tilemap.Size {
				continue
			}
			idx := ny*tilemap.Size + nx
			if dist[idx] >= 0 {
				continue
			}
			dist[idx] = d + 1
			queue = append(queue, coord{nx, ny})
		}
	}
	return dist
}

// detectFlagrooms picks up to BaseCount tiles maximizing path winding
// (path distance minus straight-line distance), each more than 125 tiles
// from every earlier pick (spec §4.9).
func detectFlagrooms(dist []float64, cfg Config) [][2]int {
	spawn := mgl64.Vec2{float64(cfg.SpawnX), float64(cfg.SpawnY)}
	var picks [][2]int

	for len(picks) < cfg.BaseCount {
		bestDelta := 0.0
		bestX, bestY := -1, -1

		for y := 0; y < tilemap.Size; y++ {
			for x := 0; x < tilemap.Size; x++ {
				d := dist[y*tilemap.Size+x]
				if d < 0 {
					continue
				}
				pos := mgl64.Vec2{float64(x), float64(y)}

				tooClose := false
				for _, p := range picks {
					prev := mgl64.Vec2{float64(p[0]), float64(p[1])}
					if pos.Sub(prev).Len() <= kIgnoreBasesDistance {
						tooClose = true
						break
					}
				}
				if tooClose {
					continue
				}

				delta := d - pos.Sub(spawn).Len()
				if delta > bestDelta {
					bestDelta = delta
					bestX, bestY = x, y
				}
			}
		}

		if bestX < 0 {
			break
		}
		picks = append(picks, [2]int{bestX, bestY})
	}
	return picks
}

// buildWalledBitset marks every tile within emptyExitRange of a solid tile
// along any of the 8 directions (spec §4.9 step 3).
func buildWalledBitset(m *tilemap.Map, emptyExitRange int) []bool {
	walled := make([]bool, tilemap.Size*tilemap.Size)
	dirs := [8][2]int{
		{1, 0}, {0, 1}, {-1, 0}, {0, -1},
		{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
	}

	for y := 0; y < tilemap.Size; y++ {
		for x := 0; x < tilemap.Size; x++ {
			nearWall := false
			for _, d := range dirs {
				for i := 0; i < emptyExitRange && !nearWall; i++ {
					if m.IsSolid(x+d[0]*i, y+d[1]*i, 0xFFFF) {
						nearWall = true
					}
				}
				if nearWall {
					break
				}
			}
			walled[y*tilemap.Size+x] = nearWall
		}
	}
	return walled
}

// floodFillRegion floods outward from (startX,startY) over the 4-way edge
// graph. With range >= 0, the flood stops at that depth (flagroom fill);
// with range < 0, the flood stops at the first tile that leaves the walled
// region, which becomes the entrance (spec §4.9 step 4). Returns the
// entrance coordinates and the maximum depth reached.
func floodFillRegion(grid *pathfind.Grid, walled []bool, region *tilemap.RegionBitset, startX, startY, rangeCap int, depthMap *tilemap.RegionDataMap[uint16]) (int, int, int) {
	type floodState struct {
		x, y  int
		depth int
	}

	queue := []floodState{{startX, startY, 0}}
	region.Set(startX, startY, true)

	entranceX, entranceY := startX, startY
	maxDepth := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if depthMap != nil {
			depthMap.Set(cur.x, cur.y, uint16(cur.depth))
		}
		if cur.depth > maxDepth {
			maxDepth = cur.depth
		}

		if rangeCap >= 0 {
			if cur.depth >= rangeCap {
				continue
			}
		} else if !walled[cur.y*tilemap.Size+cur.x] {
			// Left the walled region: this is the base entrance.
			entranceX, entranceY = cur.x, cur.y
			break
		}

		edges := grid.Node(cur.x, cur.y).Edges
		for _, card := range cardinals {
			if edges.Mask&(1<<uint(card[2])) == 0 {
				continue
			}
			nx, ny := cur.x+card[0], cur.y+card[1]
			if nx < 0 || nx >= tilemap.Size || ny < 0 || ny >= tilemap.Size {
				continue
			}
			if region.Test(nx, ny) {
				continue
			}
			region.Set(nx, ny, true)
			queue = append(queue, floodState{nx, ny, cur.depth + 1})
		}
	}

	return entranceX, entranceY, maxDepth
}

// tracePath walks the flood depth map from the entrance back to the
// flagroom center by strictly descending depth, then reverses nothing: the
// result already runs entrance -> flagroom.
func tracePath(depthMap *tilemap.RegionDataMap[uint16], fromX, fromY, toX, toY int) []mgl64.Vec2 {
	var path []mgl64.Vec2
	x, y := fromX, fromY

	depth, ok := depthMap.Get(x, y)
	if !ok {
		return nil
	}

	for {
		path = append(path, mgl64.Vec2{float64(x), float64(y)})
		if x == toX && y == toY {
			break
		}

		bestX, bestY := -1, -1
		bestDepth := depth
		for _, card := range cardinals {
			nx, ny := x+card[0], y+card[1]
			d, ok := depthMap.Get(nx, ny)
			if !ok {
				continue
			}
			if d < bestDepth {
				bestDepth = d
				bestX, bestY = nx, ny
			}
		}
		if bestX < 0 {
			// no strictly descending neighbor; bail rather than loop
			break
		}
		x, y, depth = bestX, bestY, bestDepth
	}
	return path
}

// Distance is a convenience for behavior code: straight-line tiles between
// a point and a base's flagroom center.
func (b *Base) Distance(x, y int) float64 {
	dx := float64(x) - b.FlagroomPosition.X()
	dy := float64(y) - b.FlagroomPosition.Y()
	return math.Sqrt(dx*dx + dy*dy)
}
