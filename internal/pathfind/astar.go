package pathfind

import (
	"container/heap"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Path is the result of a successful search.
type Path struct {
	Points  []mgl64.Vec2
	Dynamic bool // true if any expanded edge touched a door or brick
}

type openItem struct {
	x, y  int
	f     float64
	index int
}

type openHeap []*openItem

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool   { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)        { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *openHeap) Push(x interface{})  { item := x.(*openItem); item.index = len(*h); *h = append(*h, item) }
func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Search runs A* with a Euclidean heuristic from (startX,startY) to
// (goalX,goalY), reopening a closed node if a shorter path is found,
// applying the SafetyPenalty when entering a safety tile from a
// non-safety tile, and resolving ship collisions along the returned path.
// Touched nodes have their Initialized bit cleared before returning so the
// next search starts fresh (spec §4.3).
func (g *Grid) Search(startX, startY, goalX, goalY int, weight WeightKind, resolve func(x, y int) (int, int)) (Path, bool) {
	width := g.width
	open := &openHeap{}
	heap.Init(open)

	touched := make([]int, 0, 256)
	markTouched := func(i int) {
		if g.nodes[i].Flags&FlagTouched == 0 {
			g.nodes[i].Flags |= FlagTouched
			touched = append(touched, i)
		}
	}
	defer func() {
		for _, i := range touched {
			g.nodes[i].Flags &^= FlagInitialized | FlagTouched | FlagOpenset
			g.nodes[i].ParentID = 0
			g.nodes[i].G = 0
			g.nodes[i].F = 0
		}
	}()

	startIdx := idx(startX, startY, width)
	goalIdx := idx(goalX, goalY, width)

	g.nodes[startIdx].ParentID = -1
	g.nodes[startIdx].G = 0
	g.nodes[startIdx].F = heuristic(startX, startY, goalX, goalY)
	g.nodes[startIdx].Flags |= FlagInitialized | FlagOpenset
	markTouched(startIdx)
	heap.Push(open, &openItem{x: startX, y: startY, f: g.nodes[startIdx].F})

	usedDynamic := false

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openItem)
		curIdx := idx(cur.x, cur.y, width)
		if g.nodes[curIdx].Flags&FlagOpenset == 0 {
			continue // stale heap entry from a reopen
		}
		g.nodes[curIdx].Flags &^= FlagOpenset

		if curIdx == goalIdx {
			return g.reconstruct(startIdx, goalIdx, usedDynamic, resolve), true
		}

		for i, d := range dirs {
			if g.nodes[curIdx].Edges.Mask&(1<<uint(i)) == 0 {
				continue
			}
			nx, ny := cur.x+d[0], cur.y+d[1]
			nIdx := idx(nx, ny, width)
			neighbor := &g.nodes[nIdx]
			if neighbor.Flags&FlagTraversable == 0 {
				continue
			}

			cost := dirCost(i)
			cost += WallWeight(weight, wallDistance(g.m, nx, ny, g.freq))
			if neighbor.Flags&FlagSafety != 0 && g.nodes[curIdx].Flags&FlagSafety == 0 {
				cost += SafetyPenalty
			}
			if g.nodes[curIdx].Edges.Dynamic {
				usedDynamic = true
			}

			tentativeG := g.nodes[curIdx].G + cost
			markTouched(nIdx)
			if neighbor.Flags&FlagInitialized == 0 || tentativeG < neighbor.G {
				neighbor.ParentID = int32(curIdx)
				neighbor.G = tentativeG
				neighbor.F = tentativeG + heuristic(nx, ny, goalX, goalY)
				neighbor.Flags |= FlagInitialized | FlagOpenset
				heap.Push(open, &openItem{x: nx, y: ny, f: neighbor.F})
			}
		}
	}

	return Path{}, false
}

func heuristic(x0, y0, x1, y1 int) float64 {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	return math.Sqrt(dx*dx + dy*dy)
}

func (g *Grid) reconstruct(startIdx, goalIdx int, dynamic bool, resolve func(x, y int) (int, int)) Path {
	var points []mgl64.Vec2
	cur := goalIdx
	for {
		x := cur % g.width
		y := cur / g.width
		if resolve != nil {
			x, y = resolve(x, y)
		}
		points = append(points, mgl64.Vec2{float64(x), float64(y)})
		if cur == startIdx {
			break
		}
		parent := g.nodes[cur].ParentID
		if parent < 0 {
			break
		}
		cur = int(parent)
	}
	// reverse into start->goal order
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return Path{Points: points, Dynamic: dynamic}
}
