package tilemap

// RegionBitset stores 1 bit per (x,y) within a shrink-fit bounding box, so a
// flagroom-sized region costs a few KB instead of the 128KB a full-map
// bitset would need (spec §3).
type RegionBitset struct {
	minX, minY int
	maxX, maxY int // exclusive
	bits       []uint64
	width      int
	set        bool // has anything ever been Set(true)?
}

// NewRegionBitset returns an empty region bitset.
func NewRegionBitset() *RegionBitset {
	return &RegionBitset{}
}

func (r *RegionBitset) index(x, y int) (int, bool) {
	if !r.set || x < r.minX || x >= r.maxX || y < r.minY || y >= r.maxY {
		return 0, false
	}
	localX := x - r.minX
	localY := y - r.minY
	return localY*r.width + localX, true
}

// Test reports whether (x,y) is set.
func (r *RegionBitset) Test(x, y int) bool {
	idx, ok := r.index(x, y)
	if !ok {
		return false
	}
	word := idx / 64
	bit := uint(idx % 64)
	return r.bits[word]&(1<<bit) != 0
}

// Set sets or clears (x,y), growing the bounding box as needed when setting
// true. Clearing never grows the box; per P5 the box may shrink or stay the
// same but this implementation keeps it stable on clear (a conservative,
// correct choice: recomputing a tight shrink on every clear would require a
// full rescan, which the spec does not require it do eagerly).
func (r *RegionBitset) Set(x, y int, value bool) {
	if value {
		r.grow(x, y)
		idx, ok := r.index(x, y)
		if !ok {
			return
		}
		word := idx / 64
		bit := uint(idx % 64)
		r.bits[word] |= 1 << bit
		return
	}
	idx, ok := r.index(x, y)
	if !ok {
		return
	}
	word := idx / 64
	bit := uint(idx % 64)
	r.bits[word] &^= 1 << bit
}

func (r *RegionBitset) grow(x, y int) {
	if !r.set {
		r.minX, r.maxX = x, x+1
		r.minY, r.maxY = y, y+1
		r.width = 1
		r.bits = make([]uint64, 1)
		r.set = true
		return
	}
	if x >= r.minX && x < r.maxX && y >= r.minY && y < r.maxY {
		return
	}
	newMinX, newMaxX := r.minX, r.maxX
	newMinY, newMaxY := r.minY, r.maxY
	if x < newMinX {
		newMinX = x
	}
	if x >= newMaxX {
		newMaxX = x + 1
	}
	if y < newMinY {
		newMinY = y
	}
	if y >= newMaxY {
		newMaxY = y + 1
	}
	newWidth := newMaxX - newMinX
	newHeight := newMaxY - newMinY
	newBits := make([]uint64, (newWidth*newHeight+63)/64)
	// re-stamp existing set bits into the new layout
	for yy := r.minY; yy < r.maxY; yy++ {
		for xx := r.minX; xx < r.maxX; xx++ {
			if r.Test(xx, yy) {
				localX := xx - newMinX
				localY := yy - newMinY
				idx := localY*newWidth + localX
				newBits[idx/64] |= 1 << uint(idx%64)
			}
		}
	}
	r.minX, r.maxX, r.minY, r.maxY = newMinX, newMaxX, newMinY, newMaxY
	r.width = newWidth
	r.bits = newBits
}

// Bounds returns the current bounding box (minX, minY, maxX, maxY), all
// exclusive on the max side.
func (r *RegionBitset) Bounds() (int, int, int, int) {
	return r.minX, r.minY, r.maxX, r.maxY
}

// Each calls fn for every set (x,y) in the region.
func (r *RegionBitset) Each(fn func(x, y int)) {
	for y := r.minY; y < r.maxY; y++ {
		for x := r.minX; x < r.maxX; x++ {
			if r.Test(x, y) {
				fn(x, y)
			}
		}
	}
}

// RegionDataMap is the typed analog of RegionBitset for per-tile payloads
// (e.g. flood-fill depth).
type RegionDataMap[T any] struct {
	minX, minY int
	maxX, maxY int
	width      int
	data       map[int]T
}

// NewRegionDataMap returns an empty typed region map.
func NewRegionDataMap[T any]() *RegionDataMap[T] {
	return &RegionDataMap[T]{data: make(map[int]T)}
}

// Get returns the value at (x,y) and whether it was present.
func (r *RegionDataMap[T]) Get(x, y int) (T, bool) {
	v, ok := r.data[r.key(x, y)]
	return v, ok
}

// Set stores value at (x,y), growing the bounding box as needed.
func (r *RegionDataMap[T]) Set(x, y int, value T) {
	if len(r.data) == 0 {
		r.minX, r.maxX = x, x+1
		r.minY, r.maxY = y, y+1
	} else {
		if x < r.minX {
			r.minX = x
		}
		if x >= r.maxX {
			r.maxX = x + 1
		}
		if y < r.minY {
			r.minY = y
		}
		if y >= r.maxY {
			r.maxY = y + 1
		}
	}
	r.data[r.key(x, y)] = value
}

func (r *RegionDataMap[T]) key(x, y int) int {
	return y*Size + x
}

// Bounds returns the current bounding box (minX, minY, maxX, maxY).
func (r *RegionDataMap[T]) Bounds() (int, int, int, int) {
	return r.minX, r.minY, r.maxX, r.maxY
}

// Len returns the number of entries stored.
func (r *RegionDataMap[T]) Len() int {
	return len(r.data)
}
