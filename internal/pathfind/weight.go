package pathfind

import "github.com/lab1702/zerobot/internal/tilemap"

// WeightKind selects how a tile's proximity to a wall affects edge cost
// (spec §4.3, ported from original_source/zero/path/Pathfinder.cpp).
type WeightKind int

const (
	WeightFlat WeightKind = iota
	WeightLinear
	WeightQuadratic
)

// CloseDistance is the wall-distance threshold inside which weighting
// kicks in.
const CloseDistance = 6.0

// SafetyPenalty is added to an edge's cost when it enters a safety tile
// from a non-safety tile, discouraging the pathfinder from treating safe
// tiles as ordinary floor (spec §4.3: "≈ 300").
const SafetyPenalty = 300.0

// wallDistance returns the Chebyshev distance from (x,y) to the nearest
// solid tile, capped at CloseDistance (no need to look further).
func wallDistance(m *tilemap.Map, x, y int, freq uint16) float64 {
	for d := 0; d <= int(CloseDistance); d++ {
		found := false
		for dy := -d; dy <= d; dy++ {
			for dx := -d; dx <= d; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if abs(dx) != d && abs(dy) != d {
					continue
				}
				if m.IsSolid(x+dx, y+dy, freq) {
					found = true
				}
			}
		}
		if found {
			return float64(d)
		}
	}
	return CloseDistance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// WallWeight computes the extra edge-cost contribution from wall proximity,
// per the chosen weighting kind.
func WallWeight(kind WeightKind, distance float64) float64 {
	switch kind {
	case WeightLinear:
		if distance >= CloseDistance {
			return 0
		}
		return CloseDistance / (distance + 1e-6)
	case WeightQuadratic:
		if distance >= CloseDistance {
			return 0
		}
		diff := CloseDistance - distance
		return diff * diff
	default:
		return 0
	}
}
