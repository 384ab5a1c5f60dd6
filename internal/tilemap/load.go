package tilemap

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Animated multi-tile sprite anchor kinds and the square they expand to, per
// spec §4.2 ("1x1, 2x2, 5x5 or 6x6 grid of their anchor").
const (
	animGoal      = 172
	animAsteroid1 = 216 // 2x2 asteroid variant anchor
	animStation   = 220 // 5x5 station anchor
	animWormhole  = 228 // 6x6 wormhole anchor
	animFlag      = 252 // 1x1 flag anchor, kept for symmetry
)

var animSpans = map[uint8]int{
	animGoal:      1,
	animAsteroid1: 2,
	animStation:   5,
	animWormhole:  6,
	animFlag:      1,
}

// Load parses the bitmap-with-tail tile format (spec §4.2): if the buffer
// starts with "BM", a u32 header size at offset 2 is skipped; the remainder
// is a tight sequence of 4-byte records packing (x:12 | y:12 | id:8).
func Load(data []byte) (*Map, error) {
	m := New()

	offset := 0
	if len(data) >= 6 && data[0] == 'B' && data[1] == 'M' {
		headerSize := binary.LittleEndian.Uint32(data[2:6])
		offset = int(headerSize)
		if offset > len(data) {
			return nil, errors.Errorf("tilemap: header size %d exceeds buffer length %d", offset, len(data))
		}
	}

	body := data[offset:]
	if len(body)%4 != 0 {
		return nil, errors.Errorf("tilemap: trailing %d bytes do not form whole tile records", len(body)%4)
	}

	for i := 0; i+4 <= len(body); i += 4 {
		record := binary.LittleEndian.Uint32(body[i : i+4])
		x := int(record & 0xFFF)
		y := int((record >> 12) & 0xFFF)
		id := uint8(record >> 24)
		placeTile(m, x, y, id)
	}

	return m, nil
}

// placeTile writes id at (x,y), expanding known animated anchors to their
// full span and recording door/wormhole bookkeeping.
func placeTile(m *Map, x, y int, id uint8) {
	span, animated := animSpans[id]
	if !animated {
		span = 1
	}

	for dy := 0; dy < span; dy++ {
		for dx := 0; dx < span; dx++ {
			m.SetTile(x+dx, y+dy, id)
		}
	}

	if id == animWormhole {
		m.Wormholes = append(m.Wormholes, wormholeCenter(x, y, span))
	}

	if id >= FirstDoor && id <= LastDoorID {
		m.Doors = append(m.Doors, Door{X: x, Y: y, ID: id - FirstDoor})
	}
}

func wormholeCenter(x, y, span int) mgl64.Vec2 {
	return mgl64.Vec2{float64(x) + float64(span)/2, float64(y) + float64(span)/2}
}
