package tilemap

// Checksum reproduces the arena-integrity checksum formula from spec
// §4.2: for y in key%32..1024 step 32, for x in key%31..1024 step 31, if
// the (brick-masked) tile is in [1..160] or is the safe tile (171), fold
// base_key XOR tile into the running key.
func (m *Map) Checksum(key uint32) uint32 {
	result := key
	for y := int(key % 32); y < Size; y += 32 {
		for x := int(key % 31); x < Size; x += 31 {
			tile := m.maskedTile(x, y)
			if (tile >= 1 && tile <= 160) || tile == TileSafe {
				result += key ^ uint32(tile)
			}
		}
	}
	return result
}

// maskedTile returns the tile id at (x,y) with brick tiles masked to 0, as
// the checksum formula requires.
func (m *Map) maskedTile(x, y int) uint8 {
	id := m.TileAt(x, y)
	if id == TileBrick {
		return 0
	}
	return id
}
