package game

import "github.com/lab1702/zerobot/internal/weapon"

// The position packet's 16-bit weapon field packs, from the LSB:
// type:5 | level:2 | shrapbouncing:1 | shraplevel:2 | shrap:5 | alternate:1.
// Wire type codes are 1-based; zero means "no weapon fired".
const (
	wireBullet         = 1
	wireBouncingBullet = 2
	wireBomb           = 3
	wireProximityBomb  = 4
	wireRepel          = 5
	wireDecoy          = 6
	wireBurst          = 7
	wireThor           = 8
)

var toWire = map[weapon.Type]uint16{
	weapon.TypeBullet:         wireBullet,
	weapon.TypeBouncingBullet: wireBouncingBullet,
	weapon.TypeBomb:           wireBomb,
	weapon.TypeProximityBomb:  wireProximityBomb,
	weapon.TypeRepel:          wireRepel,
	weapon.TypeDecoy:          wireDecoy,
	weapon.TypeBurst:          wireBurst,
	weapon.TypeThor:           wireThor,
}

var fromWire = map[uint16]weapon.Type{
	wireBullet:         weapon.TypeBullet,
	wireBouncingBullet: weapon.TypeBouncingBullet,
	wireBomb:           weapon.TypeBomb,
	wireProximityBomb:  weapon.TypeProximityBomb,
	wireRepel:          weapon.TypeRepel,
	wireDecoy:          weapon.TypeDecoy,
	wireBurst:          weapon.TypeBurst,
	wireThor:           weapon.TypeThor,
}

// EncodeWeapon packs d into the position packet's weapon field.
func EncodeWeapon(d weapon.Data) uint16 {
	t, ok := toWire[d.Type]
	if !ok {
		return 0
	}
	v := t & 0x1F
	v |= uint16(d.Level&0x3) << 5
	if d.ShrapBouncing {
		v |= 1 << 7
	}
	v |= uint16(d.ShrapLevel&0x3) << 8
	v |= uint16(d.Shrap&0x1F) << 10
	if d.Alternate {
		v |= 1 << 15
	}
	return v
}

// DecodeWeapon unpacks a nonzero weapon field; ok is false for zero or an
// unknown type code.
func DecodeWeapon(v uint16) (weapon.Data, bool) {
	t, known := fromWire[v&0x1F]
	if !known {
		return weapon.Data{}, false
	}
	return weapon.Data{
		Type:          t,
		Level:         int((v >> 5) & 0x3),
		ShrapBouncing: (v>>7)&1 != 0,
		ShrapLevel:    int((v >> 8) & 0x3),
		Shrap:         int((v >> 10) & 0x1F),
		Alternate:     (v>>15)&1 != 0,
	}, true
}
