package security

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Wire sizes for the helper protocol (spec §6).
const (
	RequestSize          = 1 + 4
	KeystreamResponseSize = 1 + 4 + KeystreamWords*4
	ChecksumResponseSize  = 1 + 4 + 4
)

// EncodeRequest builds a request frame: u8 type | u32 key.
func EncodeRequest(t RequestType, key uint32) []byte {
	buf := make([]byte, RequestSize)
	buf[0] = byte(t)
	binary.LittleEndian.PutUint32(buf[1:], key)
	return buf
}

// ParseResponse validates and decodes a response frame for the request it
// answers. The echoed key must match; a mismatch or wrong type marks the
// exchange failed rather than delivering someone else's answer.
func ParseResponse(t RequestType, key uint32, buf []byte) ([]uint32, error) {
	want := ChecksumResponseSize
	if t == RequestKeystream {
		want = KeystreamResponseSize
	}
	if len(buf) != want {
		return nil, errors.Errorf("security: response length %d, want %d", len(buf), want)
	}
	if RequestType(buf[0]) != t {
		return nil, errors.Errorf("security: response type %d, want %d", buf[0], t)
	}
	if echoed := binary.LittleEndian.Uint32(buf[1:]); echoed != key {
		return nil, errors.Errorf("security: response key %#x, want %#x", echoed, key)
	}

	if t == RequestKeystream {
		table := make([]uint32, KeystreamWords)
		for i := range table {
			table[i] = binary.LittleEndian.Uint32(buf[5+i*4:])
		}
		return table, nil
	}
	return []uint32{binary.LittleEndian.Uint32(buf[5:])}, nil
}
