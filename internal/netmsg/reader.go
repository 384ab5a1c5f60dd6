package netmsg

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Reader is a typed little-endian byte reader that tracks its offset and
// refuses over-reads, replacing raw C-style buffer parsing (Design Notes
// §9). Every packet parse returns either a typed record or an error the
// dispatcher's handler treats as "malformed" and discards.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential reads starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return errors.Errorf("netmsg: short read, need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// S16 reads a little-endian int16.
func (r *Reader) S16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// FixedString reads an n-byte field and trims trailing NUL padding.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// Rest returns every remaining unread byte.
func (r *Reader) Rest() []byte {
	v := r.buf[r.off:]
	r.off = len(r.buf)
	return v
}

// Writer is the little-endian counterpart used to build outgoing packets.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) S16(v int16) { w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Bytes(b []byte) { w.buf = append(w.buf, b...) }

// FixedString writes s into an n-byte field, truncating or zero-padding as
// needed.
func (w *Writer) FixedString(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf = append(w.buf, b...)
}

// Bytes returns the accumulated buffer.
func (w *Writer) Buffer() []byte { return w.buf }
