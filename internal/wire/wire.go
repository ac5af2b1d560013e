// Package wire implements the fixed-layout UDP datagram codec shared by
// clients and peer servers. Every datagram starts with a 4-byte
// little-endian tag; fixed-width string fields are zero-padded and
// zero-terminated; trailing arrays (where present) are contiguous
// fixed-width records preceded by a 32-bit count in the header. The layout
// mirrors the putString/getString style of zeromq-gyre's generated msg
// codec, adapted from length-prefixed strings to the reference server's
// fixed-width, NUL-terminated fields.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Field-width constants, frozen for wire compatibility.
const (
	UsernameMax = 32
	ChannelMax  = 32
	SayMax      = 64
	IPMax       = 64

	tagSize   = 4
	int32Size = 4
	uint64Size = 8
)

// DefaultChannel is created at startup and is never destroyed.
const DefaultChannel = "Common"

// Tag identifies the kind of a datagram; it is always the first 4 bytes,
// little-endian.
type Tag uint32

const (
	TagReqLogin Tag = iota + 1
	TagReqLogout
	TagReqJoin
	TagReqLeave
	TagReqSay
	TagReqList
	TagReqWho
	TagReqKeepAlive
	TagReqVerify

	TagTxtSay
	TagTxtList
	TagTxtWho
	TagTxtError
	TagTxtVerify

	TagReqS2SJoin
	TagReqS2SLeave
	TagReqS2SSay
	TagReqS2SList
	TagReqS2SWho
	TagReqS2SLeaf
	TagReqS2SVerify
	TagReqS2SKeepAlive
)

// ErrMalformed is returned (and never propagated outward — callers drop the
// datagram) whenever a datagram is truncated, has an unknown tag, or
// declares a trailing-array count that would overrun its own length.
var ErrMalformed = errors.New("wire: malformed datagram")

// PeekTag reads the tag without otherwise parsing the datagram. Used by the
// event loop to demux before it knows which concrete decoder to call.
func PeekTag(data []byte) (Tag, bool) {
	if len(data) < tagSize {
		return 0, false
	}
	return Tag(binary.LittleEndian.Uint32(data)), true
}

// encoder accumulates a datagram left to right. All integers are written
// little-endian for internal consistency (only the tag is mandated LE by
// the wire format; this codec applies it uniformly).
type encoder struct {
	buf []byte
}

func newEncoder(sizeHint int) *encoder {
	return &encoder{buf: make([]byte, 0, sizeHint)}
}

func (e *encoder) tag(t Tag) {
	e.uint32(uint32(t))
}

func (e *encoder) uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) int32(v int32) {
	e.uint32(uint32(v))
}

func (e *encoder) uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// fixed writes s truncated to width-1 bytes, zero-padded to width.
func (e *encoder) fixed(s string, width int) {
	b := make([]byte, width)
	n := len(s)
	if n > width-1 {
		n = width - 1
	}
	copy(b, s[:n])
	e.buf = append(e.buf, b...)
}

func (e *encoder) bytes() []byte {
	return e.buf
}

// decoder reads a datagram left to right, refusing to read past the end.
type decoder struct {
	buf []byte
	off int
}

func newDecoder(buf []byte) *decoder {
	return &decoder{buf: buf}
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) uint32() (uint32, bool) {
	if d.remaining() < 4 {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, true
}

func (d *decoder) int32() (int32, bool) {
	v, ok := d.uint32()
	return int32(v), ok
}

func (d *decoder) uint64() (uint64, bool) {
	if d.remaining() < 8 {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, true
}

// fixed reads a width-byte field, returning the string up to (excluding)
// the first NUL. Trailing bytes past the first NUL are undefined per the
// wire format and are discarded.
func (d *decoder) fixed(width int) (string, bool) {
	if d.remaining() < width {
		return "", false
	}
	raw := d.buf[d.off : d.off+width]
	d.off += width
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		return string(raw[:i]), true
	}
	return string(raw), true
}

// tagOnly decodes the 4-byte tag and confirms it matches want, advancing
// past it. Every concrete Unmarshal starts with this.
func (d *decoder) tagOnly(want Tag) bool {
	got, ok := d.uint32()
	return ok && Tag(got) == want
}
