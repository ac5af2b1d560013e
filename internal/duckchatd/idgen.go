package duckchatd

import (
	"crypto/rand"
	"encoding/binary"
)

// newMessageID draws a 64-bit value from the system entropy source, the
// same way zeromq-gyre's node generates its peer UUIDs. Uniqueness is
// probabilistic; a collision only costs one dropped hop (§4.5).
func newMessageID() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read on a real OS entropy source does not fail in
		// practice; if it ever does, fall back to zero. While 0 is in the
		// ID cache, later messages that also got the fallback ID are
		// treated as duplicates of the first one.
		return 0
	}
	return binary.LittleEndian.Uint64(b[:])
}
