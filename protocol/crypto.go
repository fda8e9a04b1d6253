package protocol

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"
)

// GenerateCounter returns a random 16-bit starting counter for a new registration.
// If crypto/rand fails (rare on host), falls back to math/rand.
func GenerateCounter() uint16 {
	var b [2]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint16(b[:])
	}
	src := mrand.NewSource(time.Now().UnixNano())
	return uint16(mrand.New(src).Uint32())
}

// fillRandom overwrites b with unpredictable bytes.
func fillRandom(b []byte) {
	if _, err := crand.Read(b); err == nil {
		return
	}
	src := mrand.NewSource(time.Now().UnixNano())
	r := mrand.New(src)
	for i := range b {
		b[i] = byte(r.Intn(256))
	}
}
