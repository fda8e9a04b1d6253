package protocol

// ValidateCounter reports whether candidate lies in the forward window
// incoming+1 .. incoming+CounterWindow. Arithmetic is modulo 2^16, so the
// window continues through zero after 0xFFFF. Duplicates are rejected.
func ValidateCounter(incoming, candidate uint16) bool {
	for k := uint16(1); k <= CounterWindow; k++ {
		if candidate == incoming+k {
			return true
		}
	}
	return false
}
