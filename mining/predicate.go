package mining

// SharesPrefix reports whether a and b agree on their first `nibbles`
// leading nibbles of a 32-byte key (spec §4.3). nibbles == 0 always
// returns true.
//
// nibbles > 64 is a programming error in the caller (there are only 64
// nibbles in a 32-byte key); rather than silently saturating, which would
// mask a caller bug in the level sequencer's nibble bookkeeping, this
// panics.
func SharesPrefix(a, b *StorageKey, nibbles uint) bool {
	if nibbles > 64 {
		panic("mining: SharesPrefix: nibbles > 64")
	}
	if nibbles == 0 {
		return true
	}

	full := nibbles / 2
	half := nibbles % 2

	for i := uint(0); i < full; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	if half == 1 {
		if (a[full] >> 4) != (b[full] >> 4) {
			return false
		}
	}
	return true
}
