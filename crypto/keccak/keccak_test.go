package keccak

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

// TestEmptyVector checks the canonical Keccak-256 vector for the empty
// string, pinned in spec §8 invariant 1.
func TestEmptyVector(t *testing.T) {
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	got := Sum256(nil)
	require.Equal(t, want, hex.EncodeToString(got[:]))
}

// TestAgainstReference cross-checks Sum256 against golang.org/x/crypto/sha3's
// legacy Keccak-256 for a spread of message lengths straddling block
// boundaries, satisfying spec §8 invariant 1's "five additional vectors"
// requirement generatively rather than by a fixed table.
func TestAgainstReference(t *testing.T) {
	lengths := []int{0, 1, 31, 32, 63, 64, 135, 136, 137, 300, 1000}
	for _, n := range lengths {
		msg := make([]byte, n)
		for i := range msg {
			msg[i] = byte(i*7 + 1)
		}

		h := sha3.NewLegacyKeccak256()
		h.Write(msg)
		want := h.Sum(nil)

		got := Sum256(msg)
		require.Equalf(t, hex.EncodeToString(want), hex.EncodeToString(got[:]), "length %d", n)
	}
}

// TestBlock256MatchesSum256 ensures the fixed 64-byte fast path agrees with
// the general absorber on a sample 64-byte message.
func TestBlock256MatchesSum256(t *testing.T) {
	var preimage [64]byte
	for i := range preimage {
		preimage[i] = byte(i * 3)
	}

	want := Sum256(preimage[:])
	got := Block256(preimage)
	require.Equal(t, want, got)
}

func TestBlock256AgainstReference(t *testing.T) {
	var preimage [64]byte
	copy(preimage[12:32], []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1})

	h := sha3.NewLegacyKeccak256()
	h.Write(preimage[:])
	want := h.Sum(nil)

	got := Block256(preimage)
	require.Equal(t, hex.EncodeToString(want), hex.EncodeToString(got[:]))
}
