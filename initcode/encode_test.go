package initcode

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/CPerezz/worst-case-miner/mining"
)

func run(n int) []mining.LevelResult {
	out := make([]mining.LevelResult, n)
	for i := range out {
		var k common.Hash
		k[0] = byte(i + 1)
		out[i] = mining.LevelResult{
			Key:   k,
			Level: uint(i + 1),
		}
	}
	return out
}

// TestEncodeLength is spec §8 invariant 5: length == 67*N + |tail|.
func TestEncodeLength(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		code := Encode(run(n), big.NewInt(1), Options{})
		require.Equal(t, 67*n+len(tail), len(code))
	}
}

// TestEncodeDeterministic is spec §8 invariant 5's determinism clause.
func TestEncodeDeterministic(t *testing.T) {
	r := run(5)
	a := Encode(r, big.NewInt(1), Options{})
	b := Encode(r, big.NewInt(1), Options{})
	require.Equal(t, a, b)
}

// TestEncodeLayoutS3 is scenario S3.
func TestEncodeLayoutS3(t *testing.T) {
	r := run(3)
	code := Encode(r, big.NewInt(1), Options{})
	require.Len(t, code, 67*3+5)

	require.Equal(t, byte(opPUSH32), code[0])
	var marker [32]byte
	marker[31] = 1
	require.Equal(t, marker[:], code[1:33])
	require.Equal(t, byte(opPUSH32), code[33])
	require.Equal(t, r[0].Key[:], code[34:66])
	require.Equal(t, byte(opSSTORE), code[66])
}

func TestEncodeDedup(t *testing.T) {
	r := run(1)
	r = append(r, r[0], r[0]) // three entries, last two duplicate the key
	code := Encode(r, big.NewInt(1), Options{Dedup: true})
	require.Equal(t, 67*1+len(tail), len(code))

	codeNoDedup := Encode(r, big.NewInt(1), Options{})
	require.Equal(t, 67*3+len(tail), len(codeNoDedup))
}

// TestRoundTrip is spec §8 invariant 6.
func TestRoundTrip(t *testing.T) {
	r := run(4)
	marker := big.NewInt(7)
	code := Encode(r, marker, Options{})

	storage, err := Simulate(code)
	require.NoError(t, err)

	var want common.Hash
	marker.FillBytes(want[:])

	for _, res := range r {
		got, ok := storage[res.Key]
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestSimulateRejectsForeignOpcode(t *testing.T) {
	_, err := Simulate([]byte{0x01})
	require.Error(t, err)
}
