// Copyright 2019 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package keccak implements a single-block Keccak-f[1600] sponge tuned for
// the miner's inner loop: one 64-byte preimage absorbed, 32 bytes squeezed,
// no heap allocation.
//
// This is deliberately not the general-purpose streaming Keccak-256 found in
// golang.org/x/crypto/sha3 (which this package's tests use as the reference
// oracle for conformance): the miner never hashes more than one block, so
// the block-handling generality of a streaming hasher is pure overhead here.
package keccak

import "encoding/binary"

const (
	// rateBytes is the sponge rate for Keccak-256: (1600 - 2*256) / 8.
	rateBytes = 136
	// domainSeparator is Keccak's padding start byte, 0x01 -- NOT SHA-3's 0x06.
	domainSeparator = 0x01
)

// rotationOffsets holds the standard Keccak rho rotation amounts, indexed
// [x][y]. These are the canonical IETF/FIPS-202 offsets; a GPU permutation
// that disagrees with this table is non-conformant (see spec's Open
// Question on the reference implementation's rotation table).
var rotationOffsets = [5][5]uint{
	{0, 36, 3, 41, 18},
	{1, 44, 10, 45, 2},
	{62, 6, 43, 15, 61},
	{28, 55, 25, 21, 56},
	{27, 20, 39, 8, 14},
}

// roundConstants are the 24 iota round constants for Keccak-f[1600].
var roundConstants = [24]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

func rotl64(x uint64, n uint) uint64 {
	if n == 0 {
		return x
	}
	return (x << n) | (x >> (64 - n))
}

// permute applies the 24-round Keccak-f[1600] permutation to state in place.
//
// The loop runs the standard theta/rho/pi/chi/iota sequence once per round
// against the round-constant table above, rather than manually unrolling all
// 24 rounds: the compiler inlines and unrolls this fine in practice (the
// same tradeoff golang.org/x/crypto/sha3's pure-Go permutation makes), and
// it keeps the rotation/round-constant tables auditable against the spec
// vectors in one place.
func permute(state *[25]uint64) {
	var b [25]uint64
	var c, d [5]uint64

	for round := 0; round < 24; round++ {
		// Theta
		for x := 0; x < 5; x++ {
			c[x] = state[x] ^ state[x+5] ^ state[x+10] ^ state[x+15] ^ state[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ rotl64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			dx := d[x]
			state[x] ^= dx
			state[x+5] ^= dx
			state[x+10] ^= dx
			state[x+15] ^= dx
			state[x+20] ^= dx
		}

		// Rho + Pi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				b[y+5*((2*x+3*y)%5)] = rotl64(state[x+5*y], rotationOffsets[x][y])
			}
		}

		// Chi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				idx := x + 5*y
				state[idx] = b[idx] ^ ((^b[(x+1)%5+5*y]) & b[(x+2)%5+5*y])
			}
		}

		// Iota
		state[0] ^= roundConstants[round]
	}
}

// Block256 absorbs a single 64-byte preimage under the Keccak-256 padding
// rule and squeezes 32 bytes. This is the exact contract from spec §4.1:
// the preimage occupies bytes [0,64) of the 136-byte rate, byte 64 carries
// the 0x01 domain separator, and byte 135 is OR-ed with 0x80.
func Block256(preimage [64]byte) [32]byte {
	var block [rateBytes]byte
	copy(block[:64], preimage[:])
	block[64] = domainSeparator
	block[rateBytes-1] |= 0x80

	var state [25]uint64
	for i := 0; i < rateBytes/8; i++ {
		state[i] = binary.LittleEndian.Uint64(block[i*8 : i*8+8])
	}
	permute(&state)

	var out [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], state[i])
	}
	return out
}

// Sum256 computes the Keccak-256 digest of an arbitrary-length message. It
// is not on the miner's hot path (Block256 is) but is kept alongside it so
// callers that need to hash something other than a fixed 64-byte preimage
// -- the encoder's test harness, diagnostics -- don't have to reach for a
// second Keccak implementation.
func Sum256(data []byte) [32]byte {
	var state [25]uint64
	var buf [rateBytes]byte

	absorbBlock := func(block []byte) {
		for i := 0; i < rateBytes/8; i++ {
			state[i] ^= binary.LittleEndian.Uint64(block[i*8 : i*8+8])
		}
		permute(&state)
	}

	for len(data) >= rateBytes {
		absorbBlock(data[:rateBytes])
		data = data[rateBytes:]
	}

	for i := range buf {
		buf[i] = 0
	}
	copy(buf[:], data)
	buf[len(data)] = domainSeparator
	buf[rateBytes-1] |= 0x80
	absorbBlock(buf[:])

	var out [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], state[i])
	}
	return out
}
