// Package initcode serialises a mined run into the deployment bytecode
// described in spec §4.7/§6: one PUSH32-value/PUSH32-key/SSTORE triple per
// result, followed by a tail that returns zero-length runtime code.
package initcode

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/CPerezz/worst-case-miner/mining"
)

const (
	opPUSH1  = 0x60
	opPUSH32 = 0x7f
	opSSTORE = 0x55
	opRETURN = 0xf3
)

// tail is the minimal "return zero-length runtime code" sequence from spec
// §6: PUSH1 0 PUSH1 0 RETURN.
var tail = []byte{opPUSH1, 0x00, opPUSH1, 0x00, opRETURN}

// DefaultMarker is the value written into every mined storage key (spec §6
// default marker=1).
var DefaultMarker = big.NewInt(1)

// Options controls optional encoder behavior beyond the bit-exact default
// layout.
type Options struct {
	// Dedup collapses consecutive identical keys into a single triple
	// (spec §4.7: "MAY deduplicate consecutive identical keys"). Off by
	// default, which keeps the literal invariant-5 length formula
	// 67*len(results) + len(tail) intact.
	Dedup bool
}

// Encode serialises results into deployment bytecode that writes marker
// into each result's storage key (spec §4.7). It is pure and deterministic:
// identical inputs always yield identical output, regardless of which
// backend produced the results.
func Encode(results []mining.LevelResult, marker *big.Int, opts Options) []byte {
	if marker == nil {
		marker = DefaultMarker
	}
	var markerBytes [32]byte
	marker.FillBytes(markerBytes[:])

	out := make([]byte, 0, 67*len(results)+len(tail))

	var lastKey common.Hash
	haveLast := false
	for _, r := range results {
		if opts.Dedup && haveLast && r.Key == lastKey {
			continue
		}
		out = append(out, opPUSH32)
		out = append(out, markerBytes[:]...)
		out = append(out, opPUSH32)
		out = append(out, r.Key[:]...)
		out = append(out, opSSTORE)

		lastKey = r.Key
		haveLast = true
	}
	out = append(out, tail...)
	return out
}
