// Package slot builds the 32-byte storage key for an ERC20-style balance
// mapping entry: keccak256(left-pad32(address) || left-pad32(mappingSlot)).
//
// The construction mirrors the by-hand version in the geth storage-slot
// tutorial example: pad the mapping key and the base slot to 32 bytes each,
// concatenate, and hash -- except here the concatenation is done directly
// into a stack-allocated 64-byte preimage and handed to keccak.Block256
// rather than through a streaming hash.Hash, since the preimage is always
// exactly one block.
package slot

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/CPerezz/worst-case-miner/crypto/keccak"
)

// Key computes the storage key for address under mapping slot index slot.
// Bytes [0,12) are zero, [12,32) hold the address, and [32,64) hold slot as
// a big-endian 32-byte integer -- the bit-exact preimage layout from spec §6.
func Key(address common.Address, slot *big.Int) common.Hash {
	var preimage [64]byte
	copy(preimage[12:32], address[:])

	if slot != nil {
		slot.FillBytes(preimage[32:64])
	}

	digest := keccak.Block256(preimage)
	return common.BytesToHash(digest[:])
}

// ZeroSlot is the default mapping-slot index used by an ERC20 balance map,
// and the default the miner and CLI use when no --slot is supplied.
var ZeroSlot = new(big.Int)
