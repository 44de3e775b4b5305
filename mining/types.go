// Package mining implements the sequential prefix-extension search: the
// worker/scheduler/sequencer core described in spec §4.4-§4.6, modelled on
// multi-geth's consensus/keccak package (itself a PoW sealer: a struct
// holding thread count, an update channel, and a metrics.Meter hashrate,
// fanning out worker goroutines that race to write a one-shot result and
// cancel their peers). Here the "proof of work" a worker searches for is a
// storage-key nibble-prefix match instead of a difficulty target.
package mining

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte account identifier. It is an alias of
// common.Address so the mining/encoding packages interoperate directly with
// the rest of the go-ethereum-derived toolchain (hexutil formatting,
// common.LeftPadBytes, etc.) without a conversion at every boundary.
type Address = common.Address

// StorageKey is the 32-byte output of the slot hash. Alias of common.Hash
// for the same interoperability reason as Address.
type StorageKey = common.Hash

// LevelResult is one entry of a MiningRun: the address and storage key
// found for a given level, and how many leading nibbles that key shares
// with the previous level's key (spec §3).
type LevelResult struct {
	Address             Address
	Key                 StorageKey
	Level               uint
	SharedPrefixNibbles uint
}

// MiningRun is the ordered output of Mine: one LevelResult per level,
// index i satisfying the invariants in spec §3.
type MiningRun []LevelResult

// SearchTarget is the prefix a candidate's storage key must match, and how
// many of its leading nibbles are required to match (spec §3). NonceFloor
// is not part of the language-neutral spec contract; it lets the sequencer
// re-run a level from a fresh part of the nonce space after discarding a
// duplicate-address result (spec §4.5), without which a deterministic
// backend would simply rediscover the same winner.
type SearchTarget struct {
	PrefixBytes     StorageKey
	RequiredNibbles uint
	NonceFloor      uint64
}

// WorkerConfig assigns a worker its half-open slice of the 64-bit nonce
// space (spec §3): nonces [StartNonce, StartNonce+Stride*AttemptsPerBatch)
// are this worker's to try before it re-requests a range.
type WorkerConfig struct {
	StartNonce       uint64
	Stride           uint64
	AttemptsPerBatch uint64
}

// BaseSlotDefault is the default ERC20 balance-mapping slot index (spec §9c).
var BaseSlotDefault = new(big.Int)
