package mining

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// Summary carries the run-level reporting the facade adds on top of the
// language-neutral `mine` contract (SPEC_FULL.md's "Run summary"
// supplement): total attempts across all levels and the run's hashrate
// meter, for CLI progress reporting.
type Summary struct {
	Attempts uint64
	Hashrate metrics.Meter
}

// Mine drives levels 1..depth, each narrowing the previous level's target
// by one more required nibble, exactly as spec §4.6 describes. Level L's
// target prefix is level L-1's key (run[L-2], L>=2) with
// required_nibbles = L-1; level 1 has no constraint.
//
// Duplicate addresses across levels are rejected on sight: a duplicate
// causes that level to be re-searched from an advanced start nonce rather
// than accepted. They do occur, since every level's search starts from the
// same nonce floor and an earlier level's address always satisfies a later
// target whose prefix is that address's own key.
func Mine(ctx context.Context, depth uint32, baseSlot *big.Int, backend Backend) (MiningRun, Summary, error) {
	if depth == 0 || depth > MaxDepth {
		return nil, Summary{}, errInvalidDepth(depth)
	}
	if baseSlot == nil {
		baseSlot = BaseSlotDefault
	}

	hashrate := metrics.NewMeterForced()
	logger := log.New("component", "mining.sequencer", "depth", depth)

	run := make(MiningRun, 0, depth)
	seen := make(map[Address]struct{}, depth)

	for level := uint32(1); level <= depth; level++ {
		var target SearchTarget
		if level >= 2 {
			target = SearchTarget{
				PrefixBytes:     run[level-2].Key,
				RequiredNibbles: uint(level - 1),
			}
		}

		result, err := findUnique(ctx, backend, baseSlot, target, hashrate, seen)
		if err != nil {
			return nil, Summary{}, err
		}

		result.Level = uint(level)
		result.SharedPrefixNibbles = uint(level - 1)
		run = append(run, result)
		seen[result.Address] = struct{}{}

		logger.Debug("level committed", "level", level, "address", result.Address.Hex())
	}

	return run, Summary{Attempts: uint64(hashrate.Count()), Hashrate: hashrate}, nil
}

// findUnique calls backend.FindOne, discarding and retrying (from an
// advanced start-nonce floor) whenever the winning address was already used
// at a prior level (spec §4.5).
func findUnique(ctx context.Context, backend Backend, baseSlot *big.Int, target SearchTarget, hashrate metrics.Meter, seen map[Address]struct{}) (LevelResult, error) {
	const retryNonceStep = 1 << 20
	for {
		res, err := backend.FindOne(ctx, baseSlot, target, hashrate)
		if err != nil {
			return LevelResult{}, err
		}
		if _, dup := seen[res.Address]; !dup {
			return res, nil
		}
		target.NonceFloor += retryNonceStep
	}
}
