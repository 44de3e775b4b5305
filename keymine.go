// Package keymine is the entry facade from spec §6: the public `mine` and
// `encode_initcode` operations, and the glue that turns a backend hint into
// a concrete mining.Backend (spec §4.5's "Auto selection").
package keymine

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/CPerezz/worst-case-miner/initcode"
	"github.com/CPerezz/worst-case-miner/mining"
)

// BackendKind selects which compute resource(s) a BackendHint describes.
type BackendKind int

const (
	// BackendCPU forces the OS-thread pool backend.
	BackendCPU BackendKind = iota
	// BackendGPU forces the device backend, failing with BackendUnavailable
	// rather than downgrading if no device is bound.
	BackendGPU
	// BackendAuto picks GPU when available and a level's required nibble
	// count meets GPUNibbleThreshold, CPU otherwise (spec §4.5).
	BackendAuto
)

// DefaultGPUNibbleThreshold is the policy threshold spec §4.5 suggests (8).
const DefaultGPUNibbleThreshold = 8

// BackendHint converts into a mining.Backend by Mine. Zero value is
// BackendCPU with runtime.NumCPU() threads.
type BackendHint struct {
	Kind BackendKind

	// CPU backend tuning.
	Threads          int
	AttemptsPerBatch uint64

	// GPU backend tuning.
	Blocks            int
	ThreadsPerBlock   int
	AttemptsPerThread uint64

	// GPUNibbleThreshold overrides DefaultGPUNibbleThreshold for
	// BackendAuto.
	GPUNibbleThreshold int
}

func (h BackendHint) cpu() *mining.CPUBackend {
	return &mining.CPUBackend{Threads: h.Threads, AttemptsPerBatch: h.AttemptsPerBatch}
}

func (h BackendHint) gpu() *mining.GPUBackend {
	return &mining.GPUBackend{
		Blocks:            h.Blocks,
		ThreadsPerBlock:   h.ThreadsPerBlock,
		AttemptsPerThread: h.AttemptsPerThread,
	}
}

func (h BackendHint) threshold() int {
	if h.GPUNibbleThreshold > 0 {
		return h.GPUNibbleThreshold
	}
	return DefaultGPUNibbleThreshold
}

func (h BackendHint) resolve() mining.Backend {
	switch h.Kind {
	case BackendGPU:
		return h.gpu()
	case BackendAuto:
		return &autoBackend{cpu: h.cpu(), gpu: h.gpu(), threshold: uint(h.threshold())}
	default:
		return h.cpu()
	}
}

// autoBackend implements mining.Backend, dispatching each level to GPU or
// CPU based on that level's required nibble count (spec §4.5's hint, not a
// contract: it may change its mind every level).
type autoBackend struct {
	cpu       *mining.CPUBackend
	gpu       *mining.GPUBackend
	threshold uint
}

func (b *autoBackend) FindOne(ctx context.Context, baseSlot *big.Int, target mining.SearchTarget, hashrate metrics.Meter) (mining.LevelResult, error) {
	if b.gpu.Available() && target.RequiredNibbles >= b.threshold {
		res, err := b.gpu.FindOne(ctx, baseSlot, target, hashrate)
		if err == nil {
			return res, nil
		}
		var minerErr *mining.Error
		if errors.As(err, &minerErr) && minerErr.Kind == mining.KindBackendUnavailable {
			log.Warn("gpu backend unavailable, downgrading to cpu", "required_nibbles", target.RequiredNibbles)
		} else {
			return mining.LevelResult{}, err
		}
	}
	return b.cpu.FindOne(ctx, baseSlot, target, hashrate)
}

// Mine is the public operation from spec §6:
//
//	mine(depth, base_slot=0, backend) -> [(address, storage_key)]
//
// baseSlot defaults to 0 when nil. The returned mining.Summary is an
// additional, Go-native return value (SPEC_FULL.md's "Run summary"
// supplement); it does not change the ordered-result contract.
func Mine(ctx context.Context, depth uint32, baseSlot *big.Int, hint BackendHint) (mining.MiningRun, mining.Summary, error) {
	return mining.Mine(ctx, depth, baseSlot, hint.resolve())
}

// EncodeInitcode is the public operation from spec §6:
//
//	encode_initcode(results, marker=1) -> bytes
func EncodeInitcode(results mining.MiningRun, marker *big.Int, opts initcode.Options) []byte {
	return initcode.Encode(results, marker, opts)
}
