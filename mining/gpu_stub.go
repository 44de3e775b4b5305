//go:build !cuda

package mining

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/metrics"
)

// GPUBackend is the device-accelerated Backend from spec §4.5. This build
// (no `cuda` build tag) is the default: it reports the device as
// unavailable rather than silently falling back, so the facade's
// auto-selection logic (spec §4.5 "Auto selection") picks CPU instead and a
// forced GPU request fails with BackendUnavailable. Build with `-tags cuda`
// against a host with the CUDA toolchain and mining/cuda/kernel.cu compiled
// (see mining/cuda/Makefile)
// to get the real kernel-backed implementation in gpu_cuda.go.
type GPUBackend struct {
	Blocks            int
	ThreadsPerBlock   int
	AttemptsPerThread uint64
}

// Available reports whether this build can actually launch a kernel.
func (b *GPUBackend) Available() bool { return false }

func (b *GPUBackend) FindOne(ctx context.Context, baseSlot *big.Int, target SearchTarget, hashrate metrics.Meter) (LevelResult, error) {
	return LevelResult{}, errBackendUnavailable("built without the cuda tag; no GPU device bound")
}
