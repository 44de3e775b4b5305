//go:build cuda

package mining

// GPU-accelerated backend. Follows the host/device split go-ethereum's
// Godeps OpenCL miner (ethash_opencl.go: OpenCLMiner/OpenCLDevice, one
// cgo-bound device struct per GPU, an atomic hash-rate counter, a
// mutex-guarded lifecycle) uses, swapped from OpenCL to CUDA per spec §4.5's
// "GPU backend" and §9's "Host/device boundary" design note: device memory
// is scoped per launch (allocate, copy-in, launch, synchronize, copy-out,
// free), never held across levels.
//
// The kernel itself lives in mining/cuda/kernel.cu and is built out-of-band
// by mining/cuda/Makefile into a static library the cgo directives below
// link against; `go build -tags cuda` does not invoke nvcc.

/*
#cgo LDFLAGS: -L${SRCDIR}/cuda -lgpukernel -lcudart
#include <stdint.h>
#include "cuda/kernel.h"
*/
import "C"

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// GPUBackend packages a find_one search into a kernel launch of
// Blocks*ThreadsPerBlock device threads, each performing AttemptsPerThread
// iterations before the host checks the device-resident `found` flag and,
// if unset, relaunches with an advanced start nonce (spec §4.5).
type GPUBackend struct {
	Blocks            int
	ThreadsPerBlock   int
	AttemptsPerThread uint64

	mu       sync.Mutex // serializes launches against a single device
	hashrate atomic.Uint64
}

func (b *GPUBackend) Available() bool {
	return C.gpukernel_device_count() > 0
}

func (b *GPUBackend) blocks() int {
	if b.Blocks > 0 {
		return b.Blocks
	}
	return 128
}

func (b *GPUBackend) threadsPerBlock() int {
	if b.ThreadsPerBlock > 0 {
		return b.ThreadsPerBlock
	}
	return 256
}

func (b *GPUBackend) attemptsPerThread() uint64 {
	if b.AttemptsPerThread > 0 {
		return b.AttemptsPerThread
	}
	return 1 << 14
}

// FindOne implements Backend. Each relaunch is an independent, bounded
// device-memory lifecycle: allocate the three output slots, copy in the
// target and start nonce, launch, synchronize, copy out, free. There is no
// persistent device state across calls or across relaunches within a call.
func (b *GPUBackend) FindOne(ctx context.Context, baseSlot *big.Int, target SearchTarget, hashrate metrics.Meter) (LevelResult, error) {
	if !b.Available() {
		return LevelResult{}, errBackendUnavailable("no CUDA device bound")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	logger := log.New("component", "mining.gpu", "blocks", b.blocks(), "tpb", b.threadsPerBlock())

	var slotBytes [32]byte
	if baseSlot != nil {
		baseSlot.FillBytes(slotBytes[:])
	}

	startNonce := target.NonceFloor
	perLaunch := uint64(b.blocks()) * uint64(b.threadsPerBlock()) * b.attemptsPerThread()

	for {
		select {
		case <-ctx.Done():
			return LevelResult{}, errCancelled()
		default:
		}

		var outAddr [20]byte
		var outKey [32]byte
		var found C.int

		rc := C.gpukernel_launch(
			C.int(b.blocks()),
			C.int(b.threadsPerBlock()),
			C.uint64_t(b.attemptsPerThread()),
			C.uint64_t(startNonce),
			(*C.uint8_t)(unsafe.Pointer(&target.PrefixBytes[0])),
			C.uint32_t(target.RequiredNibbles),
			(*C.uint8_t)(unsafe.Pointer(&slotBytes[0])),
			(*C.uint8_t)(unsafe.Pointer(&outAddr[0])),
			(*C.uint8_t)(unsafe.Pointer(&outKey[0])),
			(*C.int)(unsafe.Pointer(&found)),
		)
		if rc != 0 {
			stage := errFromCode(int(rc)).(*Error).Stage
			return LevelResult{}, errBackendFault(stage, fmt.Errorf("gpukernel_launch returned %d", int(rc)))
		}

		b.hashrate.Add(perLaunch)
		if hashrate != nil {
			hashrate.Mark(int64(perLaunch))
		}

		if found != 0 {
			logger.Debug("gpu search complete", "start_nonce", startNonce)
			return LevelResult{
				Address: Address(outAddr),
				Key:     StorageKey(outKey),
			}, nil
		}
		startNonce += perLaunch
	}
}

func errFromCode(code int) error {
	switch code {
	case 1:
		return errGPUMemcpy
	case 2:
		return errGPUSync
	default:
		return errGPULaunch
	}
}

var (
	errGPUMemcpy = &Error{Kind: KindBackendFault, Stage: "memcpy"}
	errGPUSync   = &Error{Kind: KindBackendFault, Stage: "sync"}
	errGPULaunch = &Error{Kind: KindBackendFault, Stage: "launch"}
)
