package mining

import (
	"context"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// Backend drives a single find_one search (spec §4.5) over one or more
// compute resources and returns the first match. Both the CPU pool and the
// (build-tag gated) GPU launcher implement this so the level sequencer can
// treat them uniformly -- "the GPU backend should present the same
// find_one contract as the CPU backend; the facade composes them
// uniformly" (spec §9).
type Backend interface {
	FindOne(ctx context.Context, baseSlot *big.Int, target SearchTarget, hashrate metrics.Meter) (LevelResult, error)
}

// DefaultAttemptsPerBatch is the cancellation-poll / per-dispatch range
// size worker.search uses when a caller doesn't override it. 4096 is the
// example spec §4.4 gives.
const DefaultAttemptsPerBatch = 4096

// CPUBackend fans out worker goroutines across an OS-thread pool, exactly
// as multi-geth's consensus/keccak.Seal spins up `threads` goroutines
// sharing one abort channel and one result channel -- except the shared
// "abort" here is an atomic.Bool rather than a closed channel (spec's
// one-shot result cell design, §9), since a level may be re-dispatched
// many times and channels are one-shot by nature.
type CPUBackend struct {
	// Threads is the number of worker goroutines. Zero means
	// runtime.NumCPU().
	Threads int
	// AttemptsPerBatch overrides DefaultAttemptsPerBatch when nonzero.
	AttemptsPerBatch uint64
}

func (b *CPUBackend) threads() int {
	if b.Threads > 0 {
		return b.Threads
	}
	return runtime.NumCPU()
}

func (b *CPUBackend) attemptsPerBatch() uint64 {
	if b.AttemptsPerBatch > 0 {
		return b.AttemptsPerBatch
	}
	return DefaultAttemptsPerBatch
}

// FindOne implements Backend. Workers draw disjoint nonce ranges from a
// shared atomic counter (spec §4.5's "global_counter.fetch_add(range_size)"),
// so across all workers in this call nonce ranges are pairwise disjoint
// regardless of how many batches each worker gets through before the level
// is won.
func (b *CPUBackend) FindOne(ctx context.Context, baseSlot *big.Int, target SearchTarget, hashrate metrics.Meter) (LevelResult, error) {
	threads := b.threads()
	batch := b.attemptsPerBatch()

	var counter atomic.Uint64
	counter.Store(target.NonceFloor)
	var cancelFlag atomic.Bool
	var cell resultCell
	var wg sync.WaitGroup

	logger := log.New("component", "mining.cpu", "threads", threads, "required_nibbles", target.RequiredNibbles)
	logger.Debug("starting level search")

	for id := 0; id < threads; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for !cancelFlag.Load() {
				start := counter.Add(batch) - batch
				w := &worker{
					target:   target,
					baseSlot: baseSlot,
					cfg:      WorkerConfig{StartNonce: start, Stride: 1, AttemptsPerBatch: batch},
					cancel:   &cancelFlag,
					result:   &cell,
				}
				attempts := w.search()
				if hashrate != nil {
					hashrate.Mark(int64(attempts))
				}
			}
		}(id)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		cancelFlag.Store(true)
		<-done
	}

	if res, ok := cell.load(); ok {
		logger.Debug("level search complete", "address", res.Address.Hex())
		return res, nil
	}
	return LevelResult{}, errCancelled()
}
