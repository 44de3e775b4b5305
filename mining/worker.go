package mining

import (
	"math/big"
	"sync/atomic"

	"github.com/CPerezz/worst-case-miner/crypto/slot"
)

// candidateAddress derives 20 address bytes from a 64-bit nonce using a
// cheap linear-congruential step per byte, exactly the generator spec §4.4
// names as an acceptable choice ("s <- s*1103515245 + 12345;
// byte <- (s >> 16) & 0xFF"). It is not required to be cryptographically
// strong, only to give distinct nonces distinct addresses with overwhelming
// probability.
func candidateAddress(nonce uint64) Address {
	var addr Address
	s := nonce
	for i := range addr {
		s = s*1103515245 + 12345
		addr[i] = byte((s >> 16) & 0xff)
	}
	return addr
}

// resultCell is the per-level one-shot result slot from spec §5 / §9:
// "a compare-and-set on an option-typed atomic slot (or an equivalent
// 'claim' atomic integer guarding a write to a non-atomic slot)". claimed
// is the claim flag; value is only written once, by whichever goroutine
// wins the CompareAndSwap, so reading it after observing claimed==true is
// race-free without a mutex.
type resultCell struct {
	claimed atomic.Bool
	value   atomic.Pointer[LevelResult]
}

// tryStore attempts to become the sole winner for this level. Returns false
// if another worker already won.
func (c *resultCell) tryStore(v LevelResult) bool {
	if !c.claimed.CompareAndSwap(false, true) {
		return false
	}
	c.value.Store(&v)
	return true
}

func (c *resultCell) load() (LevelResult, bool) {
	if !c.claimed.Load() {
		return LevelResult{}, false
	}
	p := c.value.Load()
	if p == nil {
		// Claimed but the write hasn't landed yet; spin briefly rather than
		// report a false miss. In practice tryStore's Store happens right
		// after the successful CompareAndSwap so this window is tiny.
		for p == nil {
			p = c.value.Load()
		}
	}
	return *p, true
}

// worker searches one assigned nonce range for an address whose storage
// key matches target, the way multi-geth's consensus/keccak.mine searches
// a nonce range for a PoW solution (spec §4.4).
type worker struct {
	target   SearchTarget
	baseSlot *big.Int
	cfg      WorkerConfig
	cancel   *atomic.Bool
	result   *resultCell
}

// search iterates the worker's assigned range of AttemptsPerBatch nonces,
// stopping early on a match, and returns the number of hashes attempted. It
// does not read the shared cancel flag itself; the CPU scheduler re-reads it
// between ranges (the "batch boundary" from spec §5). It never errors: range
// exhaustion and cancellation are both normal, silent outcomes (spec §4.4
// Failure / §7 propagation policy) -- the caller decides what they mean.
func (w *worker) search() uint64 {
	nonce := w.cfg.StartNonce
	stride := w.cfg.Stride
	if stride == 0 {
		stride = 1
	}
	batch := w.cfg.AttemptsPerBatch
	if batch == 0 {
		batch = 1
	}

	var attempts uint64
	for attempts < batch {
		addr := candidateAddress(nonce)
		key := slot.Key(addr, w.baseSlot)
		if SharesPrefix(&key, &w.target.PrefixBytes, w.target.RequiredNibbles) {
			if w.result.tryStore(LevelResult{Address: addr, Key: key}) {
				w.cancel.Store(true)
			}
			attempts++
			return attempts
		}
		nonce += stride
		attempts++
	}
	return attempts
}
