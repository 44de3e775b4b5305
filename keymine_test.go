package keymine

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CPerezz/worst-case-miner/initcode"
	"github.com/CPerezz/worst-case-miner/mining"
)

func TestMineEndToEndCPU(t *testing.T) {
	run, summary, err := Mine(context.Background(), 3, nil, BackendHint{Kind: BackendCPU, Threads: 2, AttemptsPerBatch: 64})
	require.NoError(t, err)
	require.Len(t, run, 3)
	require.GreaterOrEqual(t, summary.Attempts, uint64(1))
}

// TestMineAutoDowngradesWithoutGPU exercises the facade's BackendAuto path
// on a build without a bound GPU device: it must transparently fall back
// to CPU rather than surfacing BackendUnavailable to the caller (spec §7).
func TestMineAutoDowngradesWithoutGPU(t *testing.T) {
	run, _, err := Mine(context.Background(), 2, nil, BackendHint{Kind: BackendAuto, Threads: 2, AttemptsPerBatch: 64, GPUNibbleThreshold: 1})
	require.NoError(t, err)
	require.Len(t, run, 2)
}

func TestMineThenEncodeRoundTrip(t *testing.T) {
	run, _, err := Mine(context.Background(), 2, nil, BackendHint{Kind: BackendCPU, Threads: 1, AttemptsPerBatch: 64})
	require.NoError(t, err)

	code := EncodeInitcode(run, big.NewInt(1), initcode.Options{})
	storage, err := initcode.Simulate(code)
	require.NoError(t, err)

	var want [32]byte
	want[31] = 1
	for _, r := range run {
		require.Equal(t, want[:], storage[r.Key][:])
	}
}

func TestBackendGPUForcedWithoutDeviceErrors(t *testing.T) {
	_, _, err := Mine(context.Background(), 1, nil, BackendHint{Kind: BackendGPU})
	require.Error(t, err)
	var minerErr *mining.Error
	require.ErrorAs(t, err, &minerErr)
	require.Equal(t, mining.KindBackendUnavailable, minerErr.Kind)
}
