// Command keymine is the CLI surface from spec §6: an external collaborator
// around the keymine package's core, handling argument parsing, progress
// reporting, and exit codes -- none of which are part of the mining
// contract itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"gopkg.in/urfave/cli.v1"

	"github.com/CPerezz/worst-case-miner/initcode"
	"github.com/CPerezz/worst-case-miner/keymine"
	"github.com/CPerezz/worst-case-miner/mining"
)

// asMinerError unwraps err looking for a *mining.Error, the typed failure
// the core surfaces for invalid depth, cancellation, and backend faults
// (spec §6's "non-zero on argument error or backend failure").
func asMinerError(err error) (*mining.Error, bool) {
	var merr *mining.Error
	if errors.As(err, &merr) {
		return merr, true
	}
	return nil, false
}

// exitCodeFor maps a mining.Error's Kind to a process exit code: 2 for
// caller mistakes (bad depth), 1 for everything else (cancellation,
// backend unavailability or fault).
func exitCodeFor(merr *mining.Error) int {
	if merr.Kind == mining.KindInvalidDepth {
		return 2
	}
	return 1
}

func main() {
	app := cli.NewApp()
	app.Name = "keymine"
	app.Usage = "mine a chain of addresses whose storage keys share a growing nibble prefix"
	app.Flags = []cli.Flag{
		cli.UintFlag{Name: "depth", Usage: "number of prefix-extension levels to mine (required, >=1)"},
		cli.UintFlag{Name: "threads", Usage: "CPU worker threads (0 = host CPU count)"},
		cli.BoolFlag{Name: "cuda", Usage: "opt in to the GPU backend when depth's leading level needs >= gpu-threshold nibbles and a device is bound"},
		cli.UintFlag{Name: "gpu-threshold", Value: keymine.DefaultGPUNibbleThreshold, Usage: "required-nibble threshold for --cuda auto-selection"},
		cli.Uint64Flag{Name: "slot", Usage: "balance-mapping slot index"},
		cli.Uint64Flag{Name: "marker", Value: 1, Usage: "value written into every mined storage key"},
		cli.StringFlag{Name: "out", Usage: "write the encoded initcode (hex) to this file instead of stdout"},
		cli.BoolFlag{Name: "dedup", Usage: "collapse consecutive identical keys in the encoder output"},
		cli.BoolFlag{Name: "verify", Usage: "replay the encoded initcode locally and confirm every mined key now holds the marker"},
		cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace|debug|info|warn|error|crit"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "keymine:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	lvl, err := log.LvlFromString(c.String("log-level"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("invalid --log-level: %v", err), 2)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat(false))))

	depth := c.Uint("depth")
	if depth == 0 {
		return cli.NewExitError("--depth is required and must be >=1", 2)
	}

	hint := keymine.BackendHint{
		Kind:               keymine.BackendCPU,
		Threads:            int(c.Uint("threads")),
		GPUNibbleThreshold: int(c.Uint("gpu-threshold")),
	}
	if c.Bool("cuda") {
		hint.Kind = keymine.BackendAuto
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		log.Warn("interrupt received, cancelling mining run")
		cancel()
	}()

	bars := mpb.New(mpb.WithWidth(48))
	started := time.Now()

	slot := new(big.Int).SetUint64(c.Uint64("slot"))
	chain, summary, err := mineWithProgress(ctx, uint32(depth), slot, hint, bars)
	bars.Wait()
	if err != nil {
		if merr, ok := asMinerError(err); ok {
			return cli.NewExitError(fmt.Sprintf("mining failed: %s", merr), exitCodeFor(merr))
		}
		return cli.NewExitError(fmt.Sprintf("mining failed: %v", err), 1)
	}

	log.Info("mining complete", "depth", depth, "elapsed", time.Since(started), "attempts", summary.Attempts)

	marker := new(big.Int).SetUint64(c.Uint64("marker"))
	code := keymine.EncodeInitcode(chain, marker, initcode.Options{Dedup: c.Bool("dedup")})

	if c.Bool("verify") {
		storage, err := initcode.Simulate(code)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("verify: simulate failed: %v", err), 1)
		}
		var want [32]byte
		marker.FillBytes(want[:])
		for _, r := range chain {
			if storage[r.Key] != want {
				return cli.NewExitError(fmt.Sprintf("verify: key %s did not hold the marker", r.Key.Hex()), 1)
			}
		}
		log.Info("verify ok", "levels", len(chain))
	}

	encoded := hexutil.Encode(code)
	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(encoded), 0o644); err != nil {
			return cli.NewExitError(fmt.Sprintf("writing --out: %v", err), 1)
		}
	} else {
		fmt.Println(encoded)
	}

	for _, r := range chain {
		fmt.Fprintf(os.Stderr, "level %2d  shared=%-2d  address=%s  key=%s\n",
			r.Level, r.SharedPrefixNibbles, r.Address.Hex(), r.Key.Hex())
	}
	return nil
}

// mineWithProgress runs keymine.Mine on a background goroutine and drives a
// single indeterminate spinner while it works -- the mining contract itself
// has no notion of a progress callback (spec §1: progress logging is an
// external collaborator, not re-specified by the core), so this is the
// CLI's own bookkeeping layered on top, the way the data-miner example's
// mpb bar tracks an otherwise opaque worker pool.
func mineWithProgress(ctx context.Context, depth uint32, baseSlot *big.Int, hint keymine.BackendHint, bars *mpb.Progress) (mining.MiningRun, mining.Summary, error) {
	bar := bars.AddSpinner(1,
		mpb.PrependDecorators(decor.Name(fmt.Sprintf("mining %d level(s)", depth))),
		mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
	)

	type outcome struct {
		run     mining.MiningRun
		summary mining.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		run, summary, err := keymine.Mine(ctx, depth, baseSlot, hint)
		done <- outcome{run, summary, err}
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case o := <-done:
			bar.Increment()
			bar.Abort(false)
			return o.run, o.summary, o.err
		case <-ticker.C:
			// keep the spinner alive while the background search runs
		}
	}
}
