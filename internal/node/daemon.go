package node

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/client"

	"github.com/rs/zerolog"
)

// runner executes a command and returns its combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Daemon controls a bitcoind process through its binaries.
//
// Operations are serialized, bitcoind holds a lock on the data directory.
type Daemon struct {
	// Bitcoind is the daemon binary, "bitcoind" when empty.
	Bitcoind string

	// CLI is the bitcoin-cli binary, "bitcoin-cli" when empty.
	CLI string

	// DataDir is passed as -datadir when set.
	DataDir string

	// ConfPath is passed as -conf when set.
	ConfPath string

	mu  sync.Mutex
	run runner
}

func (d *Daemon) runner() runner {
	if d.run == nil {
		return execRunner
	}
	return d.run
}

func (d *Daemon) args(extra ...string) []string {
	var args []string
	if d.DataDir != "" {
		args = append(args, "-datadir="+d.DataDir)
	}
	if d.ConfPath != "" {
		args = append(args, "-conf="+d.ConfPath)
	}
	return append(args, extra...)
}

// Start launches bitcoind in the background (-daemon). It returns once the
// process has forked; use WaitReady to wait for the RPC server.
//
// Example:
//
//	d := &node.Daemon{DataDir: "/srv/bitcoin", ConfPath: "/srv/bitcoin/bitcoin.conf"}
//	if err := d.Start(ctx); err != nil {
//	    return err
//	}
//	if err := node.WaitReady(ctx, rpc, time.Second); err != nil {
//	    return err
//	}
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bin := d.Bitcoind
	if bin == "" {
		bin = "bitcoind"
	}

	output, err := d.runner()(ctx, bin, d.args("-daemon")...)
	if err != nil {
		return fmt.Errorf("failed to start bitcoind: %w: %s", err, strings.TrimSpace(string(output)))
	}

	zerolog.Ctx(ctx).Info().Str("datadir", d.DataDir).Msg("bitcoind started")
	return nil
}

// Running reports whether the node answers getblockchaininfo through
// bitcoin-cli. A non-zero exit code means not running; failing to execute
// bitcoin-cli at all is an error.
func (d *Daemon) Running(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bin := d.CLI
	if bin == "" {
		bin = "bitcoin-cli"
	}

	_, err := d.runner()(ctx, bin, d.args("getblockchaininfo")...)
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check bitcoind status: %w", err)
}

// Stop asks the node to shut down over RPC.
func (d *Daemon) Stop(ctx context.Context, c *client.BitcoindClient) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := c.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop bitcoind: %w", err)
	}

	zerolog.Ctx(ctx).Info().Msg("bitcoind stopping")
	return nil
}

// WaitReady polls getblockcount every interval until it succeeds or ctx is done.
// While the node loads its block index it answers with RPC_IN_WARMUP, which is
// treated like any other failure here.
func WaitReady(ctx context.Context, c *client.BitcoindClient, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := zerolog.Ctx(ctx)
	for {
		height, err := c.GetBlockCount(ctx)
		if err == nil {
			log.Info().Int64("height", height).Msg("bitcoind ready")
			return nil
		}
		log.Debug().Err(err).Msg("bitcoind not ready yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("bitcoind not ready: %w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
