package node

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/testutils"
)

const authLine = "root:c9ac0ac4bdc5bc9f76a1d4e6a1ee3c3a$4ad1e5b4f4d3f0b1f2c6a7d8e9f0a1b2c3d4e5f60718293a4b5c6d7e8f901234"

func Test_RenderTestnet(t *testing.T) {
	conf := Conf{
		Network:    "testnet3",
		RPCBind:    []string{"127.0.0.1"},
		RPCAllowIP: []string{"127.0.0.1", "10.0.0.0/8"},
		RPCAuth:    []string{"rpcauth=" + authLine},
		TxIndex:    true,
	}

	got, err := conf.Render()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	want := strings.Join([]string{
		"# managed by btcgw",
		"server=1",
		"testnet=1",
		"txindex=1",
		"",
		"[test]",
		"rpcport=18332",
		"rpcbind=127.0.0.1",
		"rpcallowip=127.0.0.1",
		"rpcallowip=10.0.0.0/8",
		"rpcauth=" + authLine,
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected conf:\n%s\nwant:\n%s", got, want)
	}
}

func Test_RenderNetworks(t *testing.T) {
	tests := []struct {
		network string
		flag    string
		section string
		port    string
	}{
		{"mainnet", "", "[main]", "rpcport=8332"},
		{"regtest", "regtest=1", "[regtest]", "rpcport=18443"},
		{"signet", "signet=1", "[signet]", "rpcport=38332"},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			got, err := Conf{Network: tt.network}.Render()
			if err != nil {
				t.Fatalf("render failed: %v", err)
			}
			if tt.flag != "" && !strings.Contains(got, tt.flag+"\n") {
				t.Errorf("missing %q in:\n%s", tt.flag, got)
			}
			if tt.flag == "" && strings.Contains(got, "testnet=1") {
				t.Errorf("mainnet conf must not select testnet:\n%s", got)
			}
			if !strings.Contains(got, tt.section+"\n"+tt.port+"\n") {
				t.Errorf("missing %s %s in:\n%s", tt.section, tt.port, got)
			}
		})
	}

	got, err := Conf{Network: "testnet3", RPCPort: 18444, Extra: []string{"rpcthreads=8"}}.Render()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(got, "rpcport=18444\n") || !strings.Contains(got, "rpcthreads=8\n") {
		t.Errorf("port override or extra line missing:\n%s", got)
	}
}

func Test_Validate(t *testing.T) {
	bad := []Conf{
		{Network: "testnet"},
		{Network: "testnet3", RPCPort: 70000},
		{Network: "testnet3", RPCAllowIP: []string{"localhost"}},
		{Network: "testnet3", RPCAuth: []string{"no-separator"}},
		{Network: "testnet3", Extra: []string{"a=1\nb=2"}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func Test_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "bitcoin.conf")
	if err := (Conf{Network: "testnet3"}).WriteFile(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func Test_DaemonStartArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	d := &Daemon{
		DataDir:  "/srv/bitcoin",
		ConfPath: "/srv/bitcoin/bitcoin.conf",
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return []byte("Bitcoin Core starting\n"), nil
		},
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if gotName != "bitcoind" {
		t.Errorf("expected bitcoind, got %s", gotName)
	}
	want := []string{"-datadir=/srv/bitcoin", "-conf=/srv/bitcoin/bitcoin.conf", "-daemon"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Errorf("expected args %v, got %v", want, gotArgs)
	}
}

func Test_DaemonStartFailure(t *testing.T) {
	d := &Daemon{
		run: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("Error: Cannot obtain a lock on data directory"), errors.New("exit status 1")
		},
	}

	err := d.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Cannot obtain a lock") {
		t.Fatalf("expected error with daemon output, got %v", err)
	}
}

func Test_DaemonRunning(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not available")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false(1) not available")
	}

	running, err := (&Daemon{CLI: "true"}).Running(context.Background())
	if err != nil || !running {
		t.Fatalf("expected running, got %v %v", running, err)
	}

	running, err = (&Daemon{CLI: "false"}).Running(context.Background())
	if err != nil || running {
		t.Fatalf("expected stopped, got %v %v", running, err)
	}

	_, err = (&Daemon{CLI: "/nonexistent/bitcoin-cli"}).Running(context.Background())
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func newClient(t *testing.T, fake *testutils.FakeBitcoind) *client.BitcoindClient {
	t.Helper()
	c, err := client.NewBitcoindClient(client.Options{URL: fake.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(c.Shutdown)
	return c
}

func Test_WaitReady(t *testing.T) {
	fake := testutils.NewFakeBitcoind("", "")
	defer fake.Close()

	var calls atomic.Int32
	fake.Handle("getblockcount", func(string, []json.RawMessage) (any, *testutils.RPCError) {
		if calls.Add(1) < 3 {
			return nil, &testutils.RPCError{Code: -28, Message: "Loading block index..."}
		}
		return 2542000, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := WaitReady(ctx, newClient(t, fake), 10*time.Millisecond); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 polls, got %d", calls.Load())
	}
}

func Test_WaitReadyTimeout(t *testing.T) {
	fake := testutils.NewFakeBitcoind("", "")
	defer fake.Close()
	fake.Fail("getblockcount", -28, "Loading block index...")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := WaitReady(ctx, newClient(t, fake), 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func Test_DaemonStop(t *testing.T) {
	fake := testutils.NewFakeBitcoind("", "")
	defer fake.Close()
	fake.Result("stop", "Bitcoin Core stopping")

	d := &Daemon{}
	if err := d.Stop(context.Background(), newClient(t, fake)); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if fake.CallsTo("stop") != 1 {
		t.Error("expected one stop call")
	}
}
