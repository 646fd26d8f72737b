// Package node manages a local bitcoind: it renders bitcoin.conf and starts,
// stops and probes the daemon.
package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AlexZinkM/btc-node-gateway/internal/rpcauth"
)

// network describes how a network is selected in bitcoin.conf.
type network struct {
	flag    string // top-level switch, empty for mainnet
	section string // section holding the network-only options
	rpcPort int    // bitcoind default RPC port
}

var networks = map[string]network{
	"mainnet":  {flag: "", section: "main", rpcPort: 8332},
	"testnet3": {flag: "testnet", section: "test", rpcPort: 18332},
	"regtest":  {flag: "regtest", section: "regtest", rpcPort: 18443},
	"signet":   {flag: "signet", section: "signet", rpcPort: 38332},
}

// DefaultRPCPort returns the RPC port bitcoind listens on for name, or 0
// for an unknown network.
func DefaultRPCPort(name string) int {
	return networks[name].rpcPort
}

// Conf is the subset of bitcoin.conf the gateway manages.
//
// Network-specific options (rpcport, rpcbind, rpcallowip) must live in the
// network section of the file since Bitcoin Core 0.17, otherwise they are
// ignored for testnet. Render takes care of that placement.
type Conf struct {
	// Network is one of mainnet, testnet3, regtest, signet.
	Network string

	// RPCPort defaults to the network's standard port when zero.
	RPCPort int

	// RPCBind lists the addresses the RPC server binds to.
	RPCBind []string

	// RPCAllowIP lists the IPs or subnets allowed to connect.
	RPCAllowIP []string

	// RPCAuth holds user:salt$hmac lines, see the rpcauth package.
	RPCAuth []string

	// TxIndex maintains a full transaction index (getrawtransaction for any txid).
	TxIndex bool

	// Extra lines are appended verbatim to the network section.
	Extra []string
}

// Validate checks the values Render would write.
func (c Conf) Validate() error {
	if _, ok := networks[c.Network]; !ok {
		return fmt.Errorf("unknown network %q", c.Network)
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		return fmt.Errorf("invalid rpc port %d", c.RPCPort)
	}
	for _, ip := range c.RPCAllowIP {
		if net.ParseIP(ip) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(ip); err != nil {
			return fmt.Errorf("invalid rpcallowip %q", ip)
		}
	}
	for _, line := range c.RPCAuth {
		if _, err := rpcauth.Parse(line); err != nil {
			return err
		}
	}
	for _, line := range c.Extra {
		if strings.ContainsAny(line, "\r\n") {
			return errors.New("extra conf lines must not contain newlines")
		}
	}
	return nil
}

// Render returns the bitcoin.conf contents.
func (c Conf) Render() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	n := networks[c.Network]

	port := c.RPCPort
	if port == 0 {
		port = n.rpcPort
	}

	var b strings.Builder
	b.WriteString("# managed by btcgw\n")
	b.WriteString("server=1\n")
	if n.flag != "" {
		b.WriteString(n.flag + "=1\n")
	}
	if c.TxIndex {
		b.WriteString("txindex=1\n")
	}

	b.WriteString("\n[" + n.section + "]\n")
	b.WriteString("rpcport=" + strconv.Itoa(port) + "\n")
	for _, addr := range c.RPCBind {
		b.WriteString("rpcbind=" + addr + "\n")
	}
	for _, ip := range c.RPCAllowIP {
		b.WriteString("rpcallowip=" + ip + "\n")
	}
	for _, line := range c.RPCAuth {
		b.WriteString("rpcauth=" + strings.TrimPrefix(strings.TrimSpace(line), "rpcauth=") + "\n")
	}
	for _, line := range c.Extra {
		b.WriteString(line + "\n")
	}
	return b.String(), nil
}

// WriteFile renders c to path with mode 0600, creating parent directories.
func (c Conf) WriteFile(path string) error {
	content, err := c.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
