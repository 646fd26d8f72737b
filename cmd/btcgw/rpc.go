package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlexZinkM/btc-node-gateway/bitcoin"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/jsonrpc"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spf13/cobra"
)

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [params...]",
		Short: "Send a raw JSON-RPC request and print the node's answer as is",
		Long: `Send a raw JSON-RPC request, the way curl --data-binary would.

Each param that is valid JSON is sent verbatim, anything else as a string:
  btcgw call getblock 000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943 2
  btcgw call --wallet main getnewaddress '"tips"' bech32`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if err := unlockCredentials(); err != nil {
				return err
			}
			user, pass, err := client.Credentials(cfg)
			if err != nil {
				return err
			}
			auth := ""
			if user != "" {
				auth = user + ":" + pass
			}

			rpc := jsonrpc.New(upstreamBase(cfg.RPCURL), selectedWallet(cfg), auth, cfg.RPCTimeout)
			resp, err := rpc.Do(cmd.Context(), args[0], parseParams(args[1:])...)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "HTTP %d\n", resp.StatusCode)
			fmt.Println(indent(resp.Body))
			if resp.StatusCode != 200 {
				return fmt.Errorf("bitcoind answered with status %d", resp.StatusCode)
			}
			return nil
		},
	}
}

// parseParams keeps valid JSON as is and quotes everything else.
func parseParams(args []string) []json.RawMessage {
	params := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		if json.Valid([]byte(a)) {
			params = append(params, json.RawMessage(a))
			continue
		}
		quoted, _ := json.Marshal(a)
		params = append(params, quoted)
	}
	return params
}

func indent(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

func infoCmd() *cobra.Command {
	var withWallet bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show chain status and sync progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			status, err := bitcoin.Status(cmd.Context(), c, withWallet)
			if err != nil {
				return err
			}
			return printJSON(status)
		},
	}
	cmd.Flags().BoolVar(&withWallet, "with-wallet", false, "include getwalletinfo of the selected wallet")
	return cmd
}

func blockCmd() *cobra.Command {
	var verbosity int
	cmd := &cobra.Command{
		Use:   "block <hash|height>",
		Short: "Fetch a block by hash or height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, height, err := parseBlockRef(args[0])
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			var block json.RawMessage
			if hash != "" {
				block, err = c.GetBlock(cmd.Context(), hash, verbosity)
			} else {
				block, err = c.GetBlockByHeight(cmd.Context(), height, verbosity)
			}
			if err != nil {
				return err
			}
			fmt.Println(indent(block))
			return nil
		},
	}
	cmd.Flags().IntVarP(&verbosity, "verbosity", "v", 1, "0 hex, 1 object, 2 with transactions, 3 with prevouts")
	return cmd
}

// parseBlockRef tells a block hash from a height.
func parseBlockRef(ref string) (hash string, height int64, err error) {
	if len(ref) == chainhash.MaxHashStringSize {
		if _, err := chainhash.NewHashFromStr(ref); err != nil {
			return "", 0, fmt.Errorf("invalid block hash: %w", err)
		}
		return ref, 0, nil
	}
	height, err = strconv.ParseInt(ref, 10, 64)
	if err != nil || height < 0 {
		return "", 0, errors.New("expected a 64 character block hash or a non-negative height")
	}
	return "", height, nil
}
