package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/node"

	"github.com/spf13/cobra"
)

type daemonFlags struct {
	bitcoind string
	cli      string
	dataDir  string
	conf     string
}

func (f *daemonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bitcoind, "bitcoind", "", "bitcoind binary (default from PATH)")
	cmd.Flags().StringVar(&f.cli, "cli", "", "bitcoin-cli binary (default from PATH)")
	cmd.Flags().StringVar(&f.dataDir, "datadir", "", "bitcoind data directory")
	cmd.Flags().StringVar(&f.conf, "conf", "", "bitcoin.conf path")
}

func (f *daemonFlags) daemon() *node.Daemon {
	return &node.Daemon{Bitcoind: f.bitcoind, CLI: f.cli, DataDir: f.dataDir, ConfPath: f.conf}
}

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Write bitcoin.conf and start, stop or probe a local bitcoind",
	}
	cmd.AddCommand(nodeConfCmd(), nodeStartCmd(), nodeStopCmd(), nodeStatusCmd())
	return cmd
}

func nodeConfCmd() *cobra.Command {
	var conf node.Conf
	var out string
	cmd := &cobra.Command{
		Use:   "conf",
		Short: "Render bitcoin.conf for the configured network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf.Network = config.GetNetwork()
			if out == "" {
				content, err := conf.Render()
				if err != nil {
					return err
				}
				fmt.Print(content)
				return nil
			}
			if err := conf.WriteFile(out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().IntVar(&conf.RPCPort, "rpcport", 0, "RPC port (network default when 0)")
	cmd.Flags().StringSliceVar(&conf.RPCBind, "rpcbind", []string{"127.0.0.1"}, "RPC bind addresses")
	cmd.Flags().StringSliceVar(&conf.RPCAllowIP, "rpcallowip", []string{"127.0.0.1"}, "IPs or subnets allowed to use RPC")
	cmd.Flags().StringArrayVar(&conf.RPCAuth, "rpcauth", nil, "user:salt$hmac line, see btcgw rpcauth")
	cmd.Flags().BoolVar(&conf.TxIndex, "txindex", false, "maintain a full transaction index")
	cmd.Flags().StringArrayVar(&conf.Extra, "extra", nil, "raw option line for the network section")
	return cmd
}

func nodeStartCmd() *cobra.Command {
	var flags daemonFlags
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start bitcoind in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.daemon().Start(cmd.Context()); err != nil {
				return err
			}
			if wait <= 0 {
				return nil
			}

			return withClient(func(c *client.BitcoindClient) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), wait)
				defer cancel()
				return node.WaitReady(ctx, c, time.Second)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&wait, "wait", 0, "wait this long for the RPC server to answer")
	return cmd
}

func nodeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask bitcoind to shut down over RPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				return (&node.Daemon{}).Stop(cmd.Context(), c)
			})
		},
	}
}

func nodeStatusCmd() *cobra.Command {
	var flags daemonFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether bitcoin-cli reaches the node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			running, err := flags.daemon().Running(cmd.Context())
			if err != nil {
				return err
			}
			if running {
				fmt.Println("running")
			} else {
				fmt.Println("stopped")
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
