// btcgw fronts a bitcoind node: REST gateway, authenticating JSON-RPC proxy,
// wallet helpers and node lifecycle commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AlexZinkM/btc-node-gateway/internal/addressbook"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/crypto"
	"github.com/AlexZinkM/btc-node-gateway/internal/logger"

	"github.com/spf13/cobra"
)

var (
	flagWallet  string
	flagRPCURL  string
	flagNetwork string
)

var rootCmd = &cobra.Command{
	Use:               "btcgw",
	Short:             "Gateway, proxy and toolbox for a bitcoind node",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWallet, "wallet", "", "wallet to route wallet RPCs to (overrides RPC_WALLET)")
	rootCmd.PersistentFlags().StringVar(&flagRPCURL, "rpc-url", "", "bitcoind RPC URL (overrides RPC_URL)")
	rootCmd.PersistentFlags().StringVar(&flagNetwork, "network", "", "mainnet, testnet3, regtest or signet (overrides BITCOIN_NETWORK)")

	rootCmd.AddCommand(
		serveCmd(),
		proxyCmd(),
		callCmd(),
		infoCmd(),
		blockCmd(),
		walletCmd(),
		addressCmd(),
		txCmd(),
		payCmd(),
		rpcauthCmd(),
		credentialsCmd(),
		nodeCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the environment, applies flag overrides and attaches a logger
// to the command context.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if flagWallet != "" {
		cfg.RPCWallet = flagWallet
	}
	if flagNetwork != "" {
		cfg.Network = flagNetwork
	}
	switch {
	case flagRPCURL != "":
		cfg.RPCURL = flagRPCURL
	case cfg.RPCCredentialsFile != "":
		// the credentials file remembers which node it belongs to
		if _, set := os.LookupEnv("RPC_URL"); !set {
			endpoint, err := crypto.ReadEndpoint(cfg.RPCCredentialsFile)
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.RPCURL = endpoint
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.Set(cfg)

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}

// unlockCredentials prompts for the credentials file password once per process.
func unlockCredentials() error {
	if config.Get().RPCCredentialsFile == "" {
		return nil
	}
	if pw, err := config.GetCredentialsPasswordBytes(); err == nil {
		clear(pw)
		return nil
	}
	return config.PromptForPassword()
}

func newClient() (*client.BitcoindClient, error) {
	if err := unlockCredentials(); err != nil {
		return nil, err
	}
	return client.NewBitcoindClientFromConfig()
}

func openBook() (*addressbook.Book, error) {
	return addressbook.Open(config.GetAddressBookPath())
}

// upstreamBase strips a /wallet/<name> suffix from the configured RPC URL.
func upstreamBase(rawURL string) string {
	base, _, _ := strings.Cut(strings.TrimRight(rawURL, "/"), "/wallet/")
	return base
}

// selectedWallet is RPC_WALLET, or the wallet named in the RPC URL path.
func selectedWallet(cfg *config.Config) string {
	if cfg.RPCWallet != "" {
		return cfg.RPCWallet
	}
	_, wallet, _ := strings.Cut(strings.TrimRight(cfg.RPCURL, "/"), "/wallet/")
	return wallet
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
