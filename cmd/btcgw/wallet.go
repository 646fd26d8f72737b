package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/bitcoin"
	"github.com/AlexZinkM/btc-node-gateway/internal/addressbook"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/common"
	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create, load and inspect node wallets",
	}
	cmd.AddCommand(walletInfoCmd(), walletListCmd(), walletCreateCmd(), walletLoadCmd(), walletUnloadCmd(), walletEnsureCmd())
	return cmd
}

// withClient runs fn with a connected client and shuts it down afterwards.
func withClient(fn func(c *client.BitcoindClient) error) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Shutdown()
	return fn(c)
}

func walletInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "getwalletinfo for --wallet (or the node default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				info, err := c.GetWalletInfo(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(info)
			})
		},
	}
}

func walletListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				names, err := c.ListWallets(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(names)
			})
		},
	}
}

func walletCreateCmd() *cobra.Command {
	var opts client.CreateWalletOptions
	var descriptors bool
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create and load a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("descriptors") {
				opts.Descriptors = &descriptors
			}
			return withClient(func(c *client.BitcoindClient) error {
				res, err := c.CreateWallet(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.DisablePrivateKeys, "disable-private-keys", false, "watch-only wallet")
	cmd.Flags().BoolVar(&opts.Blank, "blank", false, "create without keys or HD seed")
	cmd.Flags().StringVar(&opts.Passphrase, "passphrase", "", "encrypt the wallet with this passphrase")
	cmd.Flags().BoolVar(&opts.AvoidReuse, "avoid-reuse", false, "track and avoid address reuse")
	cmd.Flags().BoolVar(&descriptors, "descriptors", true, "descriptor wallet (node default when not given)")
	return cmd
}

func walletLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <name>",
		Short: "Load a wallet from the node wallet directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				res, err := c.LoadWallet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func walletUnloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unload <name>",
		Short: "Unload a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				if err := c.UnloadWallet(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Printf("wallet %s unloaded\n", args[0])
				return nil
			})
		},
	}
}

func walletEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <name>",
		Short: "Load a wallet, creating it when the node has none by that name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				created, err := c.EnsureWallet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if created {
					fmt.Printf("wallet %s created\n", args[0])
				} else {
					fmt.Printf("wallet %s loaded\n", args[0])
				}
				return nil
			})
		},
	}
}

func addressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Generate receiving addresses and manage the address book",
	}
	cmd.AddCommand(addressNewCmd(), addressListCmd(), addressAddCmd(), addressRemoveCmd())
	return cmd
}

func addressNewCmd() *cobra.Command {
	var label, addrType, qrOut string
	var showQR bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "getnewaddress from --wallet and record it in the address book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := openBook()
			if err != nil {
				return err
			}
			return withClient(func(c *client.BitcoindClient) error {
				res, err := bitcoin.NewAddress(cmd.Context(), c, book, label, addrType)
				if err != nil {
					return err
				}
				if qrOut != "" {
					if err := writeQR(qrOut, res.QR); err != nil {
						return err
					}
				}
				if showQR {
					qrterminal.GenerateHalfBlock("bitcoin:"+res.Address, qrterminal.L, os.Stdout)
				}
				fmt.Println(res.Address)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "address label")
	cmd.Flags().StringVar(&addrType, "type", "", "legacy, p2sh-segwit, bech32 or bech32m")
	cmd.Flags().StringVar(&qrOut, "qr", "", "write a PNG QR code of the address to this file")
	cmd.Flags().BoolVar(&showQR, "show-qr", false, "print the QR code in the terminal")
	return cmd
}

func writeQR(path, encoded string) error {
	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode QR code: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}

func addressListCmd() *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := openBook()
			if err != nil {
				return err
			}
			switch network {
			case "":
				network = config.GetNetwork()
			case "all":
				network = ""
			}
			return printJSON(book.List(network))
		},
	}
	cmd.Flags().StringVar(&network, "only", "", "network to list, \"all\" for every network (default: configured network)")
	return cmd
}

func addressAddCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Record an existing address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := openBook()
			if err != nil {
				return err
			}
			cfg := config.Get()
			entry, err := book.Add(addressbook.Entry{
				Address:   args[0],
				Label:     label,
				Wallet:    selectedWallet(cfg),
				Network:   cfg.Network,
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "address label")
	return cmd
}

func addressRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <address>",
		Short: "Forget a recorded address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := openBook()
			if err != nil {
				return err
			}
			return book.Remove(args[0])
		},
	}
}

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Fund, sign and broadcast raw transactions with the node wallet",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "fund <hex>",
			Short: "fundrawtransaction: add inputs and change",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(c *client.BitcoindClient) error {
					funded, err := bitcoin.Fund(cmd.Context(), c, bitcoin.Transaction{Hex: args[0]})
					if err != nil {
						return err
					}
					return printJSON(model.FundResponse{Hex: funded.Hex, Fee: common.SatoshisToBTC(funded.Fee), ChangePos: funded.ChangePos})
				})
			},
		},
		&cobra.Command{
			Use:   "sign <hex>",
			Short: "signrawtransactionwithwallet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(c *client.BitcoindClient) error {
					signed, err := bitcoin.Sign(cmd.Context(), c, bitcoin.Transaction{Hex: args[0]})
					if err != nil {
						return err
					}
					return printJSON(model.SignResponse{Hex: signed.Hex, Complete: true})
				})
			},
		},
		&cobra.Command{
			Use:   "send <hex>",
			Short: "sendrawtransaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(c *client.BitcoindClient) error {
					res, err := bitcoin.Broadcast(cmd.Context(), c, bitcoin.Transaction{Hex: args[0]})
					if err != nil {
						return err
					}
					return printJSON(res)
				})
			},
		},
	)
	return cmd
}

func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <address> <amount>",
		Short: "Send amount BTC from --wallet to address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.BitcoindClient) error {
				res, err := bitcoin.Pay(cmd.Context(), c, args[0], args[1], config.GetPayCooldown())
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}
