package main

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/crypto"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"
	"github.com/AlexZinkM/btc-node-gateway/internal/rpcauth"

	"github.com/spf13/cobra"
)

func rpcauthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rpcauth <user> [password]",
		Short: "Generate an rpcauth line for bitcoin.conf (random password when omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 2 {
				password = args[1]
			} else {
				var err error
				if password, err = rpcauth.RandomPassword(); err != nil {
					return err
				}
			}

			entry, err := rpcauth.Generate(args[0], password)
			if err != nil {
				return err
			}
			fmt.Println("String to be appended to bitcoin.conf:")
			fmt.Println("rpcauth=" + entry.String())
			fmt.Println("Your password:")
			fmt.Println(password)
			return nil
		},
	}
}

func credentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the encrypted RPC credentials file (.cwt)",
	}
	cmd.AddCommand(credentialsInitCmd(), credentialsRotateCmd())
	return cmd
}

func credentialsInitCmd() *cobra.Command {
	var user, password, endpoint string
	cmd := &cobra.Command{
		Use:   "init <file.cwt>",
		Short: "Store RPC credentials encrypted under a password and print the matching rpcauth line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if endpoint == "" {
				endpoint = upstreamBase(cfg.RPCURL)
			}
			if password == "" {
				var err error
				if password, err = rpcauth.RandomPassword(); err != nil {
					return err
				}
			}

			entry, err := rpcauth.Generate(user, password)
			if err != nil {
				return err
			}

			filePassword, err := config.ReadNewPassword()
			if err != nil {
				return err
			}
			defer clear(filePassword)

			data := &model.CredentialsData{
				User:      user,
				Password:  password,
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			}
			if err := crypto.EncryptCredentials(args[0], cfg.Network, endpoint, data, filePassword); err != nil {
				return err
			}

			fmt.Printf("Credentials for %s saved to %s\n", endpoint, args[0])
			fmt.Println("String to be appended to bitcoin.conf:")
			fmt.Println("rpcauth=" + entry.String())
			fmt.Printf("Run with RPC_CREDENTIALS_FILE=%s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "btcgw", "RPC user")
	cmd.Flags().StringVar(&password, "rpc-password", "", "RPC password (random when empty)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "bitcoind RPC URL stored with the credentials (default RPC_URL)")
	return cmd
}

func credentialsRotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <file.cwt>",
		Short: "Change the password of a credentials file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPassword, err := config.ReadPassword("Current password: ")
			if err != nil {
				return err
			}
			defer clear(oldPassword)

			newPassword, err := config.ReadNewPassword()
			if err != nil {
				return err
			}
			defer clear(newPassword)

			if err := crypto.ReencryptCredentials(args[0], oldPassword, newPassword); err != nil {
				return err
			}
			fmt.Println("password changed")
			return nil
		},
	}
}
