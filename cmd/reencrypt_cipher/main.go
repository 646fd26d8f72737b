// Rotates the password of an encrypted RPC credentials file (.cwt).
// Decrypts with the old password, re-encrypts with a fresh salt+nonce under the new one.
// Usage: go run ./cmd/reencrypt_cipher <file.cwt>
package main

import (
	"fmt"
	"os"

	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/crypto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: reencrypt_cipher <file.cwt>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("password changed")
}

func run(path string) error {
	endpoint, err := crypto.ReadEndpoint(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Credentials for %s\n", endpoint)

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

	if err := crypto.ReencryptCredentials(path, oldPassword, newPassword); err != nil {
		return fmt.Errorf("re-encrypt failed: %w", err)
	}
	return nil
}
