package client

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/crypto"
)

// NewBitcoindClientFromConfig builds a client from the global configuration.
// When RPC_CREDENTIALS_FILE is set the user/password come from the encrypted
// file (password from PromptForPassword) and override RPC_USER/RPC_PASSWORD.
// Without a password RPC_COOKIE_FILE is handed to rpcclient, which rereads it
// after a node restart.
func NewBitcoindClientFromConfig() (*BitcoindClient, error) {
	cfg := config.Get()

	opts := Options{
		URL:            cfg.RPCURL,
		Wallet:         cfg.RPCWallet,
		Network:        cfg.Network,
		Timeout:        cfg.RPCTimeout,
		BlockCacheSize: cfg.BlockCacheSize,
	}
	if cfg.RPCCredentialsFile == "" && cfg.RPCPassword == "" {
		opts.User = cfg.RPCUser
		opts.CookiePath = cfg.RPCCookieFile
		return NewBitcoindClient(opts)
	}

	user, pass, err := Credentials(cfg)
	if err != nil {
		return nil, err
	}
	opts.User, opts.Password = user, pass
	return NewBitcoindClient(opts)
}

// Credentials resolves the upstream RPC user and password: the encrypted
// credentials file, RPC_USER/RPC_PASSWORD, or the node cookie file.
func Credentials(cfg *config.Config) (user, pass string, err error) {
	if cfg.RPCCredentialsFile == "" {
		if cfg.RPCPassword == "" && cfg.RPCCookieFile != "" {
			return ReadCookie(cfg.RPCCookieFile)
		}
		return cfg.RPCUser, cfg.RPCPassword, nil
	}

	password, err := config.GetCredentialsPasswordBytes()
	if err != nil {
		return "", "", err
	}
	defer clear(password)

	_, data, err := crypto.DecryptCredentials(cfg.RPCCredentialsFile, password)
	if err != nil {
		return "", "", err
	}
	return data.User, data.Password, nil
}

// ReadCookie reads the user:password line bitcoind writes to its .cookie file.
func ReadCookie(path string) (user, pass string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read rpc cookie: %w", err)
	}
	line, _, _ := bytes.Cut(data, []byte("\n"))
	u, p, ok := bytes.Cut(bytes.TrimSpace(line), []byte(":"))
	if !ok || len(u) == 0 {
		return "", "", errors.New("malformed rpc cookie: expected user:password")
	}
	return string(u), string(p), nil
}
