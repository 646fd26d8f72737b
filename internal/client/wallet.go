package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexZinkM/btc-node-gateway/internal/common"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// address types accepted by getnewaddress
var addressTypes = map[string]bool{
	"":            true,
	"legacy":      true,
	"p2sh-segwit": true,
	"bech32":      true,
	"bech32m":     true,
}

// CreateWalletOptions mirrors the createwallet positional arguments.
type CreateWalletOptions struct {
	DisablePrivateKeys bool
	Blank              bool
	Passphrase         string
	AvoidReuse         bool
	Descriptors        *bool
}

// CreateWallet creates and loads a new wallet.
func (c *BitcoindClient) CreateWallet(ctx context.Context, name string, opts CreateWalletOptions) (*model.WalletResponse, error) {
	if err := validateWalletName(name); err != nil {
		return nil, err
	}
	params := []any{name, opts.DisablePrivateKeys, opts.Blank, opts.Passphrase, opts.AvoidReuse}
	if opts.Descriptors != nil {
		params = append(params, *opts.Descriptors)
	}

	var res model.WalletResponse
	if err := c.rawInto(ctx, &res, "createwallet", params...); err != nil {
		return nil, err
	}
	return &res, nil
}

// LoadWallet loads a wallet from the node's wallet directory.
func (c *BitcoindClient) LoadWallet(ctx context.Context, name string) (*model.WalletResponse, error) {
	if err := validateWalletName(name); err != nil {
		return nil, err
	}
	var res model.WalletResponse
	if err := c.rawInto(ctx, &res, "loadwallet", name); err != nil {
		return nil, err
	}
	return &res, nil
}

// UnloadWallet unloads name from the node.
func (c *BitcoindClient) UnloadWallet(ctx context.Context, name string) error {
	if err := validateWalletName(name); err != nil {
		return err
	}
	_, err := c.raw(ctx, "unloadwallet", name)
	return err
}

// ListWallets returns the names of the currently loaded wallets.
func (c *BitcoindClient) ListWallets(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.rawInto(ctx, &names, "listwallets"); err != nil {
		return nil, err
	}
	return names, nil
}

// EnsureWallet makes sure name is loaded, creating it when the node has no such wallet.
// Returns true if the wallet was created.
func (c *BitcoindClient) EnsureWallet(ctx context.Context, name string) (bool, error) {
	_, err := c.LoadWallet(ctx, name)
	switch {
	case err == nil:
		return false, nil

	case ErrorCode(err) == CodeWalletAlreadyLoaded:
		return false, nil

	case ErrorCode(err) == CodeWalletNotFound:
		if _, err := c.CreateWallet(ctx, name, CreateWalletOptions{}); err != nil {
			return false, fmt.Errorf("failed to create wallet %q: %w", name, err)
		}
		return true, nil

	default:
		return false, fmt.Errorf("failed to load wallet %q: %w", name, err)
	}
}

// GetWalletInfo returns getwalletinfo for the bound wallet.
func (c *BitcoindClient) GetWalletInfo(ctx context.Context) (*model.WalletInfo, error) {
	var info model.WalletInfo
	if err := c.rawInto(ctx, &info, "getwalletinfo"); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetNewAddress asks the wallet for a new receiving address and checks it belongs to the configured network.
func (c *BitcoindClient) GetNewAddress(ctx context.Context, label, addressType string) (btcutil.Address, error) {
	if !addressTypes[addressType] {
		return nil, fmt.Errorf("%w: unsupported address type %q", ErrInvalidArgument, addressType)
	}
	params := []any{label}
	if addressType != "" {
		params = append(params, addressType)
	}

	var address string
	if err := c.rawInto(ctx, &address, "getnewaddress", params...); err != nil {
		return nil, err
	}
	return common.ValidateAddress(address, c.params)
}

// FundResult is the fundrawtransaction result.
type FundResult struct {
	Hex       string  `json:"hex"`
	Fee       float64 `json:"fee"`
	ChangePos int     `json:"changepos"`
}

// FeeSatoshis converts the BTC fee to satoshis.
func (r *FundResult) FeeSatoshis() (int64, error) {
	amt, err := btcutil.NewAmount(r.Fee)
	if err != nil {
		return 0, fmt.Errorf("invalid fee %v: %w", r.Fee, err)
	}
	return int64(amt), nil
}

// FundRawTransaction adds inputs (and change) from the wallet to txHex.
func (c *BitcoindClient) FundRawTransaction(ctx context.Context, txHex string) (*FundResult, error) {
	var res FundResult
	if err := c.rawInto(ctx, &res, "fundrawtransaction", txHex); err != nil {
		return nil, err
	}
	return &res, nil
}

// SignError is a per-input failure reported by signrawtransactionwithwallet.
type SignError struct {
	TxID  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Error string `json:"error"`
}

// SignResult is the signrawtransactionwithwallet result.
type SignResult struct {
	Hex      string      `json:"hex"`
	Complete bool        `json:"complete"`
	Errors   []SignError `json:"errors,omitempty"`
}

// SignRawTransactionWithWallet signs inputs the wallet owns. An incomplete
// result is returned together with ErrIncompleteSignature.
func (c *BitcoindClient) SignRawTransactionWithWallet(ctx context.Context, txHex string) (*SignResult, error) {
	var res SignResult
	if err := c.rawInto(ctx, &res, "signrawtransactionwithwallet", txHex); err != nil {
		return nil, err
	}
	if !res.Complete {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, fmt.Sprintf("%s:%d %s", e.TxID, e.Vout, e.Error))
		}
		return &res, fmt.Errorf("%w: %s", ErrIncompleteSignature, strings.Join(msgs, "; "))
	}
	return &res, nil
}

// SendRawTransaction broadcasts txHex and returns its txid.
func (c *BitcoindClient) SendRawTransaction(ctx context.Context, txHex string) (*chainhash.Hash, error) {
	var txid string
	if err := c.rawInto(ctx, &txid, "sendrawtransaction", txHex); err != nil {
		return nil, err
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("sendrawtransaction: invalid txid %q: %w", txid, err)
	}
	return hash, nil
}

func validateWalletName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: wallet name is required", ErrInvalidArgument)
	}
	return nil
}
