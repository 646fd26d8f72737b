package bitcoin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/common"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog"
)

var (
	// ErrCooldown is returned while the previous payment is younger than the cooldown.
	ErrCooldown = errors.New("cooldown active")

	// ErrInsufficientFunds is returned when the wallet balance does not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient balance")
)

var (
	lastPayTime time.Time
	payMutex    sync.Mutex
)

// Pay sends amount (BTC decimal string) to toAddress from the wallet behind c:
// one output is built locally, then the node funds, signs and broadcasts it.
func Pay(ctx context.Context, c *client.BitcoindClient, toAddress, amount string, cooldownMinutes int) (*model.PayResponse, error) {
	// Validate recipient address
	addr, err := common.ValidateAddress(toAddress, c.Params())
	if err != nil {
		return nil, err
	}

	// Convert amount to satoshis (string-based, no float precision loss)
	sats, err := common.BTCToSatoshis(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	// Check cooldown
	payMutex.Lock()
	defer payMutex.Unlock()

	if !lastPayTime.IsZero() {
		cooldownDuration := time.Duration(cooldownMinutes) * time.Minute
		if time.Since(lastPayTime) < cooldownDuration {
			remaining := cooldownDuration - time.Since(lastPayTime)
			return nil, fmt.Errorf("%w, please wait %v", ErrCooldown, remaining.Round(time.Second))
		}
	}

	// Check balance before asking the wallet to fund
	info, err := c.GetWalletInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	balance, err := btcutil.NewAmount(info.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet balance: %w", err)
	}
	if int64(balance) < sats {
		return nil, fmt.Errorf("%w: have %s BTC, want %s BTC",
			ErrInsufficientFunds, common.SatoshisToBTC(int64(balance)), common.SatoshisToBTC(sats))
	}

	// Build the unsigned payment
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to build output script: %w", err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(sats, pkScript))

	funded, err := Fund(ctx, c, Transaction{Tx: tx})
	if err != nil {
		return nil, err
	}

	signed, err := Sign(ctx, c, Transaction{Hex: funded.Hex})
	if err != nil {
		return nil, err
	}

	sent, err := Broadcast(ctx, c, Transaction{Hex: signed.Hex})
	if err != nil {
		return nil, err
	}

	// Save transaction time
	lastPayTime = time.Now()

	zerolog.Ctx(ctx).Info().
		Str("wallet", c.Wallet()).
		Str("to", addr.EncodeAddress()).
		Int64("sats", sats).
		Int64("fee", funded.Fee).
		Str("txid", sent.TxID).
		Msg("payment broadcast")

	return &model.PayResponse{
		TxID:     sent.TxID,
		Fee:      common.SatoshisToBTC(funded.Fee),
		Explorer: sent.Explorer,
	}, nil
}
