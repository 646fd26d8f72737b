package bitcoin

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/common"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/btcsuite/btcd/wire"
)

// Transaction is either a serialized transaction or a decoded one.
// When both are set, Tx wins.
type Transaction struct {
	Hex string
	Tx  *wire.MsgTx
}

// encode returns the hex form of t.
func (t Transaction) encode() (string, error) {
	if t.Tx != nil {
		return TxToHex(t.Tx)
	}
	if strings.TrimSpace(t.Hex) == "" {
		return "", errors.New("transaction hex is required")
	}
	// decode once so malformed input never reaches the node
	if _, err := TxFromHex(t.Hex); err != nil {
		return "", err
	}
	return strings.TrimSpace(t.Hex), nil
}

// TxFromHex decodes a serialized transaction. Transactions without inputs
// (the usual fundrawtransaction input) are only valid in the legacy encoding,
// so the witness encoding is tried first and the legacy one second.
func TxFromHex(s string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hex: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("invalid transaction hex: empty")
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	r := bytes.NewReader(raw)
	if err := tx.Deserialize(r); err == nil && r.Len() == 0 && len(tx.TxIn) > 0 {
		return tx, nil
	}

	tx = wire.NewMsgTx(wire.TxVersion)
	r = bytes.NewReader(raw)
	if err := tx.DeserializeNoWitness(r); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("failed to decode transaction: %d trailing bytes", r.Len())
	}
	return tx, nil
}

// TxToHex serializes tx, with witness data when it has any.
func TxToHex(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// FundedTx is a transaction completed with wallet inputs and change.
type FundedTx struct {
	Hex       string
	Tx        *wire.MsgTx
	Fee       int64 // satoshis
	ChangePos int
}

// Fund adds inputs and a change output from the wallet behind c.
func Fund(ctx context.Context, c *client.BitcoindClient, tx Transaction) (*FundedTx, error) {
	txHex, err := tx.encode()
	if err != nil {
		return nil, err
	}

	// Ask the wallet to select inputs
	res, err := c.FundRawTransaction(ctx, txHex)
	if err != nil {
		return nil, fmt.Errorf("failed to fund transaction: %w", err)
	}

	fee, err := res.FeeSatoshis()
	if err != nil {
		return nil, err
	}

	decoded, err := TxFromHex(res.Hex)
	if err != nil {
		return nil, fmt.Errorf("node returned an undecodable funded transaction: %w", err)
	}

	return &FundedTx{
		Hex:       res.Hex,
		Tx:        decoded,
		Fee:       fee,
		ChangePos: res.ChangePos,
	}, nil
}

// SignedTx is a fully signed transaction.
type SignedTx struct {
	Hex string
	Tx  *wire.MsgTx
}

// Sign signs every input with the wallet keys. A partially signed
// transaction is an error.
func Sign(ctx context.Context, c *client.BitcoindClient, tx Transaction) (*SignedTx, error) {
	txHex, err := tx.encode()
	if err != nil {
		return nil, err
	}

	res, err := c.SignRawTransactionWithWallet(ctx, txHex)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	decoded, err := TxFromHex(res.Hex)
	if err != nil {
		return nil, fmt.Errorf("node returned an undecodable signed transaction: %w", err)
	}

	return &SignedTx{Hex: res.Hex, Tx: decoded}, nil
}

// Broadcast submits tx to the network and returns its txid with an explorer link.
func Broadcast(ctx context.Context, c *client.BitcoindClient, tx Transaction) (*model.SendResponse, error) {
	txHex, err := tx.encode()
	if err != nil {
		return nil, err
	}

	txid, err := c.SendRawTransaction(ctx, txHex)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	return &model.SendResponse{
		TxID:     txid.String(),
		Explorer: common.ExplorerTxURL(c.Network(), txid.String()),
	}, nil
}
