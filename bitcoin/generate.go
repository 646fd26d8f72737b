package bitcoin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/AlexZinkM/btc-node-gateway/internal/addressbook"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

// NewAddress asks the wallet behind c for a receiving address, renders its QR
// code and records it in book. A nil book skips recording.
func NewAddress(ctx context.Context, c *client.BitcoindClient, book *addressbook.Book, label, addressType string) (*model.NewAddressResponse, error) {
	addr, err := c.GetNewAddress(ctx, label, addressType)
	if err != nil {
		return nil, fmt.Errorf("failed to get new address: %w", err)
	}
	address := addr.EncodeAddress()

	// Generate QR code
	qrCode, err := generateQRCode("bitcoin:" + address)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	if book != nil {
		_, err := book.Add(addressbook.Entry{
			Address: address,
			Label:   label,
			Wallet:  c.Wallet(),
			Network: c.Network(),
		})
		// the node never hands out the same address twice, but a reused book file might hold it
		if err != nil && !errors.Is(err, addressbook.ErrDuplicateAddress) {
			return nil, fmt.Errorf("failed to record address: %w", err)
		}
		if err != nil {
			zerolog.Ctx(ctx).Warn().Str("address", address).Msg("address already recorded")
		}
	}

	return &model.NewAddressResponse{
		Address: address,
		Label:   label,
		Wallet:  c.Wallet(),
		QR:      qrCode,
	}, nil
}

// generateQRCode generates QR code of a BIP21 URI in base64
func generateQRCode(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	// Encode to base64
	return base64.StdEncoding.EncodeToString(png), nil
}
