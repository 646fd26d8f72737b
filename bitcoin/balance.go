package bitcoin

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"
)

// syncedProgress is the verificationprogress from which a node with
// blocks == headers is reported as synced.
const syncedProgress = 0.9999

// Status summarizes the chain state and, when includeWallet is set, the wallet behind c.
func Status(ctx context.Context, c *client.BitcoindClient, includeWallet bool) (*model.StatusResponse, error) {
	// Get chain state
	info, err := c.GetBlockchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockchain info: %w", err)
	}

	status := &model.StatusResponse{
		Chain:                info.Chain,
		Blocks:               info.Blocks,
		Headers:              info.Headers,
		BestBlockHash:        info.BestBlockHash,
		VerificationProgress: info.VerificationProgress,
		Synced:               info.Blocks == info.Headers && info.VerificationProgress >= syncedProgress,
	}

	if !includeWallet {
		return status, nil
	}

	// Get wallet state
	wallet, err := c.GetWalletInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet info: %w", err)
	}
	status.Wallet = wallet

	return status, nil
}
