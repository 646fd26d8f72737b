package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	lru "github.com/hashicorp/golang-lru"
)

// blockCache keeps raw serialized blocks by hash. Only verbosity 0 is cached:
// decoded blocks carry confirmations and nextblockhash, which change as the chain grows.
type blockCache struct {
	*lru.Cache
}

func newBlockCache(size int) (*blockCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create block cache: %w", err)
	}
	return &blockCache{cache}, nil
}

func (bc *blockCache) get(hash string) (json.RawMessage, bool) {
	v, ok := bc.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(json.RawMessage), true
}

func (bc *blockCache) add(hash string, block json.RawMessage) {
	bc.Add(hash, block)
}

// GetBlockchainInfo returns the getblockchaininfo result.
func (c *BitcoindClient) GetBlockchainInfo(ctx context.Context) (*btcjson.GetBlockChainInfoResult, error) {
	var info btcjson.GetBlockChainInfoResult
	if err := c.rawInto(ctx, &info, "getblockchaininfo"); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetBlockCount returns the height of the most-work fully-validated chain.
func (c *BitcoindClient) GetBlockCount(ctx context.Context) (int64, error) {
	return call(ctx, c, "getblockcount", c.rpc.GetBlockCount)
}

// GetBlockHash returns the hash of the block at height on the active chain.
func (c *BitcoindClient) GetBlockHash(ctx context.Context, height int64) (*chainhash.Hash, error) {
	if height < 0 {
		return nil, fmt.Errorf("%w: block height %d", ErrInvalidArgument, height)
	}
	return call(ctx, c, "getblockhash", func() (*chainhash.Hash, error) {
		return c.rpc.GetBlockHash(height)
	})
}

// GetBlock returns getblock output for hash. Verbosity 0 yields a hex string,
// 1 a JSON object, 2 and 3 a JSON object with decoded transactions.
func (c *BitcoindClient) GetBlock(ctx context.Context, hash string, verbosity int) (json.RawMessage, error) {
	if _, err := chainhash.NewHashFromStr(hash); err != nil || len(hash) != 2*chainhash.HashSize {
		return nil, fmt.Errorf("%w: block hash %q", ErrInvalidArgument, hash)
	}
	if verbosity < 0 || verbosity > 3 {
		return nil, fmt.Errorf("%w: verbosity %d, expected 0..3", ErrInvalidArgument, verbosity)
	}

	if verbosity == 0 {
		if block, ok := c.blocks.get(hash); ok {
			return block, nil
		}
	}

	block, err := c.raw(ctx, "getblock", hash, verbosity)
	if err != nil {
		return nil, err
	}
	if verbosity == 0 {
		c.blocks.add(hash, block)
	}
	return block, nil
}

// GetBlockByHeight resolves height to a hash and fetches that block.
func (c *BitcoindClient) GetBlockByHeight(ctx context.Context, height int64, verbosity int) (json.RawMessage, error) {
	hash, err := c.GetBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}
	return c.GetBlock(ctx, hash.String(), verbosity)
}

// Stop asks bitcoind to shut down.
func (c *BitcoindClient) Stop(ctx context.Context) error {
	_, err := c.raw(ctx, "stop")
	return err
}
