package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/common"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
)

// bitcoind RPC error codes the gateway reacts to.
const (
	CodeMiscError           btcjson.RPCErrorCode = -1
	CodeWalletError         btcjson.RPCErrorCode = -4
	CodeInvalidAddress      btcjson.RPCErrorCode = -5
	CodeInsufficientFunds   btcjson.RPCErrorCode = -6
	CodeWalletNotFound      btcjson.RPCErrorCode = -18
	CodeWalletNotSpecified  btcjson.RPCErrorCode = -19
	CodeInWarmup            btcjson.RPCErrorCode = -28
	CodeWalletAlreadyLoaded btcjson.RPCErrorCode = -35
)

var (
	// ErrUnauthorized is returned when bitcoind rejects the RPC credentials (HTTP 401, empty body).
	ErrUnauthorized = errors.New("bitcoind rejected rpc credentials")

	// ErrIncompleteSignature is returned when the wallet could not sign every input.
	ErrIncompleteSignature = errors.New("transaction is not completely signed")

	// ErrInvalidArgument wraps arguments rejected before any request is sent.
	ErrInvalidArgument = errors.New("invalid argument")
)

// maxWalletClients bounds the wallet-bound clients a root client keeps open.
const maxWalletClients = 32

// Options configures a BitcoindClient.
type Options struct {
	URL            string // http://host:port, optionally with /wallet/<name>
	User           string
	Password       string
	CookiePath     string // bitcoind .cookie file, used when Password is empty
	Wallet         string
	Network        string
	Timeout        time.Duration
	BlockCacheSize int
}

// BitcoindClient is a client for working with the bitcoind JSON-RPC interface
type BitcoindClient struct {
	rpc     *rpcclient.Client
	conf    rpcclient.ConnConfig
	baseURL string
	wallet  string
	network string
	params  *chaincfg.Params
	timeout time.Duration
	blocks  *blockCache

	// wallet-bound clients share the block cache and are owned by the root client
	mu      sync.Mutex
	wallets *lru.Cache
	parent  *BitcoindClient
}

// NewBitcoindClient creates a new bitcoind client in HTTP POST mode.
func NewBitcoindClient(opts Options) (*BitcoindClient, error) {
	if opts.Network == "" {
		opts.Network = chaincfg.TestNet3Params.Name
	}
	params, err := common.NetParams(opts.Network)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.BlockCacheSize <= 0 {
		opts.BlockCacheSize = 256
	}

	base, walletFromURL, _ := strings.Cut(strings.TrimRight(opts.URL, "/"), "/wallet/")
	if opts.Wallet == "" {
		opts.Wallet = walletFromURL
	}

	conf, err := connConfig(base, opts.Wallet)
	if err != nil {
		return nil, err
	}
	setAuth(&conf, opts.User, opts.Password, opts.CookiePath)

	blocks, err := newBlockCache(opts.BlockCacheSize)
	if err != nil {
		return nil, err
	}
	wallets, err := lru.NewWithEvict(maxWalletClients, func(_, v any) {
		v.(*BitcoindClient).rpc.Shutdown()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet client cache: %w", err)
	}

	rpc, err := rpcclient.New(&conf, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}

	return &BitcoindClient{
		rpc:     rpc,
		conf:    conf,
		baseURL: base,
		wallet:  opts.Wallet,
		network: opts.Network,
		params:  params,
		timeout: opts.Timeout,
		blocks:  blocks,
		wallets: wallets,
	}, nil
}

// connConfig turns an http(s) URL into an rpcclient config, Core only handles POST requests.
func connConfig(rawURL, wallet string) (rpcclient.ConnConfig, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rpcclient.ConnConfig{}, fmt.Errorf("invalid rpc url: %w", err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return rpcclient.ConnConfig{}, fmt.Errorf("invalid rpc url %q: expected http(s)://host:port", rawURL)
	}

	host := u.Host + strings.TrimRight(u.Path, "/")
	if wallet != "" {
		host += "/wallet/" + url.PathEscape(wallet)
	}

	return rpcclient.ConnConfig{
		Host:         host,
		HTTPPostMode: true,
		DisableTLS:   u.Scheme == "http",
	}, nil
}

// anonymousPass is sent when neither a password nor a cookie file is configured.
// rpcclient reads a cookie file whenever Pass is empty, and fails the call if
// there is none; a node or proxy without auth ignores the header.
const anonymousPass = "anonymous"

// setAuth picks the credentials rpcclient presents: password, cookie file, or none.
func setAuth(conf *rpcclient.ConnConfig, user, pass, cookiePath string) {
	switch {
	case pass != "":
		conf.User, conf.Pass = user, pass
	case cookiePath != "":
		conf.User, conf.Pass = "", ""
		conf.CookiePath = cookiePath
	default:
		conf.User, conf.Pass = user, anonymousPass
	}
}

// Wallet returns the wallet this client is bound to ("" for the node default).
func (c *BitcoindClient) Wallet() string {
	return c.wallet
}

// Network returns the configured network name.
func (c *BitcoindClient) Network() string {
	return c.network
}

// Params returns the chain parameters of the configured network.
func (c *BitcoindClient) Params() *chaincfg.Params {
	return c.params
}

// WithWallet returns a client routed to /wallet/<name>. An empty name or the
// client's own wallet returns c itself.
func (c *BitcoindClient) WithWallet(name string) (*BitcoindClient, error) {
	if name == "" || name == c.wallet {
		return c, nil
	}

	root := c
	if c.parent != nil {
		root = c.parent
	}
	if name == root.wallet {
		return root, nil
	}

	root.mu.Lock()
	defer root.mu.Unlock()

	if w, ok := root.wallets.Get(name); ok {
		return w.(*BitcoindClient), nil
	}

	conf, err := connConfig(root.baseURL, name)
	if err != nil {
		return nil, err
	}
	conf.User, conf.Pass, conf.CookiePath = root.conf.User, root.conf.Pass, root.conf.CookiePath
	rpc, err := rpcclient.New(&conf, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet rpc client: %w", err)
	}

	w := &BitcoindClient{
		rpc:     rpc,
		conf:    conf,
		baseURL: root.baseURL,
		wallet:  name,
		network: root.network,
		params:  root.params,
		timeout: root.timeout,
		blocks:  root.blocks,
		parent:  root,
	}
	root.wallets.Add(name, w)
	return w, nil
}

// walletAdmin methods report -18 for the wallet named in their params, not for
// the wallet the request was routed to.
var walletAdmin = map[string]bool{"loadwallet": true, "createwallet": true, "unloadwallet": true}

// forget drops a wallet-bound client whose wallet the node does not know.
func (c *BitcoindClient) forget() {
	if c.parent == nil {
		return
	}
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	if w, ok := c.parent.wallets.Peek(c.wallet); ok && w == c {
		c.parent.wallets.Remove(c.wallet)
	}
}

// Shutdown stops the underlying rpc clients, including wallet-bound ones.
func (c *BitcoindClient) Shutdown() {
	if c.parent != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wallets.Purge()
	c.rpc.Shutdown()
}

type result[R any] struct {
	value R
	err   error
}

// call runs fetch with the client timeout. rpcclient calls are not cancelable,
// so the caller returns on ctx.Done() while the request finishes in the background.
func call[R any](ctx context.Context, c *BitcoindClient, method string, fetch func() (R, error)) (R, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := zerolog.Ctx(ctx)
	ch := make(chan result[R], 1)
	start := time.Now()

	go func() {
		v, err := fetch()
		ch <- result[R]{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero R
		log.Warn().Str("method", method).Str("wallet", c.wallet).Msg("rpc: call abandoned")
		return zero, fmt.Errorf("%s: %w", method, ctx.Err())

	case res := <-ch:
		log.Debug().
			Str("method", method).
			Str("wallet", c.wallet).
			Dur("took", time.Since(start)).
			Err(res.err).
			Msg("rpc: call completed")
		if res.err != nil {
			if ErrorCode(res.err) == CodeWalletNotFound && !walletAdmin[method] {
				c.forget()
			}
			return res.value, wrapError(method, res.err)
		}
		return res.value, nil
	}
}

// raw sends method with positional params through rpcclient.RawRequest.
func (c *BitcoindClient) raw(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	encoded := make([]json.RawMessage, 0, len(params))
	for i, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode param %d: %w", method, i, err)
		}
		encoded = append(encoded, b)
	}
	return call(ctx, c, method, func() (json.RawMessage, error) {
		return c.rpc.RawRequest(method, encoded)
	})
}

// rawInto sends method and unmarshals the result into v.
func (c *BitcoindClient) rawInto(ctx context.Context, v any, method string, params ...any) error {
	res, err := c.raw(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res, v); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

// Call sends any method with already-encoded params and returns the raw result.
func (c *BitcoindClient) Call(ctx context.Context, method string, params []json.RawMessage) (json.RawMessage, error) {
	if method == "" {
		return nil, fmt.Errorf("%w: method is required", ErrInvalidArgument)
	}
	return call(ctx, c, method, func() (json.RawMessage, error) {
		return c.rpc.RawRequest(method, params)
	})
}

func wrapError(method string, err error) error {
	if strings.Contains(err.Error(), "status code: 401") {
		return fmt.Errorf("%s: %w", method, ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", method, err)
}

// ErrorCode returns the bitcoind RPC error code carried by err, or 0.
func ErrorCode(err error) btcjson.RPCErrorCode {
	rpcErr := new(btcjson.RPCError)
	if !errors.As(err, &rpcErr) {
		return 0
	}
	return rpcErr.Code
}
