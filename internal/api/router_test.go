package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlexZinkM/btc-node-gateway/internal/addressbook"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"
	"github.com/AlexZinkM/btc-node-gateway/internal/testutils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testnetAddr = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	blockHash   = "000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943"
)

type fixture struct {
	fake   *testutils.FakeBitcoind
	router http.Handler
	book   *addressbook.Book
}

func newFixture(t *testing.T, user, password string) *fixture {
	t.Helper()
	fake := testutils.NewFakeBitcoind("root", "hellohello")
	t.Cleanup(fake.Close)

	c, err := client.NewBitcoindClient(client.Options{URL: fake.URL, User: user, Password: password, Network: "testnet3"})
	require.NoError(t, err)
	t.Cleanup(c.Shutdown)

	book, err := addressbook.Open(filepath.Join(t.TempDir(), "addresses.json"))
	require.NoError(t, err)

	router, err := SetupRouter(Options{
		Client:      c,
		Book:        book,
		PayCooldown: 1,
		Logger:      zerolog.Nop(),
		Registry:    prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	return &fixture{fake: fake, router: router, book: book}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var res model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Result("getblockcount", 2542000)

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Header().Get("X-Request-ID"), 36)

	rec = f.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res model.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "ready", res.Status)
	require.EqualValues(t, 2542000, *res.Blocks)
}

func TestReadyWhileWarmingUp(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Fail("getblockcount", -28, "Loading block index...")

	rec := f.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, "root", "hellohello")

	rec := f.do(http.MethodPost, "/bitcoin/blockchain", "{}")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(http.MethodGet, "/bitcoin/pay", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestUpstreamUnauthorized(t *testing.T) {
	f := newFixture(t, "root", "wrong")

	rec := f.do(http.MethodGet, "/bitcoin/blockchain", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "upstream_unauthorized", errorBody(t, rec).Code)
}

func TestBlockchain(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Result("getblockchaininfo", map[string]any{
		"chain": "test", "blocks": 10, "headers": 12, "bestblockhash": blockHash, "verificationprogress": 0.5,
	})

	rec := f.do(http.MethodGet, "/bitcoin/blockchain", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "test", res.Chain)
	require.False(t, res.Synced)
}

func TestBlock(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Result("getblockhash", blockHash)
	f.fake.Result("getblock", map[string]any{"hash": blockHash, "height": 0})

	rec := f.do(http.MethodGet, "/bitcoin/block?hash="+blockHash, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), blockHash)

	rec = f.do(http.MethodGet, "/bitcoin/block?height=0&verbosity=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, q := range []string{"", "?hash=abc", "?height=-1", "?height=x", "?hash=" + blockHash + "&verbosity=7"} {
		rec = f.do(http.MethodGet, "/bitcoin/block"+q, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestBlockRejectsNonHexHash(t *testing.T) {
	f := newFixture(t, "root", "hellohello")

	rec := f.do(http.MethodGet, "/bitcoin/block?hash="+strings.Repeat("z", 64), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", errorBody(t, rec).Code)
	require.Empty(t, f.fake.Calls())
}

func TestNewAddressUnsupportedType(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Result("getnewaddress", testnetAddr)

	rec := f.do(http.MethodPost, "/bitcoin/address/new", `{"type":"p2pkh"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", errorBody(t, rec).Code)
	require.Zero(t, errorBody(t, rec).RPCCode)
	require.Empty(t, f.fake.Calls())
}

func TestWalletInfo(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Handle("getwalletinfo", func(path string, _ []json.RawMessage) (any, *testutils.RPCError) {
		if path != "/wallet/savings" {
			return nil, &testutils.RPCError{Code: -18, Message: "Requested wallet does not exist or is not loaded"}
		}
		return map[string]any{"walletname": "savings", "balance": 0.1}, nil
	})

	rec := f.do(http.MethodGet, "/bitcoin/wallet?wallet=savings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/bitcoin/wallet?wallet=missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "wallet_not_found", errorBody(t, rec).Code)
	require.Equal(t, -18, errorBody(t, rec).RPCCode)
}

func TestCreateAndLoadWallet(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Handle("createwallet", func(_ string, params []json.RawMessage) (any, *testutils.RPCError) {
		require.JSONEq(t, `"savings"`, string(params[0]))
		require.JSONEq(t, `true`, string(params[1]))
		return map[string]any{"name": "savings", "warning": ""}, nil
	})
	f.fake.Fail("loadwallet", -18, "Path does not exist")

	rec := f.do(http.MethodPost, "/bitcoin/wallet/create", `{"name":"savings","disablePrivateKeys":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/bitcoin/wallet/create", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/bitcoin/wallet/load", `{"name":"other"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/bitcoin/wallet/load", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewAddressAndList(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Result("getnewaddress", testnetAddr)

	rec := f.do(http.MethodPost, "/bitcoin/address/new", `{"wallet":"main","label":"tips","type":"bech32"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.NewAddressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, testnetAddr, res.Address)
	require.NotEmpty(t, res.QR)
	require.Equal(t, "/wallet/main", f.fake.Calls()[0].Path)

	rec = f.do(http.MethodGet, "/bitcoin/addresses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []addressbook.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "tips", entries[0].Label)

	rec = f.do(http.MethodGet, "/bitcoin/addresses?network=mainnet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestTxEndpointsValidateHex(t *testing.T) {
	f := newFixture(t, "root", "hellohello")

	for _, path := range []string{"/bitcoin/tx/fund", "/bitcoin/tx/sign", "/bitcoin/tx/send"} {
		rec := f.do(http.MethodPost, path, `{"hex":"zz"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	require.Empty(t, f.fake.Calls())
}

func TestSendTxRPCError(t *testing.T) {
	f := newFixture(t, "root", "hellohello")
	f.fake.Fail("sendrawtransaction", -25, "bad-txns-inputs-missingorspent")

	// version 2, one input spending the null outpoint, no outputs
	hex := "02000000" + "01" + strings.Repeat("00", 32) + "00000000" + "00" + "ffffffff" + "00" + "00000000"
	rec := f.do(http.MethodPost, "/bitcoin/tx/send", `{"hex":"`+hex+`"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "rpc_error", errorBody(t, rec).Code)
	require.Equal(t, -25, errorBody(t, rec).RPCCode)
}

func TestPayValidation(t *testing.T) {
	f := newFixture(t, "root", "hellohello")

	rec := f.do(http.MethodPost, "/bitcoin/pay", `{"toAddress":"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4","amount":"0.1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/bitcoin/pay", `{"toAddress":"`+testnetAddr+`","amount":"-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.fake.Result("getwalletinfo", map[string]any{"walletname": "", "balance": 0.5})

	rec = f.do(http.MethodPost, "/bitcoin/pay", `{"toAddress":"`+testnetAddr+`","amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "insufficient_funds", errorBody(t, rec).Code)
	require.Zero(t, f.fake.CallsTo("fundrawtransaction"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "root", "hellohello")

	f.do(http.MethodGet, "/health", "")
	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `btcgw_api_requests_total{code="200",handler="/health",method="get"} 1`)
}

func TestRequestIDKept(t *testing.T) {
	f := newFixture(t, "root", "hellohello")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
