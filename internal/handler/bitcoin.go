package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/AlexZinkM/btc-node-gateway/bitcoin"
	"github.com/AlexZinkM/btc-node-gateway/internal/addressbook"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/common"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BitcoinHandler serves the REST gateway in front of bitcoind
type BitcoinHandler struct {
	client          *client.BitcoindClient
	book            *addressbook.Book
	cooldownMinutes int
}

// NewBitcoinHandler creates a new BitcoinHandler
func NewBitcoinHandler(c *client.BitcoindClient, book *addressbook.Book, cooldownMinutes int) (*BitcoinHandler, error) {
	if c == nil {
		return nil, errors.New("bitcoind client is required")
	}
	return &BitcoinHandler{
		client:          c,
		book:            book,
		cooldownMinutes: cooldownMinutes,
	}, nil
}

// wallet returns the client for the requested wallet, or the default one.
func (h *BitcoinHandler) wallet(name string) (*client.BitcoindClient, error) {
	return h.client.WithWallet(strings.TrimSpace(name))
}

// Health handles GET /health
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  model.HealthResponse
// @Router       /health [get]
func (h *BitcoinHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

// Ready handles GET /ready
// @Summary      Readiness probe
// @Description  Ready once bitcoind answers getblockcount
// @Tags         health
// @Produce      json
// @Success      200  {object}  model.HealthResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /ready [get]
func (h *BitcoinHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	blocks, err := h.client.GetBlockCount(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, codeWarmup, err)
		return
	}
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ready", Blocks: &blocks})
}

// Blockchain handles GET /bitcoin/blockchain
// @Summary      Chain state
// @Description  getblockchaininfo summary
// @Tags         bitcoin
// @Produce      json
// @Success      200  {object}  model.StatusResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /bitcoin/blockchain [get]
func (h *BitcoinHandler) Blockchain(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	status, err := bitcoin.Status(r.Context(), h.client, false)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Block handles GET /bitcoin/block
// @Summary      Get block
// @Description  getblock by hash or height. verbosity 0 returns hex, 1 an object, 2 and 3 add transactions
// @Tags         bitcoin
// @Produce      json
// @Param        hash       query     string  false  "Block hash"
// @Param        height     query     int     false  "Block height, used when hash is empty"
// @Param        verbosity  query     int     false  "0..3, default 1"
// @Success      200  {object}  object
// @Failure      400  {object}  model.ErrorResponse
// @Router       /bitcoin/block [get]
func (h *BitcoinHandler) Block(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()

	verbosity := 1
	if v := q.Get("verbosity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 3 {
			badRequest(w, errors.New("invalid verbosity: expected 0..3"))
			return
		}
		verbosity = n
	}

	var (
		block json.RawMessage
		err   error
	)
	switch hash, height := q.Get("hash"), q.Get("height"); {
	case hash != "":
		if _, herr := chainhash.NewHashFromStr(hash); herr != nil || len(hash) != 2*chainhash.HashSize {
			badRequest(w, errors.New("invalid block hash"))
			return
		}
		block, err = h.client.GetBlock(r.Context(), hash, verbosity)

	case height != "":
		n, perr := strconv.ParseInt(height, 10, 64)
		if perr != nil || n < 0 {
			badRequest(w, errors.New("invalid block height"))
			return
		}
		block, err = h.client.GetBlockByHeight(r.Context(), n, verbosity)

	default:
		badRequest(w, errors.New("hash or height is required"))
		return
	}

	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// WalletInfo handles GET /bitcoin/wallet
// @Summary      Wallet info
// @Description  getwalletinfo for the given wallet, or the default one
// @Tags         wallet
// @Produce      json
// @Param        wallet  query     string  false  "Wallet name"
// @Success      200  {object}  model.WalletInfo
// @Failure      404  {object}  model.ErrorResponse
// @Router       /bitcoin/wallet [get]
func (h *BitcoinHandler) WalletInfo(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	c, err := h.wallet(r.URL.Query().Get("wallet"))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	info, err := c.GetWalletInfo(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CreateWallet handles POST /bitcoin/wallet/create
// @Summary      Create wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateWalletRequest  true  "Wallet options"
// @Success      200      {object}  model.WalletResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /bitcoin/wallet/create [post]
func (h *BitcoinHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.CreateWalletRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, errors.New("name is required"))
		return
	}

	res, err := h.client.CreateWallet(r.Context(), req.Name, client.CreateWalletOptions{
		DisablePrivateKeys: req.DisablePrivateKeys,
		Blank:              req.Blank,
		Passphrase:         req.Passphrase,
		AvoidReuse:         req.AvoidReuse,
		Descriptors:        req.Descriptors,
	})
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LoadWallet handles POST /bitcoin/wallet/load
// @Summary      Load wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoadWalletRequest  true  "Wallet name"
// @Success      200      {object}  model.WalletResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /bitcoin/wallet/load [post]
func (h *BitcoinHandler) LoadWallet(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.LoadWalletRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, errors.New("name is required"))
		return
	}

	res, err := h.client.LoadWallet(r.Context(), req.Name)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// NewAddress handles POST /bitcoin/address/new
// @Summary      New receiving address
// @Description  getnewaddress, returned with a base64 PNG QR code and recorded in the address book
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.NewAddressRequest  true  "Address options"
// @Success      200      {object}  model.NewAddressResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /bitcoin/address/new [post]
func (h *BitcoinHandler) NewAddress(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.NewAddressRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	c, err := h.wallet(req.Wallet)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	res, err := bitcoin.NewAddress(r.Context(), c, h.book, req.Label, req.Type)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Addresses handles GET /bitcoin/addresses
// @Summary      Recorded addresses
// @Tags         wallet
// @Produce      json
// @Param        network  query     string  false  "Network, defaults to the configured one. Use all for every network"
// @Success      200      {array}   addressbook.Entry
// @Router       /bitcoin/addresses [get]
func (h *BitcoinHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	if h.book == nil {
		writeJSON(w, http.StatusOK, []addressbook.Entry{})
		return
	}

	network := r.URL.Query().Get("network")
	switch network {
	case "":
		network = h.client.Network()
	case "all":
		network = ""
	}
	writeJSON(w, http.StatusOK, h.book.List(network))
}

// FundTx handles POST /bitcoin/tx/fund
// @Summary      Fund transaction
// @Description  fundrawtransaction: adds wallet inputs and change
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      model.TxRequest  true  "Unfunded transaction"
// @Success      200      {object}  model.FundResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /bitcoin/tx/fund [post]
func (h *BitcoinHandler) FundTx(w http.ResponseWriter, r *http.Request) {
	c, tx, ok := h.txRequest(w, r)
	if !ok {
		return
	}

	funded, err := bitcoin.Fund(r.Context(), c, tx)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.FundResponse{
		Hex:       funded.Hex,
		Fee:       common.SatoshisToBTC(funded.Fee),
		ChangePos: funded.ChangePos,
	})
}

// SignTx handles POST /bitcoin/tx/sign
// @Summary      Sign transaction
// @Description  signrawtransactionwithwallet. Partially signed transactions are rejected with 422
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      model.TxRequest  true  "Funded transaction"
// @Success      200      {object}  model.SignResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /bitcoin/tx/sign [post]
func (h *BitcoinHandler) SignTx(w http.ResponseWriter, r *http.Request) {
	c, tx, ok := h.txRequest(w, r)
	if !ok {
		return
	}

	signed, err := bitcoin.Sign(r.Context(), c, tx)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SignResponse{Hex: signed.Hex, Complete: true})
}

// SendTx handles POST /bitcoin/tx/send
// @Summary      Broadcast transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      model.TxRequest  true  "Signed transaction"
// @Success      200      {object}  model.SendResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /bitcoin/tx/send [post]
func (h *BitcoinHandler) SendTx(w http.ResponseWriter, r *http.Request) {
	c, tx, ok := h.txRequest(w, r)
	if !ok {
		return
	}

	sent, err := bitcoin.Broadcast(r.Context(), c, tx)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, sent)
}

func (h *BitcoinHandler) txRequest(w http.ResponseWriter, r *http.Request) (*client.BitcoindClient, bitcoin.Transaction, bool) {
	if !allowMethod(w, r, http.MethodPost) {
		return nil, bitcoin.Transaction{}, false
	}

	var req model.TxRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return nil, bitcoin.Transaction{}, false
	}
	if _, err := bitcoin.TxFromHex(req.Hex); err != nil {
		badRequest(w, err)
		return nil, bitcoin.Transaction{}, false
	}

	c, err := h.wallet(req.Wallet)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return nil, bitcoin.Transaction{}, false
	}
	return c, bitcoin.Transaction{Hex: req.Hex}, true
}

// Pay handles POST /bitcoin/pay
// @Summary      Send BTC
// @Description  Builds, funds, signs and broadcasts a payment from the wallet. One payment per cooldown period
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayRequest  true  "Payment data"
// @Success      200      {object}  model.PayResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      429      {object}  model.ErrorResponse
// @Router       /bitcoin/pay [post]
func (h *BitcoinHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.PayRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	// Validate before touching the cooldown
	if _, err := common.ValidateAddress(req.ToAddress, h.client.Params()); err != nil {
		badRequest(w, err)
		return
	}
	if _, err := common.BTCToSatoshis(req.Amount); err != nil {
		badRequest(w, errors.New("invalid amount: "+err.Error()))
		return
	}

	c, err := h.wallet(req.Wallet)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	payResp, err := bitcoin.Pay(r.Context(), c, req.ToAddress, req.Amount, h.cooldownMinutes)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, payResp)
}
