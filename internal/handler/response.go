package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/btc-node-gateway/bitcoin"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/model"

	"github.com/rs/zerolog"
)

// Error codes carried in model.ErrorResponse.Code
const (
	codeBadRequest       = "bad_request"
	codeWalletNotFound   = "wallet_not_found"
	codeUpstreamAuth     = "upstream_unauthorized"
	codeCooldown         = "cooldown"
	codeInsufficient     = "insufficient_funds"
	codeIncomplete       = "incomplete_signature"
	codeWarmup           = "node_warming_up"
	codeTimeout          = "upstream_timeout"
	codeRPC              = "rpc_error"
	codeInternal         = "internal"
	codeMethodNotAllowed = "method_not_allowed"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, codeBadRequest, err)
}

// allowMethod answers 405 unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, errors.New("method not allowed, should be "+method))
	return false
}

// writeFailure maps an operation error to an HTTP status.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code, RPCCode: int(client.ErrorCode(err))})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, bitcoin.ErrCooldown):
		return http.StatusTooManyRequests, codeCooldown
	case errors.Is(err, bitcoin.ErrInsufficientFunds):
		return http.StatusBadRequest, codeInsufficient
	case errors.Is(err, client.ErrUnauthorized):
		return http.StatusBadGateway, codeUpstreamAuth
	case errors.Is(err, client.ErrInvalidArgument):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, client.ErrIncompleteSignature):
		return http.StatusUnprocessableEntity, codeIncomplete
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	}

	switch client.ErrorCode(err) {
	case 0:
		return http.StatusInternalServerError, codeInternal
	case client.CodeWalletNotFound:
		return http.StatusNotFound, codeWalletNotFound
	case client.CodeWalletNotSpecified, client.CodeInvalidAddress:
		return http.StatusBadRequest, codeBadRequest
	case client.CodeInsufficientFunds:
		return http.StatusBadRequest, codeInsufficient
	case client.CodeInWarmup:
		return http.StatusServiceUnavailable, codeWarmup
	default:
		return http.StatusInternalServerError, codeRPC
	}
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}
