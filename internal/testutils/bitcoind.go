// Package testutils provides an in-process fake bitcoind for tests.
package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// RPCError mirrors the error object bitcoind returns.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Call is one request the fake received.
type Call struct {
	Path   string
	Method string
	Params []json.RawMessage
	User   string
}

// Handler answers one RPC method. path is the URL path (e.g. /wallet/miner).
type Handler func(path string, params []json.RawMessage) (any, *RPCError)

// FakeBitcoind is an httptest server speaking bitcoind's JSON-RPC dialect.
type FakeBitcoind struct {
	*httptest.Server

	User     string
	Password string

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

// NewFakeBitcoind starts a fake requiring user/password basic auth (empty user disables auth).
func NewFakeBitcoind(user, password string) *FakeBitcoind {
	f := &FakeBitcoind{
		User:     user,
		Password: password,
		handlers: make(map[string]Handler),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// Handle registers h for method.
func (f *FakeBitcoind) Handle(method string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// Result registers a fixed result for method.
func (f *FakeBitcoind) Result(method string, result any) {
	f.Handle(method, func(string, []json.RawMessage) (any, *RPCError) {
		return result, nil
	})
}

// Fail registers a fixed RPC error for method.
func (f *FakeBitcoind) Fail(method string, code int, message string) {
	f.Handle(method, func(string, []json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: code, Message: message}
	})
}

// Calls returns a copy of the received calls.
func (f *FakeBitcoind) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo counts calls to method.
func (f *FakeBitcoind) CallsTo(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

type request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

type response struct {
	Result any             `json:"result"`
	Error  *RPCError       `json:"error"`
	ID     json.RawMessage `json:"id"`
}

func (f *FakeBitcoind) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, _ := r.BasicAuth()
	if f.User != "" && (user != f.User || pass != f.Password) {
		// bitcoind answers bad credentials with an empty 401
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(response{Error: &RPCError{Code: -32700, Message: "Parse error"}})
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Path: r.URL.Path, Method: req.Method, Params: req.Params, User: user})
	h, ok := f.handlers[req.Method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(response{Error: &RPCError{Code: -32601, Message: "Method not found"}, ID: req.ID})
		return
	}

	result, rpcErr := h(r.URL.Path, req.Params)
	if rpcErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(response{Result: result, Error: rpcErr, ID: req.ID})
}
