// Package jsonrpc sends raw JSON-RPC 1.0 requests to bitcoind and hands the
// response back untouched, the way curl would. bitcoind reports RPC failures
// as HTTP 500 with a JSON body, so a non-2xx status is never treated as a
// transport error here.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// Version is the only JSON-RPC version bitcoind understands.
	Version = "1.0"

	DefaultEndpoint = "http://127.0.0.1:18331"
	DefaultTimeout  = 2 * time.Second

	maxResponseSize = 32 << 20
)

// Request is a JSON-RPC 1.0 request.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      any               `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// RPCError is the error object bitcoind puts in a response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Response is a raw HTTP response from bitcoind.
type Response struct {
	StatusCode int
	Body       []byte
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	ID     any             `json:"id"`
}

// Decode parses the response envelope and unmarshals result into v (v may be nil).
func (r *Response) Decode(v any) error {
	var env envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return fmt.Errorf("status code: %d, response: %q", r.StatusCode, string(r.Body))
	}
	if env.Error != nil {
		return env.Error
	}
	if v == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// Client issues requests against a single bitcoind endpoint.
type Client struct {
	Endpoint string
	Wallet   string
	Auth     string // "user:password", empty for no credentials
	Timeout  time.Duration

	httpClient *http.Client
}

// New creates a client with defaults applied for empty fields.
func New(endpoint, wallet, auth string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Wallet:     wallet,
		Auth:       auth,
		Timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint, routed to /wallet/<name> when a wallet is set.
func (c *Client) URL() string {
	if c.Wallet == "" {
		return c.Endpoint
	}
	return c.Endpoint + "/wallet/" + c.Wallet
}

// NewRequest builds a request body for method with already-encoded params.
func NewRequest(id any, method string, params ...json.RawMessage) Request {
	if params == nil {
		params = []json.RawMessage{}
	}
	return Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Params encodes plain Go values as positional params.
func Params(values ...any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(values))
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode param %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Do sends method with params and returns the raw response.
func (c *Client) Do(ctx context.Context, method string, params ...json.RawMessage) (*Response, error) {
	if method == "" {
		return nil, errors.New("method is required")
	}

	body, err := json.Marshal(NewRequest("btcgw", method, params...))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Auth != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.Auth)))
	}

	hc := c.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// Call sends method and decodes the result into v.
func (c *Client) Call(ctx context.Context, v any, method string, params ...any) error {
	raw, err := Params(params...)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, method, raw...)
	if err != nil {
		return err
	}
	return resp.Decode(v)
}
