// Package proxy is an authenticating reverse proxy in front of the bitcoind
// JSON-RPC port. It takes the place of an nginx location block forwarding
// the public RPC port to the local one.
package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/rpcauth"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// MaxBodySize caps inbound request bodies.
const MaxBodySize = 1 << 20

// JSON-RPC error codes written by the proxy itself
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// Options configures a Proxy.
type Options struct {
	Upstream string // bitcoind RPC URL, e.g. http://127.0.0.1:18332

	// credentials presented to bitcoind; empty user forwards no auth
	User     string
	Password string

	// inbound basic auth; nil or empty means open access
	Auth *rpcauth.Authenticator

	// empty allows every method
	AllowedMethods []string

	RateLimit float64 // requests per second per client IP, 0 disables
	Burst     int

	Metrics *Metrics
	Logger  zerolog.Logger
}

// Proxy forwards JSON-RPC requests to bitcoind.
type Proxy struct {
	upstream *url.URL
	user     string
	password string
	auth     *rpcauth.Authenticator
	allowed  map[string]bool
	limiter  *limiter
	metrics  *Metrics
	log      zerolog.Logger
	rp       *httputil.ReverseProxy
}

// New validates opts and builds a Proxy.
func New(opts Options) (*Proxy, error) {
	upstream, err := url.Parse(opts.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	if upstream.Host == "" || (upstream.Scheme != "http" && upstream.Scheme != "https") {
		return nil, fmt.Errorf("invalid upstream url %q: expected http(s)://host:port", opts.Upstream)
	}

	metrics := opts.Metrics
	if metrics == nil {
		if metrics, err = NewMetrics(nil); err != nil {
			return nil, err
		}
	}

	p := &Proxy{
		upstream: upstream,
		user:     opts.User,
		password: opts.Password,
		auth:     opts.Auth,
		limiter:  newLimiter(opts.RateLimit, opts.Burst),
		metrics:  metrics,
		log:      opts.Logger.With().Str("component", "proxy").Logger(),
	}

	if len(opts.AllowedMethods) > 0 {
		p.allowed = make(map[string]bool, len(opts.AllowedMethods))
		for _, m := range opts.AllowedMethods {
			if m = strings.TrimSpace(m); m != "" {
				p.allowed[m] = true
			}
		}
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		ErrorHandler: p.upstreamError,
	}
	return p, nil
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.upstream)
	pr.SetXForwarded()
	pr.Out.Header.Set("X-Real-IP", clientIP(pr.In))

	// inbound credentials are for the proxy only
	pr.Out.Header.Del("Authorization")
	if p.user != "" {
		pr.Out.SetBasicAuth(p.user, p.password)
	}
}

func (p *Proxy) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	p.log.Error().Err(err).Str("path", r.URL.Path).Msg("upstream request failed")
	writeRPCError(w, http.StatusBadGateway, codeInternalError, "bitcoind is unavailable")
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	log := p.log.With().Str("ip", ip).Str("path", r.URL.Path).Logger()

	if r.Method != http.MethodPost {
		p.reject(reasonMethod)
		w.Header().Set("Allow", http.MethodPost)
		writeRPCError(w, http.StatusMethodNotAllowed, codeInvalidRequest, "JSON-RPC server handles only POST requests")
		return
	}

	if !p.limiter.allow(ip) {
		p.reject(reasonRateLimit)
		log.Warn().Msg("rate limit exceeded")
		writeRPCError(w, http.StatusTooManyRequests, codeInvalidRequest, "rate limit exceeded")
		return
	}

	if p.auth.Enabled() {
		user, pass, ok := r.BasicAuth()
		if !ok || !p.auth.Check(user, pass) {
			p.reject(reasonAuth)
			log.Warn().Str("user", user).Msg("rejected credentials")
			w.Header().Set("WWW-Authenticate", `Basic realm="jsonrpc"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		p.reject(reasonBody)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeRPCError(w, http.StatusRequestEntityTooLarge, codeInvalidRequest, "request body too large")
			return
		}
		writeRPCError(w, http.StatusBadRequest, codeInvalidRequest, "failed to read request body")
		return
	}

	methods, err := requestMethods(body)
	if err != nil {
		p.reject(reasonParse)
		writeRPCError(w, http.StatusBadRequest, codeParseError, err.Error())
		return
	}

	for _, m := range methods {
		if p.allowed != nil && !p.allowed[m] {
			p.reject(reasonForbidden)
			log.Warn().Str("method", m).Msg("method not allowed")
			writeRPCError(w, http.StatusForbidden, codeMethodNotFound, fmt.Sprintf("method %q is not allowed", m))
			return
		}
	}

	label := p.methodLabel(methods)

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	p.rp.ServeHTTP(rec, r)
	took := time.Since(start)

	p.metrics.Latency.WithLabelValues(label).Observe(took.Seconds())
	p.metrics.Requests.WithLabelValues(label, strconv.Itoa(rec.status)).Inc()

	log.Debug().
		Strs("methods", methods).
		Int("status", rec.status).
		Dur("took", took).
		Msg("forwarded")
}

func (p *Proxy) reject(reason string) {
	p.metrics.Rejected.WithLabelValues(reason).Inc()
}

// methodLabel keeps the metric cardinality bounded: batches collapse to
// "batch" and, without an allowlist, unusual names collapse to "other".
func (p *Proxy) methodLabel(methods []string) string {
	if len(methods) != 1 {
		return "batch"
	}
	m := methods[0]
	if p.allowed != nil {
		return m
	}
	if len(m) > 40 {
		return "other"
	}
	for _, r := range m {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "other"
		}
	}
	return m
}

// requestMethods extracts the method names of a single or batch request.
func requestMethods(body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("parse error")
	}

	req := gjson.ParseBytes(body)
	switch {
	case req.IsArray():
		items := req.Array()
		if len(items) == 0 {
			return nil, errors.New("empty batch")
		}
		methods := make([]string, 0, len(items))
		for i, item := range items {
			m := item.Get("method")
			if m.Type != gjson.String || m.Str == "" {
				return nil, fmt.Errorf("batch item %d: method must be a string", i)
			}
			methods = append(methods, m.Str)
		}
		return methods, nil

	case req.IsObject():
		m := req.Get("method")
		if m.Type != gjson.String || m.Str == "" {
			return nil, errors.New("method must be a string")
		}
		return []string{m.Str}, nil

	default:
		return nil, errors.New("request must be an object or an array")
	}
}

type rpcErrorBody struct {
	Result any         `json:"result"`
	Error  rpcErrorObj `json:"error"`
	ID     any         `json:"id"`
}

type rpcErrorObj struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(rpcErrorBody{Error: rpcErrorObj{Code: code, Message: message}})
}

// clientIP is the remote host without port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
