package api

import (
	"errors"
	"net/http"
	"time"

	_ "github.com/AlexZinkM/btc-node-gateway/docs"
	"github.com/AlexZinkM/btc-node-gateway/internal/addressbook"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/handler"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

const requestIDHeader = "X-Request-ID"

// Options holds the router dependencies
type Options struct {
	Client      *client.BitcoindClient
	Book        *addressbook.Book
	PayCooldown int // minutes
	Logger      zerolog.Logger

	// Registry receives the API metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry
}

// SetupRouter sets up router with handlers
func SetupRouter(opts Options) (http.Handler, error) {
	bitcoinHandler, err := handler.NewBitcoinHandler(opts.Client, opts.Book, opts.PayCooldown)
	if err != nil {
		return nil, err
	}

	instrument, err := newInstrumentation(opts.Registry)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(pattern, h))
	}

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	if opts.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	route("/health", bitcoinHandler.Health)
	route("/ready", bitcoinHandler.Ready)

	// Chain endpoints
	route("/bitcoin/blockchain", bitcoinHandler.Blockchain)
	route("/bitcoin/block", bitcoinHandler.Block)

	// Wallet endpoints
	route("/bitcoin/wallet", bitcoinHandler.WalletInfo)
	route("/bitcoin/wallet/create", bitcoinHandler.CreateWallet)
	route("/bitcoin/wallet/load", bitcoinHandler.LoadWallet)
	route("/bitcoin/address/new", bitcoinHandler.NewAddress)
	route("/bitcoin/addresses", bitcoinHandler.Addresses)

	// Transaction endpoints
	route("/bitcoin/tx/fund", bitcoinHandler.FundTx)
	route("/bitcoin/tx/sign", bitcoinHandler.SignTx)
	route("/bitcoin/tx/send", bitcoinHandler.SendTx)
	route("/bitcoin/pay", bitcoinHandler.Pay)

	return withLogging(opts.Logger, mux), nil
}

// newInstrumentation returns a wrapper counting requests and timing them per route.
func newInstrumentation(reg *prometheus.Registry) (func(string, http.Handler) http.Handler, error) {
	if reg == nil {
		return func(_ string, h http.Handler) http.Handler { return h }, nil
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcgw",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "REST API requests by route and status code",
	}, []string{"handler", "code", "method"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "btcgw",
		Subsystem: "api",
		Name:      "request_seconds",
		Help:      "REST API request duration by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler", "code", "method"})

	for _, c := range []prometheus.Collector{requests, duration} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}

	return func(pattern string, h http.Handler) http.Handler {
		labels := prometheus.Labels{"handler": pattern}
		return promhttp.InstrumentHandlerDuration(duration.MustCurryWith(labels),
			promhttp.InstrumentHandlerCounter(requests.MustCurryWith(labels), h))
	}, nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// withLogging puts log in the request context and logs every request.
// Requests keep an incoming X-Request-ID, others get a fresh one.
func withLogging(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		l := log.With().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(sw, r.WithContext(l.WithContext(r.Context())))

		l.Info().Int("status", sw.status).Dur("took", time.Since(start)).Msg("http request")
	})
}
