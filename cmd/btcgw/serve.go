package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/btc-node-gateway/internal/api"
	"github.com/AlexZinkM/btc-node-gateway/internal/client"
	"github.com/AlexZinkM/btc-node-gateway/internal/config"
	"github.com/AlexZinkM/btc-node-gateway/internal/proxy"
	"github.com/AlexZinkM/btc-node-gateway/internal/rpcauth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var noProxy bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST gateway (PORT) and the JSON-RPC proxy (PROXY_LISTEN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.Get()
			log := zerolog.Ctx(ctx)
			reg := newRegistry()

			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			book, err := openBook()
			if err != nil {
				return err
			}

			router, err := api.SetupRouter(api.Options{
				Client:      c,
				Book:        book,
				PayCooldown: cfg.PayCooldown,
				Logger:      *log,
				Registry:    reg,
			})
			if err != nil {
				return err
			}

			servers := []*http.Server{newServer(ctx, ":"+cfg.Port, router)}
			if !noProxy {
				p, err := newProxy(cfg, reg, *log)
				if err != nil {
					return err
				}
				servers = append(servers, newServer(ctx, cfg.ProxyListen, p))
			}

			log.Info().
				Str("api", ":"+cfg.Port).
				Str("proxy", cfg.ProxyListen).
				Str("upstream", upstreamBase(cfg.RPCURL)).
				Str("network", cfg.Network).
				Msg("server starting")
			return run(ctx, servers...)
		},
	}
	cmd.Flags().BoolVar(&noProxy, "no-proxy", false, "serve the REST API only")
	return cmd
}

func proxyCmd() *cobra.Command {
	var metricsListen string
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run only the authenticating JSON-RPC proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.Get()
			log := zerolog.Ctx(ctx)
			reg := newRegistry()

			if err := unlockCredentials(); err != nil {
				return err
			}
			p, err := newProxy(cfg, reg, *log)
			if err != nil {
				return err
			}

			servers := []*http.Server{newServer(ctx, cfg.ProxyListen, p)}
			if metricsListen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				servers = append(servers, newServer(ctx, metricsListen, mux))
			}

			log.Info().
				Str("listen", cfg.ProxyListen).
				Str("upstream", upstreamBase(cfg.RPCURL)).
				Msg("proxy starting")
			return run(ctx, servers...)
		},
	}
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "address serving /metrics, disabled when empty")
	return cmd
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newProxy(cfg *config.Config, reg prometheus.Registerer, log zerolog.Logger) (*proxy.Proxy, error) {
	user, pass, err := client.Credentials(cfg)
	if err != nil {
		return nil, err
	}

	entries, err := rpcauth.ParseAll(cfg.ProxyRPCAuth)
	if err != nil {
		return nil, err
	}
	auth := rpcauth.NewAuthenticator(entries)
	if !auth.Enabled() {
		log.Warn().Msg("PROXY_RPCAUTH is empty, proxy accepts unauthenticated requests")
	}

	metrics, err := proxy.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	return proxy.New(proxy.Options{
		Upstream:       upstreamBase(cfg.RPCURL),
		User:           user,
		Password:       pass,
		Auth:           auth,
		AllowedMethods: cfg.ProxyAllowedMethods,
		RateLimit:      cfg.ProxyRateLimit,
		Burst:          cfg.ProxyBurst,
		Metrics:        metrics,
		Logger:         log,
	})
}

func newServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// run serves until ctx is cancelled or one server fails, then shuts all of them down.
func run(ctx context.Context, servers ...*http.Server) error {
	log := zerolog.Ctx(ctx)
	errs := make(chan error, len(servers))

	for _, srv := range servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
				return
			}
			errs <- nil
		}(srv)
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errs:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Warn().Err(serr).Str("addr", srv.Addr).Msg("shutdown failed")
		}
	}
	return err
}
