package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/bwsproxy/config"
	"github.com/jonwraymond/bwsproxy/gateway"
	"github.com/jonwraymond/bwsproxy/health"
	"github.com/jonwraymond/bwsproxy/observe"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// run serves until ctx is cancelled or a listener fails.
func run(ctx context.Context, cfg config.Config, version string) error {
	obs, err := observe.NewObserver(ctx, cfg.Observe(version))
	if err != nil {
		return fmt.Errorf("observability setup failed: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = obs.Shutdown(sctx)
	}()

	logger := obs.Logger()
	logger.Info(ctx, programName+" started", observe.Field{Key: "version", Value: version})

	router, err := newRouter(cfg, obs)
	if err != nil {
		return err
	}

	servers, err := newServers(cfg, router, logger)
	if err != nil {
		return err
	}

	err = serve(ctx, servers, logger)
	logger.Info(context.Background(), programName+" stopped", observe.Field{Key: "version", Value: version})
	return err
}

func newRouter(cfg config.Config, obs observe.Observer) (http.Handler, error) {
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	handler, err := gateway.NewHandler(gateway.Config{
		Sessions: cfg.Upstream().SessionFactory(),
		Logger:   obs.Logger(),
		Tracer:   observe.NewTracer(obs.Tracer()),
		Timeout:  cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	rc := gateway.RouterConfig{Handler: handler, Middleware: mw}
	if cfg.PrometheusEnabled() {
		rc.Metrics = promhttp.Handler()
	}
	return gateway.NewRouter(rc)
}

// newServers returns the primary server and, when configured, the health
// server forwarding to it.
func newServers(cfg config.Config, router http.Handler, logger observe.Logger) ([]*http.Server, error) {
	servers := []*http.Server{{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}}

	addr, ok := cfg.HealthAddr()
	if !ok {
		return servers, nil
	}

	fwd, err := health.NewForwarder(health.ForwarderConfig{
		Target: health.ForwardTarget(cfg.ListenAddress, cfg.ListenPort),
	})
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(http.MethodGet+" "+health.Path, health.Handler(fwd, logger))

	return append(servers, &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}), nil
}

// serve runs every server until ctx is done or one fails, then shuts all of
// them down.
func serve(ctx context.Context, servers []*http.Server, logger observe.Logger) error {
	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, srv := range servers {
		ln := listeners[i]
		logger.Info(ctx, "listening", observe.Field{Key: "address", Value: ln.Addr().String()})

		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
