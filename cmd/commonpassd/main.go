// Commonpassd serves the common-password query API over HTTP.
//
// Configuration comes from the environment (see internal/config). The
// filter is loaded at startup and reloaded on SIGHUP or POST /v1/reload; a
// failed reload keeps the filter that is already serving.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamirms/commonpass"
	"github.com/tamirms/commonpass/internal/config"
	"github.com/tamirms/commonpass/internal/httpapi"
	"github.com/tamirms/commonpass/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "commonpassd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	checker := commonpass.NewChecker(
		commonpass.WithStore(store),
		commonpass.WithNormalization(cfg.Normalization),
		commonpass.WithLogger(log.Logger),
	)
	reload := func(ctx context.Context) error {
		var opts []commonpass.InitOption
		if cfg.Path != "" {
			opts = append(opts, commonpass.WithPath(cfg.Path))
		}
		return checker.Initialize(ctx, cfg.Tier, cfg.Version, opts...)
	}
	if err := reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	var routerOpts []httpapi.RouterOption
	if cfg.RateLimitRPS > 0 {
		routerOpts = append(routerOpts, httpapi.WithRateLimit(httpapi.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}
	router := httpapi.NewRouter(&httpapi.Handler{Checker: checker, Reload: reload}, log, routerOpts...)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				// Initialize logs the outcome.
				_ = reload(ctx)
			}
		}
	}()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", srv.Addr, "tier", cfg.Tier, "store", cfg.Store)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return <-errCh
}
