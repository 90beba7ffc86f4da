package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"finsignal/internal/router"
	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled promotion worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB(gdb, log)

	strategy, err := newStrategyService(store, cfg, log)
	if err != nil {
		return err
	}
	api := services.NewAPIClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	lifecycle := services.NewLifecycle(services.LifecycleDeps{
		Store:     store,
		Usage:     store,
		Strategy:  strategy,
		Scorer:    api,
		Generator: api,
		Publisher: api,
		Logger:    log.With("component", "lifecycle"),
		Lease:     cfg.Scheduler.Lease,
	})

	if cfg.Scheduler.Enabled {
		promoter := services.NewPromoter(lifecycle, store, cfg.Scheduler.Interval, log.With("component", "promoter"), nil)
		promoter.Start(ctx)
		defer promoter.Stop()
	}

	if cfg.Auth.OperatorTokenHash == "" {
		log.Warn("OPERATOR_TOKEN_HASH is not set, operator routes are unauthenticated")
	}

	gin.SetMode(cfg.Server.Mode)
	engine := router.New(router.Deps{
		Lifecycle:         lifecycle,
		Queue:             services.NewQueueService(store, cfg.Scheduler.Lease, nil),
		Strategy:          strategy,
		Health:            services.NewHealthService(store, strategy, nil),
		Influencers:       services.NewInfluencerService(store, nil),
		Feeds:             services.NewFeedService(store),
		Analytics:         services.NewAnalyticsService(api, strategy),
		OperatorTokenHash: cfg.Auth.OperatorTokenHash,
		Logger:            log.With("component", "http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("finsignal server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
