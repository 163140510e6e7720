// Package main wires together the bot service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/access"
	"github.com/botfleet/linkrelay/internal/api"
	"github.com/botfleet/linkrelay/internal/browser"
	"github.com/botfleet/linkrelay/internal/cache"
	"github.com/botfleet/linkrelay/internal/clock/system"
	"github.com/botfleet/linkrelay/internal/config"
	"github.com/botfleet/linkrelay/internal/logging"
	"github.com/botfleet/linkrelay/internal/metrics"
	queueMemory "github.com/botfleet/linkrelay/internal/queue/memory"
	"github.com/botfleet/linkrelay/internal/resolver"
	"github.com/botfleet/linkrelay/internal/router"
	"github.com/botfleet/linkrelay/internal/scheduler"
	"github.com/botfleet/linkrelay/internal/telegram"
	"github.com/botfleet/linkrelay/internal/tenant"
	"github.com/botfleet/linkrelay/internal/upstream"
	"github.com/botfleet/linkrelay/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	registry := tenant.NewRegistry(cfg.Tenants, logger.Named("tenant"))
	if registry.ActiveCount() == 0 {
		logger.Warn("no tenants mounted, only the status surface will respond")
	}

	store := cache.New()
	clock := system.New()

	pool := browser.NewPool(browser.Config{
		NavigationTimeout: cfg.NavTimeout(),
		Settle:            time.Duration(cfg.Browser.SettleMs) * time.Millisecond,
		UserAgent:         cfg.Browser.UserAgent,
	})
	if err := pool.Start(ctx); err != nil {
		// Dynamic resolution will answer "service unavailable" until the
		// process restarts with a working browser.
		logger.Error("browser engine start failed", zap.Error(err))
	}
	defer pool.Close()

	fetcher := upstream.New(upstream.Config{
		Timeout:   cfg.FetchTimeout(),
		UserAgent: cfg.Browser.UserAgent,
	})
	res := resolver.New(store, fetcher, pool, cfg.CacheTTL(), cfg.FetchTimeout(), logger.Named("resolver"))

	sender := telegram.NewClient(
		cfg.Telegram.APIBase,
		time.Duration(cfg.Telegram.TimeoutSeconds)*time.Second,
		logger.Named("telegram"),
	)

	ctrl := access.New(registry, logger.Named("access"))
	rtr := router.New(registry, ctrl, res, sender, logger.Named("router"))

	queue := queueMemory.NewQueue(cfg.Queue.Depth)
	workers := worker.NewPool(queue, rtr, cfg.Queue.Workers, logger)
	go workers.Run(ctx)

	sched := scheduler.New(registry, sender, clock,
		time.Duration(cfg.Scheduler.PollSeconds)*time.Second, logger.Named("scheduler"))
	go sched.Run(ctx)

	if cfg.Telegram.RegisterWebhooks {
		registerWebhooks(ctx, cfg, registry, sender, logger)
	}

	apiServer := api.NewServer(registry, queue, store, pool, clock, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	logger.Info("shutdown complete")
}

// registerWebhooks points every mounted tenant's webhook at this service.
func registerWebhooks(
	ctx context.Context,
	cfg config.Config,
	registry *tenant.Registry,
	client *telegram.Client,
	logger *zap.Logger,
) {
	base := cfg.Telegram.PublicBaseURL
	for _, t := range registry.All() {
		url := base + t.WebhookPath
		regCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := client.RegisterWebhook(regCtx, t.Token, url)
		cancel()
		if err != nil {
			logger.Warn("webhook registration failed",
				zap.String("tenant", t.ID), zap.Error(err))
			continue
		}
		logger.Info("webhook registered", zap.String("tenant", t.ID))
	}
}
