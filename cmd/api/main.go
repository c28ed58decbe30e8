package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	deliveryhttp "nft-storefront/internal/adapter/delivery/http"
	handlerhttp "nft-storefront/internal/adapter/handler/http"
	"nft-storefront/internal/adapter/livefeed"
	"nft-storefront/internal/adapter/metrics"
	"nft-storefront/internal/adapter/storage/memory"
	"nft-storefront/internal/adapter/storage/networkfile"
	"nft-storefront/internal/adapter/storage/reservoir"
	"nft-storefront/internal/application"
	"nft-storefront/internal/application/chaincontext"
	"nft-storefront/internal/application/registry"
	"nft-storefront/internal/config"
	"nft-storefront/internal/domain/entity"
	"nft-storefront/internal/logger"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	if p := os.Getenv("STOREFRONT_CONFIG_PATH"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Chain Registry ---
	mode := entity.DeploymentModeFromHost(cfg.Deployment.HostURL, cfg.Deployment.MainnetHosts, cfg.Deployment.TestnetHost)
	appLogger.Info("Deployment mode resolved",
		zap.String("hostUrl", cfg.Deployment.HostURL),
		zap.String("mode", mode.String()),
	)

	extraMainnet, extraTestnet, err := networkfile.NewRepository(cfg.Chains.NetworksFile, appLogger).LoadNetworks(ctx)
	if err != nil {
		appLogger.Error("Failed to load custom networks, serving built-in chains only", zap.Error(err))
		extraMainnet, extraTestnet = nil, nil
	}
	mainnet, testnet := registry.MergeNetworks(
		registry.MainnetNetworks(), registry.TestnetNetworks(), extraMainnet, extraTestnet, appLogger,
	)

	chainRegistry, err := registry.NewRegistry(mode, mainnet, testnet, cfg.Chains.DefaultRoutePrefix, appLogger)
	if err != nil {
		appLogger.Fatal("Invalid network tables", zap.Error(err))
	}

	// --- Dependency Injection (Manual) ---
	appLogger.Info("Initializing dependencies...")

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(promRegistry)

	// Repositories
	rankingRepo := reservoir.NewRepository(cfg.API, appLogger, reservoir.WithMetrics(appMetrics))
	sessionRepo := memory.NewSessionRepository(cfg.Session, appLogger)
	visitorStats := memory.NewVisitorStats(appMetrics)

	// Services
	prefetchService := application.NewPrefetchService(rankingRepo, *cfg, appLogger)
	contexts := chaincontext.NewManager(chainRegistry, sessionRepo, appLogger)

	// Handlers
	pageHandler, err := handlerhttp.NewPageHandler(
		chainRegistry, prefetchService, contexts, visitorStats, appMetrics,
		cfg.HTTPCache.CacheControl(), appLogger,
	)
	if err != nil {
		appLogger.Fatal("Failed to build page handler", zap.Error(err))
	}
	apiHandler := handlerhttp.NewAPIHandler(chainRegistry, prefetchService, contexts, appLogger)
	feedHandler := livefeed.NewHandler(
		chainRegistry, prefetchService, contexts, cfg.Feed, cfg.Session.CookieName, appMetrics, appLogger,
	)
	sessions := handlerhttp.NewSessionMiddleware(cfg.Session.CookieName, cfg.Session.GetTTL(), sessionRepo, appLogger)

	// --- HTTP Router & Server ---
	appLogger.Info("Setting up HTTP router...")
	r := router.New()
	deliveryhttp.RegisterRoutes(r, deliveryhttp.Handlers{
		Pages:    pageHandler,
		API:      apiHandler,
		Feed:     feedHandler,
		Sessions: sessions,
		Gatherer: promRegistry,
	}, appLogger)

	server := &fasthttp.Server{
		Handler:      deliveryhttp.LoggingMiddleware(r.Handler, appLogger),
		Name:         cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverAddr := cfg.Server.Addr()
	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server",
			zap.String("address", serverAddr),
			zap.Int("chains", len(chainRegistry.ListSupportedChains())),
			zap.String("defaultChain", chainRegistry.DefaultChain().RoutePrefix),
		)
		errCh <- server.ListenAndServe(serverAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
