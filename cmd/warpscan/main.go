package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Belloabraham121/warpscan/internal/cache"
	"github.com/Belloabraham121/warpscan/internal/config"
	"github.com/Belloabraham121/warpscan/internal/explorer"
	"github.com/Belloabraham121/warpscan/internal/handler"
	"github.com/Belloabraham121/warpscan/internal/rpc"
	"github.com/Belloabraham121/warpscan/internal/scanapi"
	"github.com/Belloabraham121/warpscan/internal/stream"
	"github.com/Belloabraham121/warpscan/internal/subscription"
	"github.com/Belloabraham121/warpscan/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(
		cfg.Logging.Level,
		cfg.Logging.ToFile,
		cfg.Logging.FilePath,
		cfg.Logging.Format,
	)

	dialCtx, dialCancel := context.WithTimeout(context.Background(), cfg.Node.Timeout)
	node, err := rpc.Dial(dialCtx, cfg.Node.RPCURL, cfg.Node.ChainID, cfg.Node.Timeout)
	dialCancel()
	if err != nil {
		log.Error("Failed to connect to node at %s: %v", cfg.Node.RPCURL, err)
		os.Exit(1)
	}
	defer node.Close()
	log.Info("Connected to node at %s (chain %d, subscriptions=%v)",
		cfg.Node.RPCURL, cfg.Node.ChainID, node.SupportsSubscriptions())

	index := scanapi.New(cfg.Scan.BaseURL, cfg.Scan.APIKey, cfg.Node.ChainID, cfg.Scan.Timeout)
	if index.Available() {
		log.Info("Indexed API enabled at %s", cfg.Scan.BaseURL)
	} else {
		log.Warn("No indexed API key configured; history views will be empty")
	}

	store := cache.New(cfg.Cache.Enabled, cfg.Cache.Overrides)
	service := explorer.New(node, index, store, log, cfg.Node.ChainID, cfg.Node.Local)

	manager := subscription.NewManager(node, log, cfg.Subscription.PollInterval, cfg.Subscription.EventBuffer)
	hub := stream.NewHub(cfg.Subscription.EventBuffer, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx, manager.Events())

	explorerHandler := handler.NewExplorerHandler(service)
	streamHandler := handler.NewStreamHandler(hub, manager)

	router := setupRouter(explorerHandler, streamHandler)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	manager.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(explorerHandler *handler.ExplorerHandler, streamHandler *handler.StreamHandler) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.GET("/address/:address", explorerHandler.GetAddressInfo)
		api.GET("/address/:address/txs", explorerHandler.GetAddressTransactions)
		api.GET("/address/:address/transfers", explorerHandler.GetTokenTransfers)
		api.GET("/address/:address/internal", explorerHandler.GetInternalTransactions)
		api.GET("/address/:address/tokens", explorerHandler.GetTokenBalances)
		api.GET("/address/:address/name", explorerHandler.ResolveName)
		api.GET("/tx/:hash", explorerHandler.GetTransaction)
		api.GET("/block/latest", explorerHandler.GetLatestBlock)
		api.GET("/block/:number", explorerHandler.GetBlock)
		api.GET("/gas", explorerHandler.GetGasPrices)
		api.POST("/gas/estimate", explorerHandler.EstimateGas)

		api.GET("/cache", explorerHandler.GetCacheStats)
		api.DELETE("/cache", explorerHandler.ClearCache)

		api.GET("/subscriptions", streamHandler.ListSubscriptions)
		api.POST("/subscriptions/blocks/:id", streamHandler.SubscribeBlocks)
		api.POST("/subscriptions/address/:id", streamHandler.SubscribeAddress)
		api.DELETE("/subscriptions/:id", streamHandler.Unsubscribe)
	}

	router.GET("/ws", streamHandler.HandleWebSocket)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return router
}
