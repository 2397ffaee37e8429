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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/config"
	"github.com/Devkz19/Take-Home-inventory/internal/discovery"
	"github.com/Devkz19/Take-Home-inventory/internal/gateway"
	"github.com/Devkz19/Take-Home-inventory/internal/logger"
	"github.com/Devkz19/Take-Home-inventory/internal/server"
)

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var resolver gateway.Resolver
	if cfg.Consul.Enabled {
		consul, err := discovery.NewConsulClient(cfg.Consul, log)
		if err != nil {
			log.Warn("Failed to connect to Consul, using static routes", zap.Error(err))
		} else {
			resolver = consul
		}
	}

	gw := gateway.New(resolver, map[string]string{
		cfg.Gateway.ProductServiceName: cfg.Gateway.ProductServiceURL,
	}, log)
	if resolver != nil {
		go gw.Watch(ctx, cfg.Gateway.RefreshInterval)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), server.RequestID(), server.Logger(log), server.CORS(cfg.Server.AllowedOrigins))
	gw.Routes(router, cfg.Server.APIPrefix, cfg.Gateway.ProductServiceName)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler: router,
	}

	go func() {
		log.Info("API Gateway starting", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Gateway failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Gateway forced to shutdown", zap.Error(err))
	}
	log.Info("Gateway exited")
}
