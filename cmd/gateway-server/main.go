package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/application"
	gatewayhttp "github.com/dmehra2102/Send-Payment-Service/internal/gateway/infrastructure/http"
	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/infrastructure/memory"
	"github.com/dmehra2102/Send-Payment-Service/pkg/config"
	"github.com/dmehra2102/Send-Payment-Service/pkg/idempotency"
	"github.com/dmehra2102/Send-Payment-Service/pkg/logging"
	"github.com/dmehra2102/Send-Payment-Service/pkg/shutdown"
	"github.com/dmehra2102/Send-Payment-Service/pkg/tracing"
)

func main() {
	cfgErr := config.Load()
	log := logging.New(config.String("LOG_LEVEL", "info"))
	if cfgErr != nil {
		log.Error("config load failed", "err", cfgErr)
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Configuration
	httpAddr := config.String("HTTP_ADDR", ":3000")
	redisAddr := config.String("REDIS_ADDR", "")
	otelEndpoint := config.String("OTEL_ENDPOINT", "")
	faultRate := config.Float("FAULT_RATE", 0)

	shutdownTracing, err := tracing.Init(ctx, "gateway-server", otelEndpoint)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Idempotency-Key support is only available with Redis
	var idem gatewayhttp.Deduper
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis ping failed", "err", err)
			os.Exit(1)
		}
		idem = idempotency.NewStore(rdb, 24*time.Hour)
	}

	svc := application.NewService(log, memory.NewRepository(), application.WithFaultRate(faultRate))
	handler := gatewayhttp.NewHandler(log, svc, idem)

	// HTTP server
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", httpAddr, "fault_rate", faultRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("gateway-server shutdown complete")
}
