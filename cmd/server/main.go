package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ordersvc/internal/commons"
	"ordersvc/internal/config"
	"ordersvc/internal/infrastructure/logger"
	"ordersvc/internal/infrastructure/mysql"
	"ordersvc/internal/infrastructure/natsbus"
	"ordersvc/internal/order"
	"ordersvc/internal/server"
)

func main() {
	cfg, err := commons.LoadConfig("internal/config/config.yaml")
	if err != nil {
		cfg, err = config.Load()
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	zapLogger, err := logger.New("orders", cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	bus, err := natsbus.Connect(cfg.NATS, zapLogger)
	if err != nil {
		zapLogger.Fatal("connecting to nats", zap.Error(err))
	}
	defer bus.Close()

	orderCtrl := order.NewModule(db, bus, cfg, zapLogger)
	if err := orderCtrl.Register(bus); err != nil {
		zapLogger.Fatal("registering bus handlers", zap.Error(err))
	}

	router := server.NewRouter(db, bus, zapLogger)
	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("ops server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	if err := bus.Drain(); err != nil {
		zapLogger.Warn("draining bus", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("ops server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
