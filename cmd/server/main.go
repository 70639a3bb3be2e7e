// Command server is the entry point for the Colloquy comment engine.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/database"
	"colloquy/internal/middleware"
	"colloquy/internal/server"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := middleware.NewLogger(cfg.Env)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// Notifications degrade to no-ops without Redis; the engine
		// itself keeps working.
		logger.Warn("redis unavailable, notifications disabled", "error", err)
		rdb = nil
	}

	srv := server.NewServer(cfg, db, rdb, logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
	if err := srv.Listen(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
