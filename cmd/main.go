package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatewarden/internal/config"
	"gatewarden/internal/engine"
	"gatewarden/internal/game"
	"gatewarden/internal/interfaces"
	"gatewarden/internal/storage"
	"gatewarden/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize storage connections
	var store interfaces.GameStore
	pgStore, err := storage.NewPostgresStore(cfg.Database.Postgres)
	if err != nil {
		log.Printf("Warning: Failed to connect to Postgres: %v", err)
		log.Println("Falling back to in-memory store; state will not survive a restart")
		store = storage.NewMemStore()
	} else {
		defer pgStore.Close()
		log.Println("Postgres connected successfully")
		store = pgStore
	}

	var cache interfaces.EventCache
	redisStore, err := storage.NewRedisStore(cfg.Database.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
	} else {
		defer redisStore.Close()
		log.Println("Redis connected successfully")
		cache = redisStore
	}

	// Optional flavor text engine
	if cfg.AI.Flavor.APIKey == "" {
		log.Println("Warning: No completion API key provided. Pet descriptions use canned text.")
	}
	flavorEngine := engine.NewFlavorEngine(cfg.AI.Flavor)

	// Game service and live event hub
	service := game.NewGameService(store, cache, nil, cfg.Game)

	hub := web.NewEventHub()
	go hub.Run()
	service.SetEventSink(hub)

	// Create router
	r := web.NewRouter(service, flavorEngine, hub)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
