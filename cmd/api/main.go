package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/handlers"
	"github.com/xelth-com/fieldopsgo/internal/sync"
	"github.com/xelth-com/fieldopsgo/internal/utils"
	"github.com/xelth-com/fieldopsgo/internal/websocket"
	"github.com/xelth-com/fieldopsgo/internal/workflow"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Open the local store (runs pending migrations)
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	version, _ := db.SchemaVersion()
	log.Printf("📦 Local store ready (schema v%d)", version)

	// 3. Stable device identity for sync attribution
	ident, err := utils.LoadOrGenerateIdentity(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to establish instance identity: %v", err)
	}
	log.Printf("🆔 Instance: %s", ident.InstanceID)

	// 4. Event hub for connected field devices
	hub := websocket.NewHub()
	go hub.Run()

	// 5. Sync engine + background service
	client := sync.NewClient(cfg.Sync.APIBaseURL, time.Duration(cfg.Sync.SyncTimeout)*time.Second)
	engine := sync.NewEngine(db, client, cfg.Sync, hub)
	syncSvc := sync.NewService(engine, cfg.Sync)
	syncSvc.Start()

	// 6. Fulfillment workflow
	wf := workflow.New(db, hub)

	// 7. HTTP router
	router := handlers.NewRouter(db, cfg, wf, syncSvc, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	syncSvc.Stop()

	log.Println("🛑 Closing local store...")
	if err := db.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
