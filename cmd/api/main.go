package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/alloyplan/internal/config"
	"github.com/xelth-com/alloyplan/internal/database"
	"github.com/xelth-com/alloyplan/internal/handlers"
	"github.com/xelth-com/alloyplan/internal/layout"
	"github.com/xelth-com/alloyplan/internal/services/catalog"
	"github.com/xelth-com/alloyplan/internal/services/odoo"
	"github.com/xelth-com/alloyplan/internal/services/planning"
	"github.com/xelth-com/alloyplan/internal/session"
	"github.com/xelth-com/alloyplan/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema (Critical for Zero-Config)
	if err := db.Migrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	}

	// 4. Session store
	kv, closeStore := openSessionStore(cfg, db)
	persister := session.NewPersister(kv, session.WithMaxAge(cfg.Session.TTL))

	// 5. ERP backend: Odoo when configured, demo data otherwise
	var backend planning.Backend
	if cfg.Odoo.Enabled() {
		client := odoo.NewClient(odoo.Config{
			URL:      cfg.Odoo.URL,
			Database: cfg.Odoo.Database,
			Username: cfg.Odoo.Username,
			Password: cfg.Odoo.Password,
		})
		backend = odoo.NewBackend(client)
		log.Printf("🔗 ERP: Odoo at %s", cfg.Odoo.URL)
	} else {
		backend = planning.DemoBackend()
		log.Println("🧪 ERP: ODOO_URL not set, serving demo data")
	}

	// 6. Planning core
	invalidator := layout.NewInvalidator(cfg.Layout.SettleDelay)
	svc := planning.NewService(backend, persister, invalidator, planning.Options{
		SupplierID:        cfg.Odoo.SupplierID,
		CriticalPlanLimit: cfg.Dashboard.CriticalPlanLimit,
	})

	// 7. Console push channel
	hub := websocket.NewHub()
	go hub.Run()
	svc.SetNotifier(hub)
	unsubscribe := invalidator.Subscribe(func(e layout.LayoutInvalidation) {
		hub.Publish(planning.EventLayoutInvalidated, e)
	})

	// 8. Catalog refresh (Background) and session restore
	catalogService := catalog.NewService(backend, db.DB, svc.SetCatalog, cfg.Odoo.RefreshInterval)
	catalogService.Start()

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 10*time.Second)
	if status, err := svc.Restore(restoreCtx); err != nil {
		log.Printf("⚠️ Planner: session restore failed (%s): %v", status, err)
	} else {
		log.Printf("💾 Planner: session %s", status)
	}
	cancelRestore()

	// 9. Set up HTTP router
	router := handlers.NewRouter(svc, catalogService, hub, handlers.Options{
		JWTSecret: cfg.JWTSecret,
		StaticDir: os.Getenv("FRONTEND_DIR"),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server (%s) starting on port %s\n", cfg.NodeEnv, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	// Create context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	catalogService.Stop()
	unsubscribe()
	invalidator.Stop()
	hub.Stop()

	if closeStore != nil {
		if err := closeStore(); err != nil {
			log.Printf("Session store close error: %v", err)
		}
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

// openSessionStore picks the planner session backend. A Redis store that
// cannot be reached falls back to the database.
func openSessionStore(cfg *config.Config, db *database.DB) (session.KVStore, func() error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rs, err := session.NewRedisStore(cfg.Session.RedisAddr, "alloyplan:")
		if err == nil {
			log.Printf("💾 Sessions: Redis at %s", cfg.Session.RedisAddr)
			return rs, rs.Close
		}
		log.Printf("⚠️ Sessions: Redis unavailable (%v), using PostgreSQL", err)
	case config.SessionStoreMemory:
		log.Println("💾 Sessions: in-memory (lost on restart)")
		return session.NewMemoryStore(), nil
	}
	return session.NewGormStore(db.DB), nil
}
