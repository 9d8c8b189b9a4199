package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/xelth-com/alloyplan/internal/config"
	"github.com/xelth-com/alloyplan/internal/database"
	"github.com/xelth-com/alloyplan/internal/models"
	"github.com/xelth-com/alloyplan/internal/services/catalog"
	"github.com/xelth-com/alloyplan/internal/services/planning"
	"github.com/xelth-com/alloyplan/internal/session"
)

func main() {
	withPlans := flag.Bool("plans", false, "also store a demo planner session")
	flag.Parse()

	fmt.Println("🌱 alloyplan Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// The catalog service writes the cache the API server starts from
	backend := planning.DemoBackend()
	n, err := catalog.NewService(backend, db.DB, nil, 0).Refresh(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to seed catalog: %v", err)
	}
	fmt.Printf("✅ Cached %d stock items\n", n)

	if !*withPlans {
		return
	}

	persister := session.NewPersister(session.NewGormStore(db.DB), session.WithMaxAge(cfg.Session.TTL))
	svc := planning.NewService(backend, persister, nil, planning.Options{})
	svc.SetCatalog(planning.DemoCatalog())
	svc.ClearPlans(ctx)
	added := svc.AddAll(ctx)
	fmt.Printf("✅ Stored a planner session with %d plans\n", added)

	for _, p := range svc.Plans().Plans {
		fmt.Printf("   %s  %-34s -> %s\n", p.PlanID, p.SourceItem.DisplayName, target(p))
	}
}

func target(p models.ConversionPlan) string {
	if !p.HasTarget() {
		return "(open)"
	}
	return p.Target()
}
