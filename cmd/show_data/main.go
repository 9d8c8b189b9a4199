package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/xelth-com/alloyplan/internal/config"
	"github.com/xelth-com/alloyplan/internal/database"
	"github.com/xelth-com/alloyplan/internal/matching"
	"github.com/xelth-com/alloyplan/internal/models"
	"github.com/xelth-com/alloyplan/internal/services/catalog"
	"github.com/xelth-com/alloyplan/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		fmt.Println("\n💡 Try seeding first:")
		fmt.Println("   go run ./cmd/seed_demo")
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║          📊 alloyplan Cached Data Report                  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	items, err := catalog.NewService(nil, db.DB, nil, 0).LoadCached(ctx)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// Group finish variants by specification
	index := matching.NewSpecificationIndex(items)
	specs := make(map[models.ProductSpecification]bool)
	for _, item := range items {
		specs[item.Spec()] = true
	}
	ordered := make([]models.ProductSpecification, 0, len(specs))
	for spec := range specs {
		ordered = append(ordered, spec)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.ModelID != b.ModelID {
			return a.ModelID < b.ModelID
		}
		if a.SizeID != b.SizeID {
			return a.SizeID < b.SizeID
		}
		return a.WidthID < b.WidthID
	})

	fmt.Println("📈 CATALOG CACHE")
	fmt.Println("──────────────────────────────────────────────────────────")
	fmt.Printf("  Stock items:     %3d\n", len(items))
	fmt.Printf("  Specifications:  %3d\n", len(ordered))
	fmt.Println()

	for _, spec := range ordered {
		variants := index.Lookup(spec)
		fmt.Printf("  model %d size %d pcd %d holes %d width %d\n", spec.ModelID, spec.SizeID, spec.PcdID, spec.HolesID, spec.WidthID)
		for _, v := range variants {
			marker := ""
			if matching.IsUncoated(v.FinishName) {
				marker = "  (uncoated)"
			}
			fmt.Printf("      └─ [%d] %-24s stock %3d%s\n", v.ID, v.FinishName, v.Stock(), marker)
		}
	}
	fmt.Println()

	// Planner session
	snap, status, err := session.NewPersister(session.NewGormStore(db.DB), session.WithMaxAge(cfg.Session.TTL)).Load(ctx)
	fmt.Println("💾 PLANNER SESSION")
	fmt.Println("──────────────────────────────────────────────────────────")
	if err != nil {
		fmt.Printf("  %s: %v\n", status, err)
		return
	}
	fmt.Printf("  Status: %s\n", status)
	if status != session.StatusRestored {
		return
	}
	fmt.Printf("  Saved:  %s\n", snap.SavedAt().Format("2006-01-02 15:04:05"))
	for _, id := range snap.SelectedRows {
		p := snap.ConversionPlans[id]
		fmt.Printf("  %s  %-34s x%d -> %s\n", id, p.SourceItem.DisplayName, p.Quantity, p.Target())
	}
}
