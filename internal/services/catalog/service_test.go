package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/xelth-com/alloyplan/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeFetcher struct {
	items []models.StockItem
	err   error
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context) ([]models.StockItem, error) {
	return f.items, f.err
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:catalog_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.StockItem{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM stock_items")
	})
	return db
}

func item(id int64, finish string, stock int) models.StockItem {
	return models.StockItem{
		ProductSpecification: models.ProductSpecification{ModelID: 1, SizeID: 17, PcdID: 2, HolesID: 5, WidthID: 7},
		ID:                   id,
		FinishID:             id,
		FinishName:           finish,
		InHouseStock:         stock,
	}
}

func TestRefresh_DeliversAndCaches(t *testing.T) {
	db := openDB(t)
	fetcher := &fakeFetcher{items: []models.StockItem{item(1, "Silver", 3), item(2, "Black", 0)}}

	var delivered []models.StockItem
	svc := NewService(fetcher, db, func(items []models.StockItem) { delivered = items }, 0)

	n, err := svc.Refresh(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Refresh = %d, %v", n, err)
	}
	if len(delivered) != 2 {
		t.Fatalf("Sink got %d items", len(delivered))
	}

	// second refresh drops item 2 and changes item 1
	fetcher.items = []models.StockItem{item(1, "Silver", 9)}
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	cached, err := svc.LoadCached(context.Background())
	if err != nil {
		t.Fatalf("LoadCached failed: %v", err)
	}
	if len(cached) != 1 || cached[0].ID != 1 || cached[0].InHouseStock != 9 {
		t.Errorf("Unexpected cache %+v", cached)
	}
	if cached[0].Spec() != item(1, "", 0).Spec() {
		t.Errorf("Specification not persisted: %+v", cached[0].Spec())
	}
}

func TestRefresh_FailureKeepsSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{items: []models.StockItem{item(1, "Silver", 3)}}
	calls := 0
	svc := NewService(fetcher, nil, func(items []models.StockItem) { calls++ }, 0)

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	fetcher.err = errors.New("erp down")
	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("Expected refresh error")
	}
	if calls != 1 {
		t.Errorf("Sink must not be called on failure, got %d calls", calls)
	}
	st := svc.Status()
	if st.LastError != "erp down" || st.LastRefresh.IsZero() {
		t.Errorf("Unexpected status %+v", st)
	}
}
