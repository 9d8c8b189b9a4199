package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xelth-com/alloyplan/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fetcher reads the current catalog from the ERP
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]models.StockItem, error)
}

// Sink receives every freshly loaded catalog snapshot
type Sink func(items []models.StockItem)

const fetchTimeout = 2 * time.Minute

// Service keeps the catalog snapshot fresh and mirrors it into the
// stock_items table so a restart can serve the last known catalog.
type Service struct {
	source   Fetcher
	db       *gorm.DB // nil disables the cache
	sink     Sink
	interval time.Duration

	mu          sync.Mutex
	lastRefresh time.Time
	lastErr     error

	stop     chan struct{}
	stopOnce sync.Once
}

// NewService creates a catalog service
func NewService(source Fetcher, db *gorm.DB, sink Sink, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Service{
		source:   source,
		db:       db,
		sink:     sink,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start loads the cached catalog and begins the background refresh loop
func (s *Service) Start() {
	if items, err := s.LoadCached(context.Background()); err != nil {
		log.Printf("⚠️ Catalog: cache unavailable: %v", err)
	} else if len(items) > 0 {
		log.Printf("📦 Catalog: serving %d cached items until the first refresh", len(items))
		s.deliver(items)
	}

	go func() {
		log.Println("📡 Catalog refresh started")
		s.refreshLogged()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.refreshLogged()
			case <-s.stop:
				log.Println("🛑 Catalog refresh stopped")
				return
			}
		}
	}()
}

// Stop halts the refresh loop
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Service) refreshLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	if _, err := s.Refresh(ctx); err != nil {
		log.Printf("❌ Catalog refresh failed: %v", err)
	}
}

// Refresh fetches the catalog and hands it to the sink. On failure the
// previous snapshot stays in place and the error is returned.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	items, err := s.source.FetchCatalog(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.lastRefresh = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}

	s.deliver(items)
	if err := s.store(ctx, items); err != nil {
		log.Printf("⚠️ Catalog: failed to cache snapshot: %v", err)
	}
	log.Printf("✅ Catalog: loaded %d items", len(items))
	return len(items), nil
}

func (s *Service) deliver(items []models.StockItem) {
	if s.sink != nil {
		s.sink(items)
	}
}

// store upserts the snapshot into stock_items, keyed by the ERP id
func (s *Service) store(ctx context.Context, items []models.StockItem) error {
	if s.db == nil || len(items) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.StockItem, len(items))
	for i, item := range items {
		item.LastSyncedAt = now
		rows[i] = item
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("upsert stock items: %w", err)
		}
		// items gone from the ERP leave the cache
		if err := tx.Where("last_synced_at < ?", now).Delete(&models.StockItem{}).Error; err != nil {
			return fmt.Errorf("prune stock items: %w", err)
		}
		return nil
	})
}

// LoadCached reads the last cached snapshot in ERP id order
func (s *Service) LoadCached(ctx context.Context) ([]models.StockItem, error) {
	if s.db == nil {
		return nil, nil
	}
	var items []models.StockItem
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load cached catalog: %w", err)
	}
	return items, nil
}

// Status describes the last refresh
type Status struct {
	LastRefresh time.Time `json:"lastRefresh"`
	LastError   string    `json:"lastError,omitempty"`
}

// Status returns the outcome of the last refresh
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{LastRefresh: s.lastRefresh}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
