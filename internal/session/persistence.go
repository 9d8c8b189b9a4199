package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xelth-com/alloyplan/internal/models"
)

const (
	// DefaultKey is the fixed key the planner selection lives under
	DefaultKey = "smart-ordering:selection"
	// DefaultMaxAge is how long a saved selection stays valid
	DefaultMaxAge = 24 * time.Hour
)

// LoadStatus tells what Load found in the store
type LoadStatus string

const (
	StatusRestored LoadStatus = "restored"
	StatusMissing  LoadStatus = "missing"
	StatusExpired  LoadStatus = "expired"
	StatusCorrupt  LoadStatus = "corrupt"
)

// Persister mirrors planner state into a KVStore under one key
type Persister struct {
	store  KVStore
	key    string
	maxAge time.Duration
	now    func() time.Time
}

// Option configures a Persister
type Option func(*Persister)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(p *Persister) { p.key = key }
}

// WithMaxAge overrides the staleness window
func WithMaxAge(d time.Duration) Option {
	return func(p *Persister) { p.maxAge = d }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Persister) { p.now = now }
}

// NewPersister creates a persister over store
func NewPersister(store KVStore, opts ...Option) *Persister {
	p := &Persister{
		store:  store,
		key:    DefaultKey,
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the storage key
func (p *Persister) Key() string {
	return p.key
}

// Save replaces the stored snapshot, stamping it with the current time
func (p *Persister) Save(ctx context.Context, snap models.SelectionSnapshot) error {
	snap.Timestamp = p.now().UnixMilli()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode selection snapshot: %w", err)
	}
	return p.store.Set(ctx, p.key, data)
}

// Load reads the stored snapshot. Snapshots older than the staleness window
// and payloads that do not decode are discarded and the key is removed;
// nothing is partially restored.
func (p *Persister) Load(ctx context.Context) (models.SelectionSnapshot, LoadStatus, error) {
	data, err := p.store.Get(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return models.SelectionSnapshot{}, StatusMissing, nil
	}
	if err != nil {
		return models.SelectionSnapshot{}, StatusMissing, err
	}

	var snap models.SelectionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Timestamp <= 0 {
		log.Printf("⚠️ Session: discarding unreadable snapshot %s", p.key)
		return models.SelectionSnapshot{}, StatusCorrupt, p.Clear(ctx)
	}

	if age := p.now().Sub(snap.SavedAt()); age >= p.maxAge {
		log.Printf("🧹 Session: discarding snapshot %s saved %s ago", p.key, age.Round(time.Minute))
		return models.SelectionSnapshot{}, StatusExpired, p.Clear(ctx)
	}

	return snap, StatusRestored, nil
}

// Discard removes a snapshot that loaded but could not be applied
func (p *Persister) Discard(ctx context.Context, reason error) error {
	log.Printf("⚠️ Session: discarding snapshot %s: %v", p.key, reason)
	return p.Clear(ctx)
}

// Clear removes the stored snapshot
func (p *Persister) Clear(ctx context.Context) error {
	return p.store.Delete(ctx, p.key)
}
