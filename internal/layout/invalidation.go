package layout

import (
	"sync"
	"time"
)

// DefaultSettleDelay is one frame
const DefaultSettleDelay = 16 * time.Millisecond

// Reasons a list has to be remeasured
const (
	ReasonExpansion  = "expansion"
	ReasonFilter     = "filter"
	ReasonCatalog    = "catalog"
	ReasonEntries    = "entries"
	ReasonPlans      = "plans"
	ReasonRestore    = "restore"
	ReasonSubmission = "submission"
)

// LayoutInvalidation is delivered once per settle window
type LayoutInvalidation struct {
	Reasons []string  `json:"reasons"`
	At      time.Time `json:"at"`
}

// Invalidator collects layout invalidations and delivers them after a settle
// delay. Every reason raised before the flush lands in the same event.
type Invalidator struct {
	mu      sync.Mutex
	delay   time.Duration
	pending []string
	timer   *time.Timer
	subs    map[int]func(LayoutInvalidation)
	nextSub int
	stopped bool
}

// NewInvalidator creates an invalidator; a non-positive delay uses DefaultSettleDelay
func NewInvalidator(delay time.Duration) *Invalidator {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Invalidator{
		delay: delay,
		subs:  make(map[int]func(LayoutInvalidation)),
	}
}

// Subscribe registers fn and returns a function that removes it
func (inv *Invalidator) Subscribe(fn func(LayoutInvalidation)) func() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	id := inv.nextSub
	inv.nextSub++
	inv.subs[id] = fn
	return func() {
		inv.mu.Lock()
		delete(inv.subs, id)
		inv.mu.Unlock()
	}
}

// InvalidateLayout records reason and schedules a flush if none is pending
func (inv *Invalidator) InvalidateLayout(reason string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.stopped {
		return
	}
	for _, r := range inv.pending {
		if r == reason {
			return
		}
	}
	inv.pending = append(inv.pending, reason)
	if inv.timer == nil {
		inv.timer = time.AfterFunc(inv.delay, inv.Flush)
	}
}

// Pending returns the reasons waiting for the next flush
func (inv *Invalidator) Pending() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]string(nil), inv.pending...)
}

// Flush delivers pending reasons immediately. Subscribers run outside the lock.
func (inv *Invalidator) Flush() {
	inv.mu.Lock()
	if inv.timer != nil {
		inv.timer.Stop()
		inv.timer = nil
	}
	if len(inv.pending) == 0 {
		inv.mu.Unlock()
		return
	}
	event := LayoutInvalidation{Reasons: inv.pending, At: time.Now()}
	inv.pending = nil
	subs := make([]func(LayoutInvalidation), 0, len(inv.subs))
	for _, fn := range inv.subs {
		subs = append(subs, fn)
	}
	inv.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// Stop cancels a pending flush and ignores further invalidations
func (inv *Invalidator) Stop() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.stopped = true
	inv.pending = nil
	if inv.timer != nil {
		inv.timer.Stop()
		inv.timer = nil
	}
}
