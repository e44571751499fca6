// internal/domain/dashboard/cache.go
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/order"
)

// ErrInvalidTransition is returned when an order may not move to the
// requested status
var ErrInvalidTransition = errors.New("invalid order status transition")

// Controller bounds the rate of aggregate dashboard fetches. Per seller it
// keeps the last snapshot, the time it was fetched and whether a fetch is in
// flight; a second caller arriving mid-fetch observes the cached state
// instead of issuing a duplicate fetch.
type Controller struct {
	mu          sync.Mutex
	repo        Repository
	agg         *Aggregator
	staleWindow time.Duration
	log         *logrus.Logger
	now         func() time.Time
	sellers     map[uint]*sellerCache
}

type sellerCache struct {
	snapshot  *Snapshot
	lastFetch time.Time
	inFlight  bool
}

// NewController creates a dashboard cache controller
func NewController(repo Repository, staleWindow time.Duration, log *logrus.Logger) *Controller {
	return &Controller{
		repo:        repo,
		agg:         NewAggregator(repo, log),
		staleWindow: staleWindow,
		log:         log,
		now:         time.Now,
		sellers:     make(map[uint]*sellerCache),
	}
}

// Refresh returns the seller's dashboard view, fetching fresh data only when
// the cache is cold, stale, or a refresh is forced. Exactly one fetch runs at
// a time per seller; callers arriving mid-fetch get the current cache
// immediately. On a failed fetch any stale snapshot stays available.
func (c *Controller) Refresh(ctx context.Context, sellerID uint, force bool) (*View, error) {
	c.mu.Lock()
	entry := c.entry(sellerID)

	if entry.inFlight {
		view := c.viewOf(entry)
		c.mu.Unlock()
		return view, nil
	}

	if !force && entry.snapshot != nil && c.now().Sub(entry.lastFetch) < c.staleWindow {
		view := c.viewOf(entry)
		c.mu.Unlock()
		return view, nil
	}

	entry.inFlight = true
	c.mu.Unlock()

	snapshot, err := func() (*Snapshot, error) {
		// The in-flight flag must clear on every exit path, or a failed
		// fetch would leave the controller permanently locked
		defer func() {
			c.mu.Lock()
			entry.inFlight = false
			c.mu.Unlock()
		}()
		return c.agg.Load(ctx, sellerID)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Stale-but-available fallback: surface the error, keep showing
		// whatever was cached
		return c.viewOf(entry), err
	}

	entry.snapshot = snapshot
	entry.lastFetch = c.now()
	return c.viewOf(entry), nil
}

// UpdateOrderStatus performs the seller's order-status action and keeps the
// derived product statuses consistent. The cached view is updated before the
// batched product write goes out; if that write fails the in-memory state is
// kept and the next bulk reconciliation repairs the store.
func (c *Controller) UpdateOrderStatus(ctx context.Context, sellerID, orderID uint, status order.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown order status %q", status)
	}

	o, err := c.repo.FetchOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if len(o.VendorLines(sellerID)) == 0 {
		return fmt.Errorf("order %d has no lines for seller %d", orderID, sellerID)
	}
	if !o.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}

	if err := c.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}
	o.Status = status

	// Incremental reconciliation for exactly this order's products
	productIDs := OrderProductIDs(o, sellerID)
	derived, ok := DerivedProductStatus(status)
	if !ok {
		return nil
	}

	c.applyToCache(sellerID, orderID, status, productIDs, derived)

	if err := c.repo.UpdateProductStatuses(ctx, productIDs, derived); err != nil {
		// No rollback: the in-memory view already shows the new statuses and
		// the next refresh's bulk pass re-issues the write
		c.log.WithError(err).WithFields(logrus.Fields{
			"seller_id":   sellerID,
			"order_id":    orderID,
			"product_ids": productIDs,
		}).Warn("product status write failed, deferring to next refresh")
	}

	return nil
}

// applyToCache projects one order-status change onto the cached snapshot so
// the UI reflects it without waiting for a refresh. Published snapshots are
// never mutated in place: views handed out by Refresh are read concurrently
// outside the lock, so the patch builds a fresh snapshot and swaps the
// pointer.
func (c *Controller) applyToCache(sellerID, orderID uint, status order.Status, productIDs []uint, derived catalog.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.sellers[sellerID]
	if !ok || entry.snapshot == nil {
		return
	}
	entry.snapshot = patchSnapshot(entry.snapshot, orderID, status, productIDs, derived)
}

// patchSnapshot returns a copy of the snapshot with the order's status and
// the derived product statuses applied. The input is left untouched.
func patchSnapshot(s *Snapshot, orderID uint, status order.Status, productIDs []uint, derived catalog.Status) *Snapshot {
	patched := *s

	patched.Orders = make([]OrderSummary, len(s.Orders))
	copy(patched.Orders, s.Orders)
	for i := range patched.Orders {
		if patched.Orders[i].ID == orderID {
			patched.Orders[i].Status = status
		}
	}

	byID := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		byID[id] = true
	}
	patched.Products = make([]ProductSummary, len(s.Products))
	copy(patched.Products, s.Products)
	for i := range patched.Products {
		if byID[patched.Products[i].ID] {
			patched.Products[i].Status = derived
		}
	}

	return &patched
}

// entry returns the cache slot for a seller, creating it on first use.
// Callers must hold c.mu.
func (c *Controller) entry(sellerID uint) *sellerCache {
	entry, ok := c.sellers[sellerID]
	if !ok {
		entry = &sellerCache{}
		c.sellers[sellerID] = entry
	}
	return entry
}

// viewOf builds the UI view for a cache slot. Callers must hold c.mu.
func (c *Controller) viewOf(entry *sellerCache) *View {
	return &View{
		Snapshot: entry.snapshot,
		Loading:  entry.inFlight && entry.snapshot == nil,
	}
}
