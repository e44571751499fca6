// internal/domain/dashboard/aggregator.go
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

// ErrAllSourcesFailed is returned when none of the dashboard fetches
// succeeded; any previously cached snapshot stays in place upstream.
var ErrAllSourcesFailed = errors.New("all dashboard fetches failed")

// Aggregator produces the seller's view of products, orders and stats from
// three independent remote calls. Each source fails in isolation: a bad
// source degrades to an empty value instead of blanking unrelated data.
type Aggregator struct {
	repo Repository
	log  *logrus.Logger
}

// NewAggregator creates a dashboard data aggregator
func NewAggregator(repo Repository, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		repo: repo,
		log:  log,
	}
}

// Load fetches the three sources concurrently, reconciles product statuses
// against order lifecycles, and shapes the results into display records.
func (a *Aggregator) Load(ctx context.Context, sellerID uint) (*Snapshot, error) {
	var (
		products []catalog.Product
		orders   []order.Order
		stats    SellerStats

		itemsErr  error
		ordersErr error
		statsErr  error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		products, itemsErr = a.repo.FetchSellerItems(ctx, sellerID)
	}()
	go func() {
		defer wg.Done()
		orders, ordersErr = a.repo.FetchSellerOrders(ctx, sellerID)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = a.repo.FetchSellerStats(ctx, sellerID)
	}()
	wg.Wait()

	failures := 0
	for source, err := range map[string]error{
		"items":  itemsErr,
		"orders": ordersErr,
		"stats":  statsErr,
	} {
		if err == nil {
			continue
		}
		failures++
		a.log.WithError(err).WithFields(logrus.Fields{
			"seller_id": sellerID,
			"source":    source,
		}).Warn("dashboard fetch failed, serving empty value for source")
	}
	if failures == 3 {
		return nil, fmt.Errorf("seller %d: %w", sellerID, ErrAllSourcesFailed)
	}

	// Degraded sources fall back to empty values
	if itemsErr != nil {
		products = nil
	}
	if ordersErr != nil {
		orders = nil
	}
	if statsErr != nil {
		stats = SellerStats{}
	}

	// Bulk reconciliation: correct any listing whose status drifted from the
	// lifecycle of its most recent order, then push the corrections back to
	// the store best-effort. A failed repair is retried implicitly on the
	// next refresh.
	changes := Plan(sellerID, products, orders)
	ApplyChanges(products, changes)
	a.repair(ctx, sellerID, changes)

	return &Snapshot{
		Products:  shapeProducts(products),
		Orders:    shapeOrders(orders, sellerID),
		Stats:     stats,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (a *Aggregator) repair(ctx context.Context, sellerID uint, changes []StatusChange) {
	for status, ids := range GroupByTarget(changes) {
		if err := a.repo.UpdateProductStatuses(ctx, ids, status); err != nil {
			a.log.WithError(err).WithFields(logrus.Fields{
				"seller_id":   sellerID,
				"status":      status,
				"product_ids": ids,
			}).Warn("product status repair failed, deferring to next refresh")
		}
	}
}

func shapeProducts(products []catalog.Product) []ProductSummary {
	summaries := make([]ProductSummary, len(products))
	for i, p := range products {
		summaries[i] = ProductSummary{
			ID:           p.ID,
			Title:        p.Title,
			Price:        p.Price,
			DisplayPrice: p.GetFormattedPrice(),
			Status:       p.Status,
			ImageURL:     p.PrimaryImageURL(),
			ViewCount:    0, // view tracking is not part of the dashboard data set
			CreatedAt:    p.CreatedAt,
		}
	}
	return summaries
}

func shapeOrders(orders []order.Order, sellerID uint) []OrderSummary {
	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		lines := o.VendorLines(sellerID)
		if len(lines) == 0 {
			continue
		}
		summaries = append(summaries, OrderSummary{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			TotalAmount: o.TotalAmount,
			ItemCount:   len(lines),
			ItemSummary: summarizeLines(lines),
			Lines:       lines,
			CreatedAt:   o.CreatedAt,
		})
	}
	return summaries
}

// summarizeLines renders "N items (first title, +N-1 more)" for multi-line
// orders and the bare title for single-line ones
func summarizeLines(lines []order.OrderLine) string {
	title := fmt.Sprintf("item #%d", lines[0].ProductID)
	if lines[0].Product != nil && lines[0].Product.Title != "" {
		title = lines[0].Product.Title
	}
	if len(lines) == 1 {
		return title
	}
	return fmt.Sprintf("%d items (%s, +%d more)", len(lines), title, len(lines)-1)
}
