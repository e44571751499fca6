// internal/domain/dashboard/entity.go
package dashboard

import (
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/order"
)

// ProductSummary is a display-ready record for one of the seller's listings
type ProductSummary struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	Price        int64          `json:"price"`
	DisplayPrice float64        `json:"display_price"`
	Status       catalog.Status `json:"status"`
	ImageURL     string         `json:"image_url,omitempty"`
	ViewCount    int            `json:"view_count"`
	CreatedAt    time.Time      `json:"created_at"`
}

// OrderSummary is a display-ready record for one order, restricted to the
// lines the current seller owns
type OrderSummary struct {
	ID          uint              `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      order.Status      `json:"status"`
	TotalAmount int64             `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
	ItemSummary string            `json:"item_summary"`
	Lines       []order.OrderLine `json:"lines"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SellerStats represents aggregate figures for the seller dashboard
type SellerStats struct {
	TotalItems    int64 `json:"total_items"`
	ActiveItems   int64 `json:"active_items"`
	SoldItems     int64 `json:"sold_items"`
	TotalRevenue  int64 `json:"total_revenue"` // In cents
	TotalOrders   int64 `json:"total_orders"`
	AvgOrderValue int64 `json:"avg_order_value"` // In cents
}

// Snapshot is one fully aggregated dashboard view for a seller
type Snapshot struct {
	Products  []ProductSummary `json:"products"`
	Orders    []OrderSummary   `json:"orders"`
	Stats     SellerStats      `json:"stats"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// View is what the UI renders: the latest snapshot (possibly stale) plus a
// first-load indicator. Loading is true only while the initial fetch is in
// flight and no cached data exists yet; refreshes against a warm cache are
// silent.
type View struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Loading  bool      `json:"loading"`
}
