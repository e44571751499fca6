// internal/domain/dashboard/repository.go
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Repository is the remote commerce boundary consumed by the dashboard.
// Callers apply their own timeout policy through the context.
type Repository interface {
	FetchSellerItems(ctx context.Context, sellerID uint) ([]catalog.Product, error)
	FetchSellerOrders(ctx context.Context, sellerID uint) ([]order.Order, error)
	FetchSellerStats(ctx context.Context, sellerID uint) (SellerStats, error)
	FetchOrder(ctx context.Context, orderID uint) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status order.Status) error
	UpdateProductStatuses(ctx context.Context, productIDs []uint, status catalog.Status) error
}

// GormRepository implements Repository against the relational store
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a database-backed dashboard repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FetchSellerItems returns every listing owned by the seller
func (r *GormRepository) FetchSellerItems(ctx context.Context, sellerID uint) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		}).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seller items: %w", err)
	}
	return products, nil
}

// FetchSellerOrders returns every order containing at least one line owned by
// the seller, with lines and product snapshots preloaded
func (r *GormRepository) FetchSellerOrders(ctx context.Context, sellerID uint) ([]order.Order, error) {
	var orders []order.Order
	lineOrders := r.db.Model(&order.OrderLine{}).
		Select("order_id").
		Where("vendor_id = ?", sellerID)

	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Product").
		Where("id IN (?)", lineOrders).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seller orders: %w", err)
	}
	return orders, nil
}

// FetchSellerStats computes aggregate dashboard figures for the seller
func (r *GormRepository) FetchSellerStats(ctx context.Context, sellerID uint) (SellerStats, error) {
	var stats SellerStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&catalog.Product{}).
		Where("seller_id = ?", sellerID).
		Count(&stats.TotalItems).Error; err != nil {
		return SellerStats{}, fmt.Errorf("failed to count seller items: %w", err)
	}

	if err := db.Model(&catalog.Product{}).
		Where("seller_id = ? AND status = ?", sellerID, catalog.StatusActive).
		Count(&stats.ActiveItems).Error; err != nil {
		return SellerStats{}, fmt.Errorf("failed to count active items: %w", err)
	}

	if err := db.Model(&catalog.Product{}).
		Where("seller_id = ? AND status IN ?", sellerID,
			[]catalog.Status{catalog.StatusSold, catalog.StatusShipped, catalog.StatusDelivered}).
		Count(&stats.SoldItems).Error; err != nil {
		return SellerStats{}, fmt.Errorf("failed to count sold items: %w", err)
	}

	// Revenue and order counts consider only the seller's own order lines,
	// excluding cancelled orders
	vendorLines := db.Model(&order.OrderLine{}).
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("order_lines.vendor_id = ? AND orders.status <> ? AND orders.deleted_at IS NULL",
			sellerID, order.StatusCancelled)

	if err := vendorLines.Session(&gorm.Session{}).
		Select("COALESCE(SUM(order_lines.total_price), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return SellerStats{}, fmt.Errorf("failed to sum seller revenue: %w", err)
	}

	if err := vendorLines.Session(&gorm.Session{}).
		Select("COUNT(DISTINCT order_lines.order_id)").
		Scan(&stats.TotalOrders).Error; err != nil {
		return SellerStats{}, fmt.Errorf("failed to count seller orders: %w", err)
	}

	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / stats.TotalOrders
	}

	return stats, nil
}

// FetchOrder returns a single order with its lines and product snapshots
func (r *GormRepository) FetchOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	var o order.Order
	result := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Product").
		Where("id = ?", orderID).
		First(&o)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order not found")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", result.Error)
	}
	return &o, nil
}

// UpdateOrderStatus writes a new order status, stamping shipped/delivered
// timestamps as appropriate
func (r *GormRepository) UpdateOrderStatus(ctx context.Context, orderID uint, status order.Status) error {
	updates := map[string]interface{}{
		"status": status,
	}

	now := time.Now().UTC()
	switch status {
	case order.StatusShipped:
		updates["shipped_at"] = now
	case order.StatusDelivered:
		updates["delivered_at"] = now
	}

	result := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

// UpdateProductStatuses writes one status to a batch of products
func (r *GormRepository) UpdateProductStatuses(ctx context.Context, productIDs []uint, status catalog.Status) error {
	if len(productIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id IN ?", productIDs).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update product statuses: %w", err)
	}
	return nil
}
