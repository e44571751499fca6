// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// Catalog domain - base tables
		&catalog.Product{},
		&catalog.ProductImage{},

		// Cart domain
		&cart.Row{},

		// Order domain - dependent tables
		&order.Order{},
		&order.OrderLine{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_seller_status ON products(seller_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_status_created ON products(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",

		// Product image indexes
		"CREATE INDEX IF NOT EXISTS idx_product_images_product_primary ON product_images(product_id, is_primary)",
		"CREATE INDEX IF NOT EXISTS idx_product_images_sort_order ON product_images(product_id, sort_order)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_rows_user ON cart_rows(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_rows_updated_at ON cart_rows(updated_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_buyer_status ON orders(buyer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",

		// Order line indexes
		"CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_lines_product ON order_lines(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_lines_vendor ON order_lines(vendor_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_lines_vendor_order ON order_lines(vendor_id, order_id)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts a few development listings and orders
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&catalog.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if count > 0 {
		// Already seeded
		return nil
	}

	log.Println("🔄 Seeding development data...")

	products := []catalog.Product{
		{
			Title:       "Vintage film camera",
			Description: "Fully working, light meter included",
			Price:       12500,
			SellerID:    1,
			Status:      catalog.StatusActive,
			Images: []catalog.ProductImage{
				{URL: "https://example.com/images/camera.jpg", IsPrimary: true},
			},
		},
		{
			Title:       "Mountain bike, medium frame",
			Description: "Some scratches, recently serviced",
			Price:       28000,
			SellerID:    1,
			Status:      catalog.StatusActive,
		},
		{
			Title:       "Oak bookshelf",
			Description: "Five shelves, pickup only",
			Price:       9000,
			SellerID:    2,
			Status:      catalog.StatusActive,
		},
	}
	if err := m.db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	buyerID := uint(3)
	seedOrder := order.Order{
		BuyerID:     &buyerID,
		Status:      order.StatusPending,
		TotalAmount: 12500,
		Address: order.Address{
			FirstName:    "Sam",
			LastName:     "Carter",
			AddressLine1: "12 Elm Street",
			City:         "Springfield",
			PostalCode:   "12345",
			Country:      "US",
		},
		Lines: []order.OrderLine{
			{
				ProductID:  products[0].ID,
				VendorID:   products[0].SellerID,
				Quantity:   1,
				UnitPrice:  products[0].Price,
				TotalPrice: products[0].Price,
			},
		},
	}
	if err := m.db.Create(&seedOrder).Error; err != nil {
		return fmt.Errorf("failed to seed order: %w", err)
	}
	seedOrder.OrderNumber = seedOrder.GenerateOrderNumber()
	if err := m.db.Model(&seedOrder).Update("order_number", seedOrder.OrderNumber).Error; err != nil {
		return fmt.Errorf("failed to set seeded order number: %w", err)
	}

	log.Println("✅ Development data seeded")
	return nil
}

// GetTableInfo logs row counts for the main tables
func (m *Migration) GetTableInfo() {
	tables := []string{"products", "product_images", "cart_rows", "orders", "order_lines"}
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("⚠️ Failed to count table %s: %v", table, err)
			continue
		}
		log.Printf("📊 %s: %d rows (checked at %s)", table, count, time.Now().Format(time.RFC3339))
	}
}
