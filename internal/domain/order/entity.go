// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Status represents the order status
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether the status is one of the known order states
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transitions are expected
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order represents the order entity
type Order struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderNumber string  `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	BuyerID     *uint   `gorm:"index" json:"buyer_id"` // Nullable for guest checkout
	Status      Status  `gorm:"not null;default:'pending';size:20" json:"status"`
	TotalAmount int64   `gorm:"not null" json:"total_amount"` // In cents
	Address     Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	// Timestamps
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
}

// OrderLine links an order to a product; an order may span multiple sellers
type OrderLine struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	VendorID   uint      `gorm:"index" json:"vendor_id"` // Seller who owns the product
	Quantity   int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"` // Price per unit in cents
	TotalPrice int64     `gorm:"not null" json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Snapshot of the linked listing
	Product *catalog.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// Address represents the shipping address (embedded in Order)
type Address struct {
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
	Phone        string `gorm:"size:20" json:"phone"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderLine) TableName() string { return "order_lines" }

// GenerateOrderNumber generates a unique order number
func (o *Order) GenerateOrderNumber() string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", time.Now().Format("20060102"), o.ID)
}

// GetFormattedTotal returns total amount as float
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// VendorLines returns the order lines owned by the given seller
func (o *Order) VendorLines(vendorID uint) []OrderLine {
	var lines []OrderLine
	for _, line := range o.Lines {
		if line.VendorID == vendorID {
			lines = append(lines, line)
		}
	}
	return lines
}

// CanTransitionTo reports whether the order may move to the given status
func (o *Order) CanTransitionTo(to Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending: {
			StatusProcessing,
			StatusShipped,
			StatusCancelled,
		},
		StatusProcessing: {
			StatusShipped,
			StatusCancelled,
		},
		StatusShipped: {
			StatusDelivered,
			StatusCancelled,
		},
		// delivered and cancelled are terminal
	}

	for _, status := range validTransitions[o.Status] {
		if status == to {
			return true
		}
	}
	return false
}
