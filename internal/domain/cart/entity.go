// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Line represents one (item, quantity) entry in a cart. At most one Line
// exists per item id; repeated adds accumulate quantity.
type Line struct {
	ItemID    uint   `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // Price at time of adding, in cents
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image_ref,omitempty"`
}

// Row represents a cart line persisted in the database for authenticated
// users, keyed by (user_id, item_id)
type Row struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_rows_user_item" json:"user_id"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_cart_rows_user_item" json:"item_id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	ImageRef  string    `gorm:"size:500" json:"image_ref"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Row) TableName() string {
	return "cart_rows"
}

// Line converts a persisted row back to a cart line
func (r Row) Line() Line {
	return Line{
		ItemID:    r.ItemID,
		Name:      r.Name,
		UnitPrice: r.UnitPrice,
		Quantity:  r.Quantity,
		ImageRef:  r.ImageRef,
	}
}

// Snapshot represents the serialized cart kept in session-local storage.
// It mirrors the in-memory cart and survives page reloads; it is never
// authoritative for authenticated users.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique items
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`      // In cents
}
