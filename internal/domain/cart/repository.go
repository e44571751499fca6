// internal/domain/cart/repository.go
package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository is the remote commerce boundary for cart rows. Upserts are
// idempotent on (userID, itemID): writing the same line twice leaves one row.
type Repository interface {
	UpsertLine(ctx context.Context, userID uint, line Line) error
	DeleteLine(ctx context.Context, userID, itemID uint) error
	DeleteAllLines(ctx context.Context, userID uint) error
	FetchCart(ctx context.Context, userID uint) ([]Line, error)
}

// GormRepository implements Repository against the relational store
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a database-backed cart repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// UpsertLine writes a cart row keyed by (userID, itemID), overwriting any
// existing row for the same item (last-writer-wins, no summation)
func (r *GormRepository) UpsertLine(ctx context.Context, userID uint, line Line) error {
	var existing Row
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, line.ItemID).
		First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		row := Row{
			UserID:    userID,
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			ImageRef:  line.ImageRef,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create cart row: %w", err)
		}
		return nil
	} else if result.Error != nil {
		return fmt.Errorf("failed to look up cart row: %w", result.Error)
	}

	existing.Name = line.Name
	existing.UnitPrice = line.UnitPrice
	existing.Quantity = line.Quantity
	existing.ImageRef = line.ImageRef
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to update cart row: %w", err)
	}
	return nil
}

// DeleteLine removes a single cart row; a missing row is not an error
func (r *GormRepository) DeleteLine(ctx context.Context, userID, itemID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&Row{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart row: %w", err)
	}
	return nil
}

// DeleteAllLines removes every cart row for the user
func (r *GormRepository) DeleteAllLines(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Row{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart rows: %w", err)
	}
	return nil
}

// FetchCart returns the authoritative server-side cart for the user
func (r *GormRepository) FetchCart(ctx context.Context, userID uint) ([]Line, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("item_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart rows: %w", err)
	}

	lines := make([]Line, len(rows))
	for i, row := range rows {
		lines[i] = row.Line()
	}
	return lines, nil
}
