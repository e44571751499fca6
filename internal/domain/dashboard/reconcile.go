// internal/domain/dashboard/reconcile.go
package dashboard

import (
	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/order"
)

// Product status is derived state: each listing must reflect the lifecycle of
// the most recent order referencing it. This file is the single place that
// mapping lives; the bulk path (every dashboard refresh) and the incremental
// path (right after one order-status action) both go through it.

// DerivedProductStatus maps an order status to the product status it implies.
// The second return is false for unknown order states.
func DerivedProductStatus(s order.Status) (catalog.Status, bool) {
	switch s {
	case order.StatusPending, order.StatusProcessing:
		return catalog.StatusSold, true
	case order.StatusShipped:
		return catalog.StatusShipped, true
	case order.StatusDelivered:
		return catalog.StatusDelivered, true
	case order.StatusCancelled:
		// Cancellation puts the listing back on the market
		return catalog.StatusActive, true
	}
	return "", false
}

// StatusChange is one planned product-status correction
type StatusChange struct {
	ProductID uint
	From      catalog.Status
	To        catalog.Status
}

// Plan computes, for every product the seller owns, the status implied by the
// most recent order whose seller-owned lines reference it, and returns the
// products whose current status differs from the computed one. Products not
// referenced by any order are left alone. Pure function of its inputs.
func Plan(sellerID uint, products []catalog.Product, orders []order.Order) []StatusChange {
	// Latest order per product, judged by creation time with id as tiebreak
	latest := make(map[uint]*order.Order)
	for i := range orders {
		o := &orders[i]
		for _, line := range o.Lines {
			if line.VendorID != sellerID {
				continue
			}
			current, ok := latest[line.ProductID]
			if !ok || o.CreatedAt.After(current.CreatedAt) ||
				(o.CreatedAt.Equal(current.CreatedAt) && o.ID > current.ID) {
				latest[line.ProductID] = o
			}
		}
	}

	var changes []StatusChange
	for i := range products {
		p := &products[i]
		o, ok := latest[p.ID]
		if !ok {
			continue
		}
		derived, ok := DerivedProductStatus(o.Status)
		if !ok || derived == p.Status {
			continue
		}
		changes = append(changes, StatusChange{
			ProductID: p.ID,
			From:      p.Status,
			To:        derived,
		})
	}
	return changes
}

// ApplyChanges mutates the product slice to reflect planned corrections
func ApplyChanges(products []catalog.Product, changes []StatusChange) {
	if len(changes) == 0 {
		return
	}
	byID := make(map[uint]catalog.Status, len(changes))
	for _, change := range changes {
		byID[change.ProductID] = change.To
	}
	for i := range products {
		if status, ok := byID[products[i].ID]; ok {
			products[i].Status = status
		}
	}
}

// GroupByTarget buckets planned changes by their target status, the shape the
// batched repository write expects
func GroupByTarget(changes []StatusChange) map[catalog.Status][]uint {
	if len(changes) == 0 {
		return nil
	}
	groups := make(map[catalog.Status][]uint)
	for _, change := range changes {
		groups[change.To] = append(groups[change.To], change.ProductID)
	}
	return groups
}

// OrderProductIDs resolves the product ids referenced by one order's
// seller-owned lines
func OrderProductIDs(o *order.Order, sellerID uint) []uint {
	seen := make(map[uint]bool)
	var ids []uint
	for _, line := range o.Lines {
		if line.VendorID != sellerID || seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	return ids
}
