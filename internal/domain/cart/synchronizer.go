// internal/domain/cart/synchronizer.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidItem is returned when an item reference is malformed
	ErrInvalidItem = errors.New("invalid cart item")
	// ErrInvalidQuantity is returned for quantities below one
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Synchronizer is the single source of truth for the current cart, regardless
// of authentication state. State changes are applied to memory and to the
// local snapshot first; server-side writes follow for authenticated users,
// with a compensating rollback when an add fails remotely.
//
// A Synchronizer is scoped to one shopper (session plus optional user
// identity) and is not safe for concurrent use.
type Synchronizer struct {
	sessionID string
	userID    *uint
	lines     map[uint]Line
	local     Store
	remote    Repository
	log       *logrus.Logger
}

// NewSynchronizer creates a cart synchronizer for one shopper and hydrates it
// from the local snapshot. A missing or unreadable snapshot yields an empty
// cart rather than an error.
func NewSynchronizer(ctx context.Context, sessionID string, userID *uint, local Store, remote Repository, log *logrus.Logger) *Synchronizer {
	s := &Synchronizer{
		sessionID: sessionID,
		userID:    userID,
		lines:     make(map[uint]Line),
		local:     local,
		remote:    remote,
		log:       log,
	}

	saved, err := local.Load(ctx, sessionID)
	if err != nil {
		log.WithError(err).WithField("session_id", sessionID).
			Warn("failed to restore cart snapshot, starting empty")
		return s
	}
	for _, line := range saved {
		s.lines[line.ItemID] = line
	}
	return s
}

// Authenticated reports whether a user identity is attached
func (s *Synchronizer) Authenticated() bool {
	return s.userID != nil
}

// Lines returns the current cart lines ordered by item id
func (s *Synchronizer) Lines() []Line {
	lines := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ItemID < lines[j].ItemID
	})
	return lines
}

// Totals calculates cart totals from the in-memory state
func (s *Synchronizer) Totals() Totals {
	var totals Totals
	totals.ItemCount = len(s.lines)
	for _, line := range s.lines {
		totals.TotalQuantity += line.Quantity
		totals.SubTotal += line.UnitPrice * int64(line.Quantity)
	}
	return totals
}

// AddLine merges an item into the cart: an existing line for the same item
// accumulates quantity, otherwise a new line is created. The change lands in
// memory and local storage before the server write; if the server upsert
// fails the line is rolled back to its pre-call value and the error returned.
func (s *Synchronizer) AddLine(ctx context.Context, item Line, qty int) error {
	if item.ItemID == 0 {
		return ErrInvalidItem
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}

	prev, existed := s.lines[item.ItemID]

	merged := item
	merged.Quantity = qty
	if existed {
		merged.Quantity = prev.Quantity + qty
	}

	compensate := func() {
		if existed {
			s.lines[item.ItemID] = prev
		} else {
			delete(s.lines, item.ItemID)
		}
	}

	s.lines[item.ItemID] = merged
	s.persistLocal(ctx)

	if s.userID == nil {
		return nil
	}

	if err := s.remote.UpsertLine(ctx, *s.userID, merged); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": *s.userID,
			"item_id": item.ItemID,
		}).Warn("cart upsert failed, rolling back optimistic add")

		compensate()
		s.persistLocal(ctx)
		return fmt.Errorf("failed to sync cart line: %w", err)
	}

	return nil
}

// RemoveLine removes an item from the cart. The server-side delete is
// best-effort: a failure leaves the optimistic removal in place, since a
// duplicate or missing remote row is non-fatal.
func (s *Synchronizer) RemoveLine(ctx context.Context, itemID uint) error {
	if itemID == 0 {
		return ErrInvalidItem
	}

	if _, ok := s.lines[itemID]; !ok {
		return nil
	}

	delete(s.lines, itemID)
	s.persistLocal(ctx)

	if s.userID == nil {
		return nil
	}

	if err := s.remote.DeleteLine(ctx, *s.userID, itemID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": *s.userID,
			"item_id": itemID,
		}).Warn("cart delete failed, keeping local removal")
	}

	return nil
}

// Clear empties the cart. The server-side wipe is best-effort.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.lines = make(map[uint]Line)
	if err := s.local.Clear(ctx, s.sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", s.sessionID).
			Warn("failed to clear cart snapshot")
	}

	if s.userID == nil {
		return nil
	}

	if err := s.remote.DeleteAllLines(ctx, *s.userID); err != nil {
		s.log.WithError(err).WithField("user_id", *s.userID).
			Warn("failed to clear server-side cart")
	}

	return nil
}

// MergeOnLogin reconciles the anonymous cart with the user's server-side cart
// when the session becomes authenticated. Every local line is upserted first
// (overwriting, not summing, any server row for the same item), then the
// authoritative server cart is fetched and replaces local state. Items only
// present on the server are preserved; items present locally win.
func (s *Synchronizer) MergeOnLogin(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrInvalidItem
	}
	if s.userID != nil {
		// Already authenticated, nothing to migrate
		return nil
	}
	s.userID = &userID

	// Push local lines before fetching, so the fetch cannot race ahead of
	// the merge and return pre-merge data.
	for _, line := range s.Lines() {
		if err := s.remote.UpsertLine(ctx, userID, line); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"item_id": line.ItemID,
			}).Warn("cart merge upsert failed")
		}
	}

	merged, err := s.remote.FetchCart(ctx, userID)
	if err != nil {
		// Degrade to local-only state; the local cart still reflects what
		// the shopper sees.
		s.log.WithError(err).WithField("user_id", userID).
			Warn("cart fetch after merge failed, keeping local cart")
		return fmt.Errorf("failed to fetch merged cart: %w", err)
	}

	s.lines = make(map[uint]Line, len(merged))
	for _, line := range merged {
		s.lines[line.ItemID] = line
	}
	s.persistLocal(ctx)

	return nil
}

// persistLocal mirrors the in-memory cart to session-local storage.
// Persistence is best-effort and never fails the calling operation.
func (s *Synchronizer) persistLocal(ctx context.Context) {
	if err := s.local.Save(ctx, s.sessionID, s.Lines()); err != nil {
		s.log.WithError(err).WithField("session_id", s.sessionID).
			Warn("failed to save cart snapshot")
	}
}
