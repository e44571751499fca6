// internal/domain/dashboard/cache_test.go
package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/order"
)

const testWindow = 10 * time.Second

func (r *stubRepo) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchCalls
}

// clockController builds a controller whose clock the test advances manually
func clockController(repo *stubRepo) (*Controller, *time.Time) {
	c := NewController(repo, testWindow, testLogger())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestRefreshFetchesOnColdCache(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusActive}}
	c, _ := clockController(repo)

	view, err := c.Refresh(context.Background(), 1, false)
	require.NoError(t, err)
	require.NotNil(t, view.Snapshot)
	assert.False(t, view.Loading)
	assert.Equal(t, 1, repo.fetchCount())
}

func TestRefreshServesCacheWithinWindow(t *testing.T) {
	repo := newStubRepo()
	c, now := clockController(repo)
	ctx := context.Background()

	first, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	*now = now.Add(testWindow / 2)
	second, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.fetchCount())
	assert.Same(t, first.Snapshot, second.Snapshot)
}

func TestRefreshForceBypassesWindow(t *testing.T) {
	repo := newStubRepo()
	c, _ := clockController(repo)
	ctx := context.Background()

	_, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	_, err = c.Refresh(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.fetchCount())
}

func TestRefreshRefetchesAfterWindow(t *testing.T) {
	repo := newStubRepo()
	c, now := clockController(repo)
	ctx := context.Background()

	_, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	*now = now.Add(testWindow + time.Second)
	_, err = c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.fetchCount())
}

func TestRefreshCachesPerSeller(t *testing.T) {
	repo := newStubRepo()
	c, _ := clockController(repo)
	ctx := context.Background()

	_, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	// A different seller gets its own fetch despite seller 1's warm cache
	_, err = c.Refresh(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.fetchCount())
}

func TestRefreshKeepsStaleSnapshotOnFailure(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusActive}}
	c, now := clockController(repo)
	ctx := context.Background()

	first, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	require.NotNil(t, first.Snapshot)

	repo.mu.Lock()
	repo.itemsErr = errors.New("down")
	repo.ordersErr = errors.New("down")
	repo.statsErr = errors.New("down")
	repo.mu.Unlock()

	*now = now.Add(testWindow + time.Second)
	view, err := c.Refresh(ctx, 1, false)
	require.Error(t, err)

	// Stale but available: the old snapshot is still served
	require.NotNil(t, view.Snapshot)
	assert.Same(t, first.Snapshot, view.Snapshot)
	assert.False(t, view.Loading)

	// The failed attempt did not refresh the window, so the next call
	// retries instead of serving the failure for another ten seconds
	_, _ = c.Refresh(ctx, 1, false)
	assert.Equal(t, 3, repo.fetchCount())
}

func TestRefreshDeduplicatesInFlightFetch(t *testing.T) {
	repo := newStubRepo()
	repo.enteredFetch = make(chan struct{}, 1)
	repo.releaseFetch = make(chan struct{})
	c, _ := clockController(repo)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Refresh(ctx, 1, false)
	}()

	// Wait until the first fetch is committed, then arrive mid-flight
	<-repo.enteredFetch

	view, err := c.Refresh(ctx, 1, true)
	require.NoError(t, err)
	assert.Nil(t, view.Snapshot)
	assert.True(t, view.Loading)

	close(repo.releaseFetch)
	<-done

	// The second caller never issued a fetch of its own
	assert.Equal(t, 1, repo.fetchCount())

	// And with the first fetch finished, the cache is warm
	repo.enteredFetch = nil
	warm, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	assert.NotNil(t, warm.Snapshot)
	assert.False(t, warm.Loading)
}

func seedOrder(repo *stubRepo, status order.Status) {
	repo.orderByID[1] = &order.Order{
		ID:     1,
		Status: status,
		Lines: []order.OrderLine{
			{OrderID: 1, ProductID: 10, VendorID: 1, Quantity: 1},
		},
	}
}

func TestUpdateOrderStatusWritesAndPatchesCache(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusSold}}
	repo.orders = []order.Order{
		{ID: 1, Status: order.StatusPending, Lines: []order.OrderLine{
			{OrderID: 1, ProductID: 10, VendorID: 1, Quantity: 1},
		}},
	}
	seedOrder(repo, order.StatusPending)
	c, _ := clockController(repo)
	ctx := context.Background()

	_, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	require.NoError(t, c.UpdateOrderStatus(ctx, 1, 1, order.StatusShipped))

	assert.Equal(t, []order.Status{order.StatusShipped}, repo.orderWrites)
	assert.Contains(t, repo.statusWrites[catalog.StatusShipped], uint(10))

	// The cached view reflects the change without a refetch
	view, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.fetchCount())
	assert.Equal(t, order.StatusShipped, view.Snapshot.Orders[0].Status)
	assert.Equal(t, catalog.StatusShipped, view.Snapshot.Products[0].Status)
}

func TestUpdateOrderStatusLeavesPublishedViewsUntouched(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusSold}}
	repo.orders = []order.Order{
		{ID: 1, Status: order.StatusPending, Lines: []order.OrderLine{
			{OrderID: 1, ProductID: 10, VendorID: 1, Quantity: 1},
		}},
	}
	seedOrder(repo, order.StatusPending)
	c, _ := clockController(repo)
	ctx := context.Background()

	held, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	require.NotNil(t, held.Snapshot)

	require.NoError(t, c.UpdateOrderStatus(ctx, 1, 1, order.StatusShipped))

	// A view handed out before the update keeps reading the old snapshot;
	// the patch swaps the cached pointer instead of writing through it
	assert.Equal(t, order.StatusPending, held.Snapshot.Orders[0].Status)
	assert.Equal(t, catalog.StatusSold, held.Snapshot.Products[0].Status)

	fresh, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	assert.NotSame(t, held.Snapshot, fresh.Snapshot)
	assert.Equal(t, order.StatusShipped, fresh.Snapshot.Orders[0].Status)
	assert.Equal(t, catalog.StatusShipped, fresh.Snapshot.Products[0].Status)
}

func TestConcurrentViewReadsDuringStatusUpdates(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusSold}}
	repo.orders = []order.Order{
		{ID: 1, Status: order.StatusPending, Lines: []order.OrderLine{
			{OrderID: 1, ProductID: 10, VendorID: 1, Quantity: 1},
		}},
	}
	seedOrder(repo, order.StatusPending)
	c, _ := clockController(repo)
	ctx := context.Background()

	_, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			view, _ := c.Refresh(ctx, 1, false)
			if view.Snapshot == nil {
				continue
			}
			for i := range view.Snapshot.Orders {
				_ = view.Snapshot.Orders[i].Status
			}
			for i := range view.Snapshot.Products {
				_ = view.Snapshot.Products[i].Status
			}
		}
	}()

	for i := 0; i < 100; i++ {
		require.NoError(t, c.UpdateOrderStatus(ctx, 1, 1, order.StatusShipped))
		repo.mu.Lock()
		repo.orderByID[1].Status = order.StatusPending
		repo.mu.Unlock()
	}

	close(stop)
	wg.Wait()
}

func TestUpdateOrderStatusCancellationRelistsProduct(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusSold}}
	repo.orders = []order.Order{
		{ID: 1, Status: order.StatusPending, Lines: []order.OrderLine{
			{OrderID: 1, ProductID: 10, VendorID: 1, Quantity: 1},
		}},
	}
	seedOrder(repo, order.StatusPending)
	c, _ := clockController(repo)
	ctx := context.Background()

	_, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)

	require.NoError(t, c.UpdateOrderStatus(ctx, 1, 1, order.StatusCancelled))

	view, err := c.Refresh(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusActive, view.Snapshot.Products[0].Status)
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	repo := newStubRepo()
	seedOrder(repo, order.StatusDelivered)
	c, _ := clockController(repo)

	err := c.UpdateOrderStatus(context.Background(), 1, 1, order.StatusShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, repo.orderWrites)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubRepo()
	seedOrder(repo, order.StatusPending)
	c, _ := clockController(repo)

	err := c.UpdateOrderStatus(context.Background(), 1, 1, order.Status("refunded"))
	assert.Error(t, err)
	assert.Empty(t, repo.orderWrites)
}

func TestUpdateOrderStatusRejectsForeignOrder(t *testing.T) {
	repo := newStubRepo()
	repo.orderByID[1] = &order.Order{
		ID:     1,
		Status: order.StatusPending,
		Lines: []order.OrderLine{
			{OrderID: 1, ProductID: 50, VendorID: 99, Quantity: 1},
		},
	}
	c, _ := clockController(repo)

	err := c.UpdateOrderStatus(context.Background(), 1, 1, order.StatusShipped)
	assert.Error(t, err)
	assert.Empty(t, repo.orderWrites)
}

func TestUpdateOrderStatusToleratesProductWriteFailure(t *testing.T) {
	repo := newStubRepo()
	repo.items = []catalog.Product{{ID: 10, Title: "Vintage Lamp", Status: catalog.StatusSold}}
	seedOrder(repo, order.StatusPending)
	repo.productStatusErr = errors.New("write refused")
	c, _ := clockController(repo)
	ctx := context.Background()

	// The order write lands even though the product write fails; the bulk
	// pass on the next refresh repairs the store
	require.NoError(t, c.UpdateOrderStatus(ctx, 1, 1, order.StatusShipped))
	assert.Equal(t, []order.Status{order.StatusShipped}, repo.orderWrites)
}
