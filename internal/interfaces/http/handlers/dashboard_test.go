// internal/interfaces/http/handlers/dashboard_test.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/domain/dashboard"
	"github.com/your-org/marketplace-backend/internal/domain/order"
)

// flakyDashboardRepo serves one seller's data and can be flipped to fail
// every read
type flakyDashboardRepo struct {
	mu     sync.Mutex
	broken bool
}

func (r *flakyDashboardRepo) fail() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broken
}

func (r *flakyDashboardRepo) setBroken(broken bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broken = broken
}

func (r *flakyDashboardRepo) FetchSellerItems(_ context.Context, _ uint) ([]catalog.Product, error) {
	if r.fail() {
		return nil, errors.New("items unavailable")
	}
	return []catalog.Product{{ID: 10, Title: "Vintage Lamp", Price: 2500, Status: catalog.StatusActive}}, nil
}

func (r *flakyDashboardRepo) FetchSellerOrders(_ context.Context, _ uint) ([]order.Order, error) {
	if r.fail() {
		return nil, errors.New("orders unavailable")
	}
	return nil, nil
}

func (r *flakyDashboardRepo) FetchSellerStats(_ context.Context, _ uint) (dashboard.SellerStats, error) {
	if r.fail() {
		return dashboard.SellerStats{}, errors.New("stats unavailable")
	}
	return dashboard.SellerStats{TotalItems: 1, ActiveItems: 1}, nil
}

func (r *flakyDashboardRepo) FetchOrder(_ context.Context, _ uint) (*order.Order, error) {
	return nil, errors.New("order not found")
}

func (r *flakyDashboardRepo) UpdateOrderStatus(_ context.Context, _ uint, _ order.Status) error {
	return nil
}

func (r *flakyDashboardRepo) UpdateProductStatuses(_ context.Context, _ []uint, _ catalog.Status) error {
	return nil
}

func dashboardRouter(repo dashboard.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	// Zero stale window so every request attempts a fetch
	controller := dashboard.NewController(repo, 0, log)
	handler := NewDashboardHandler(controller)

	r := gin.New()
	r.GET("/dashboard", func(c *gin.Context) {
		c.Set("user_id", uint(1))
	}, handler.GetDashboard)
	return r
}

func getDashboard(t *testing.T, r *gin.Engine) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestGetDashboardSuccess(t *testing.T) {
	r := dashboardRouter(&flakyDashboardRepo{})

	code, body := getDashboard(t, r)
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, "stale")
	assert.NotContains(t, body, "error")
}

func TestGetDashboardFailureWithWarmCacheSurfacesError(t *testing.T) {
	repo := &flakyDashboardRepo{}
	r := dashboardRouter(repo)

	// Warm the cache, then break every source
	code, _ := getDashboard(t, r)
	require.Equal(t, http.StatusOK, code)
	repo.setBroken(true)

	code, body := getDashboard(t, r)
	assert.Equal(t, http.StatusOK, code)

	// Stale data stays underneath a visible error
	assert.Equal(t, true, body["stale"])
	assert.Contains(t, body["error"], "all dashboard fetches failed")
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.NotNil(t, data["snapshot"])
}

func TestGetDashboardFailureWithColdCache(t *testing.T) {
	repo := &flakyDashboardRepo{}
	repo.setBroken(true)
	r := dashboardRouter(repo)

	code, body := getDashboard(t, r)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "error")
}

func TestGetDashboardRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	handler := NewDashboardHandler(dashboard.NewController(&flakyDashboardRepo{}, 0, log))

	r := gin.New()
	r.GET("/dashboard", handler.GetDashboard)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
