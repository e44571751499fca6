// internal/interfaces/http/handlers/dashboard.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/marketplace-backend/internal/domain/dashboard"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// DashboardHandler handles seller dashboard endpoints
type DashboardHandler struct {
	controller *dashboard.Controller
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(controller *dashboard.Controller) *DashboardHandler {
	return &DashboardHandler{controller: controller}
}

// UpdateOrderStatusRequest represents the payload for an order status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetDashboard handles GET /dashboard. Pass ?force=true to bypass the
// freshness window.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	sellerID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	force := strings.EqualFold(c.Query("force"), "true")

	view, err := h.controller.Refresh(c.Request.Context(), sellerID, force)
	if err != nil {
		if view != nil && view.Snapshot != nil {
			// Serve the stale snapshot rather than an empty dashboard, but
			// carry the failure so the client can show its error banner
			c.JSON(http.StatusOK, gin.H{
				"message": "Dashboard refresh failed, serving cached data",
				"error":   err.Error(),
				"data":    view,
				"stale":   true,
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to load dashboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard retrieved successfully",
		"data":    view,
	})
}

// UpdateOrderStatus handles PUT /dashboard/orders/:id/status
func (h *DashboardHandler) UpdateOrderStatus(c *gin.Context) {
	sellerID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	status := order.Status(strings.ToLower(req.Status))
	if err := h.controller.UpdateOrderStatus(c.Request.Context(), sellerID, uint(orderID), status); err != nil {
		if errors.Is(err, dashboard.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
	})
}
