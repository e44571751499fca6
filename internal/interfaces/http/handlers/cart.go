// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/catalog"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

const sessionHeader = "X-Session-ID"

// CartHandler handles cart endpoints for both guest and authenticated
// shoppers. Each request builds a short-lived Synchronizer scoped to the
// caller's session.
type CartHandler struct {
	catalogService *catalog.Service
	local          cart.Store
	remote         cart.Repository
	log            *logrus.Logger
	config         *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger, cfg *config.Config) *CartHandler {
	return &CartHandler{
		catalogService: catalog.NewService(db, cfg),
		local:          cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL),
		remote:         cart.NewGormRepository(db),
		log:            log,
		config:         cfg,
	}
}

// AddToCartRequest represents the payload for adding an item
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sync, sessionID := h.synchronizer(c)

	h.respondWithCart(c, sync, sessionID, "Cart retrieved successfully")
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	product, err := h.catalogService.GetProduct(req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}
	if !product.IsAvailable() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Product is no longer available",
		})
		return
	}

	sync, sessionID := h.synchronizer(c)

	line := cart.Line{
		ItemID:    product.ID,
		Name:      product.Title,
		UnitPrice: product.Price,
		ImageRef:  product.PrimaryImageURL(),
	}
	if err := sync.AddLine(c.Request.Context(), line, req.Quantity); err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, cart.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to add item to cart",
			})
		}
		return
	}

	h.respondWithCart(c, sync, sessionID, "Item added to cart")
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return
	}

	sync, sessionID := h.synchronizer(c)

	if err := sync.RemoveLine(c.Request.Context(), uint(itemID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.respondWithCart(c, sync, sessionID, "Item removed from cart")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sync, sessionID := h.synchronizer(c)

	if err := sync.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	h.respondWithCart(c, sync, sessionID, "Cart cleared")
}

// MergeCart handles POST /cart/merge. It is called right after login to
// fold the guest session cart into the account cart.
func (h *CartHandler) MergeCart(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	sessionID := h.sessionID(c)
	sync := cart.NewSynchronizer(c.Request.Context(), sessionID, nil, h.local, h.remote, h.log)

	if err := sync.MergeOnLogin(c.Request.Context(), userID); err != nil {
		// Local lines survive a failed merge; the client keeps what it
		// had and may retry.
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Cart merge incomplete",
			"data": gin.H{
				"session_id": sessionID,
				"lines":      sync.Lines(),
				"totals":     sync.Totals(),
			},
		})
		return
	}

	h.respondWithCart(c, sync, sessionID, "Cart merged successfully")
}

// synchronizer builds the per-request cart synchronizer for the caller,
// authenticated or not.
func (h *CartHandler) synchronizer(c *gin.Context) (*cart.Synchronizer, string) {
	sessionID := h.sessionID(c)

	var userID *uint
	if id, exists := middleware.GetUserIDFromContext(c); exists {
		userID = &id
	}

	return cart.NewSynchronizer(c.Request.Context(), sessionID, userID, h.local, h.remote, h.log), sessionID
}

// sessionID resolves the caller's cart session, minting one when absent.
func (h *CartHandler) sessionID(c *gin.Context) string {
	if id := c.GetHeader(sessionHeader); id != "" {
		return id
	}
	if id, err := c.Cookie("cart_session"); err == nil && id != "" {
		return id
	}
	id := uuid.New().String()
	c.SetCookie("cart_session", id, int(h.config.Cart.SessionTTL.Seconds()), "/", "", false, true)
	return id
}

func (h *CartHandler) respondWithCart(c *gin.Context, sync *cart.Synchronizer, sessionID, message string) {
	c.Header(sessionHeader, sessionID)
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"session_id": sessionID,
			"lines":      sync.Lines(),
			"totals":     sync.Totals(),
		},
	})
}
