package handlers

import (
	"net/http"

	"kohisync_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// KioskHandler serves the public self-service kiosk. Sessions are identified only by their id.
type KioskHandler struct {
	kioskService services.KioskService
}

// NewKioskHandler creates a new KioskHandler.
func NewKioskHandler(ks services.KioskService) *KioskHandler {
	return &KioskHandler{kioskService: ks}
}

// CreateSession opens a new cart session.
func (h *KioskHandler) CreateSession(c *gin.Context) {
	session, err := h.kioskService.CreateSession(c.Request.Context())
	if err != nil {
		respondServiceError(c, "CreateSession", err, "Failed to create session.")
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetMenu lists in-stock beverages and food.
func (h *KioskHandler) GetMenu(c *gin.Context) {
	menu, err := h.kioskService.Menu(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetMenu", err, "Failed to fetch menu.")
		return
	}
	c.JSON(http.StatusOK, menu)
}

// GetCart returns the cart priced at current catalogue prices.
func (h *KioskHandler) GetCart(c *gin.Context) {
	cart, err := h.kioskService.ReadCart(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondServiceError(c, "GetCart", err, "Failed to fetch cart.")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds a product to the cart, merging with an existing line for the same product.
func (h *KioskHandler) AddItem(c *gin.Context) {
	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "AddItem", err)
		return
	}

	cart, err := h.kioskService.AddItem(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		respondServiceError(c, "AddItem", err, "Failed to add item to cart.")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem drops a product's line from the cart.
func (h *KioskHandler) RemoveItem(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	cart, err := h.kioskService.RemoveItem(c.Request.Context(), c.Param("session_id"), productID)
	if err != nil {
		respondServiceError(c, "RemoveItem", err, "Failed to remove item from cart.")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// SubmitOrder turns the cart into a pending kiosk order to be paid at the counter.
func (h *KioskHandler) SubmitOrder(c *gin.Context) {
	var req services.SubmitKioskOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, "SubmitOrder", err)
			return
		}
	}

	order, err := h.kioskService.Submit(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		respondServiceError(c, "SubmitOrder", err, "Failed to submit order.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":   order,
		"message": "Order submitted. Please pay at the counter.",
	})
}
