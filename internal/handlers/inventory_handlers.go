package handlers

import (
	"net/http"
	"strconv"

	"kohisync_backend/internal/middleware"
	"kohisync_backend/internal/models"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves catalogue and stock endpoints.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// GetInventory lists every product with its stock status and a low-stock summary.
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	listing, err := h.inventoryService.ListInventory(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetInventory", err, "Failed to fetch inventory.")
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetLowStock lists products at or below their threshold, most depleted first.
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	products, err := h.inventoryService.LowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetLowStock", err, "Failed to fetch low stock items.")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"low_stock_items": products, "count": len(products)})
}

// GetAdjustments returns the stock audit trail. Optional query: product_id, days (default 30).
func (h *InventoryHandler) GetAdjustments(c *gin.Context) {
	var productID *int64
	if raw := c.Query("product_id"); raw != "" {
		id, err := utils.ParsePositiveID(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid product_id: "+err.Error())
			return
		}
		productID = &id
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondValidationFailed(c, "days must be a positive integer")
			return
		}
		days = n
	}

	adjustments, err := h.inventoryService.AdjustmentHistory(c.Request.Context(), productID, days)
	if err != nil {
		respondServiceError(c, "GetAdjustments", err, "Failed to fetch adjustment history.")
		return
	}
	if adjustments == nil {
		adjustments = []models.InventoryAdjustment{}
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments})
}

// GetProduct fetches a single product.
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.inventoryService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, "GetProduct", err, "Failed to fetch product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product to the catalogue.
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreateProduct", err)
		return
	}
	product, err := h.inventoryService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateProduct", err, "Failed to create product.")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct edits catalogue details. Stock changes go through AdjustStock.
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateProduct", err)
		return
	}
	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), productID, req)
	if err != nil {
		respondServiceError(c, "UpdateProduct", err, "Failed to update product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

// AdjustStock applies a manual add, deduct or correction and records who made it.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "AdjustStock", err)
		return
	}

	var operatorID *int64
	if id, ok := middleware.CurrentUserID(c); ok {
		operatorID = &id
	}

	result, err := h.inventoryService.AdjustStock(c.Request.Context(), operatorID, req)
	if err != nil {
		respondServiceError(c, "AdjustStock", err, "Failed to adjust stock.")
		return
	}
	c.JSON(http.StatusOK, result)
}
