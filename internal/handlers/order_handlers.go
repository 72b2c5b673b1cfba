package handlers

import (
	"net/http"

	"kohisync_backend/internal/middleware"
	"kohisync_backend/internal/models"
	"kohisync_backend/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderHandler serves the cashier-facing order endpoints.
type OrderHandler struct {
	orderService      services.OrderService
	settlementService services.SettlementService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService, ss services.SettlementService) *OrderHandler {
	return &OrderHandler{orderService: os, settlementService: ss}
}

// CreateOrder records a counter (pos) order and deducts its stock immediately.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreateOrder", err)
		return
	}

	var operatorID *int64
	if id, ok := middleware.CurrentUserID(c); ok {
		operatorID = &id
	}

	createdOrder, err := h.orderService.CreateOrder(c.Request.Context(), operatorID, req)
	if err != nil {
		respondServiceError(c, "CreateOrder", err, "Failed to create order.")
		return
	}
	c.JSON(http.StatusCreated, createdOrder)
}

// GetOrders handles fetching orders with filters and paging.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, "GetOrders", err)
		return
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}

	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetOrders", err, "Failed to fetch orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetPendingKioskOrders lists kiosk orders waiting for payment at the counter, oldest first.
func (h *OrderHandler) GetPendingKioskOrders(c *gin.Context) {
	orders, err := h.orderService.ListPendingKioskOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetPendingKioskOrders", err, "Failed to fetch pending kiosk orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": len(orders)})
}

// GetOrderByID handles fetching a single order by ID with its lines.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, "GetOrderByID", err, "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ApplyDiscount sets the order's discount, replacing any earlier one.
func (h *OrderHandler) ApplyDiscount(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "ApplyDiscount", err)
		return
	}

	order, err := h.orderService.ApplyDiscount(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, "ApplyDiscount", err, "Failed to apply discount.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// PayOrder settles a pending order.
func (h *OrderHandler) PayOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "PayOrder", err)
		return
	}

	result, err := h.settlementService.Pay(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, "PayOrder", err, "Failed to process payment.")
		return
	}
	c.JSON(http.StatusOK, result)
}
