package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
	"kohisync_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderRequest is a finished staff cart submitted from the counter.
type CreateOrderRequest struct {
	CustomerName *string       `json:"customer_name"`
	Notes        *string       `json:"notes"`
	Lines        []LineRequest `json:"items" binding:"required,dive"`
}

// ApplyDiscountRequest replaces any discount already on the order.
type ApplyDiscountRequest struct {
	Reason models.DiscountReason `json:"discount_reason" binding:"required"`
	Amount *decimal.Decimal      `json:"discount_amount"`
}

// --- End of DTOs ---

// --- OrderService Interface ---
type OrderService interface {
	// CreateOrder records a counter order and deducts its stock in the same transaction.
	CreateOrder(ctx context.Context, operatorID *int64, req CreateOrderRequest) (*models.Order, error)
	ApplyDiscount(ctx context.Context, orderID int64, req ApplyDiscountRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	ListPendingKioskOrders(ctx context.Context) ([]models.Order, error)
}

// --- orderService Implementation ---
type orderService struct {
	store     repositories.Store
	observers Observers
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(store repositories.Store, observers Observers) OrderService {
	return &orderService{
		store:     store,
		observers: observers.withDefaults(),
		now:       time.Now,
	}
}

func formatOrderNumber(channel models.Channel, seq int64) string {
	return fmt.Sprintf("%s-%06d", channel.NumberPrefix(), seq)
}

// insertOrder writes a pending order and its lines inside tx.
func insertOrder(ctx context.Context, tx repositories.Store, order *models.Order) error {
	seq, err := tx.Orders().NextOrderSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to allocate order number: %w", err)
	}
	order.OrderNumber = formatOrderNumber(order.Channel, seq)
	order.Status = models.StatusPending
	order.DiscountAmount = decimal.Zero
	order.RecomputeTotal()

	if _, err := tx.Orders().CreateOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to create order record: %w", err)
	}
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if _, err := tx.Orders().CreateOrderLine(ctx, &order.Lines[i]); err != nil {
			return fmt.Errorf("failed to create order line (product_id: %d): %w", order.Lines[i].ProductID, err)
		}
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, operatorID *int64, req CreateOrderRequest) (*models.Order, error) {
	order := &models.Order{
		Channel:      models.ChannelPOS,
		OperatorID:   operatorID,
		CustomerName: trimmedOrNil(req.CustomerName),
		Notes:        trimmedOrNil(req.Notes),
		CreatedAt:    s.now(),
	}

	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		lines, total, err := priceLines(ctx, tx.Products(), req.Lines)
		if err != nil {
			return err
		}
		order.Lines = lines
		order.TotalBeforeDiscount = total

		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}
		// Counter goods leave with the customer, so stock moves at creation.
		return deductForSale(ctx, tx, order, s.now())
	})
	if err != nil {
		if errors.Is(err, ErrOutOfStock) {
			utils.LogDebug("counter order rejected", map[string]interface{}{"reason": err.Error()})
		}
		return nil, err
	}

	s.observers.Metrics.OrderCreated(order.Channel)
	utils.LogInfo("order created", map[string]interface{}{
		"order_id": order.ID, "order_number": order.OrderNumber, "channel": order.Channel,
		"total": order.TotalBeforeDiscount.StringFixed(2),
	})
	return s.GetOrderByID(ctx, order.ID)
}

func (s *orderService) ApplyDiscount(ctx context.Context, orderID int64, req ApplyDiscountRequest) (*models.Order, error) {
	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		order, err := tx.Orders().GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
			}
			return fmt.Errorf("failed to fetch order for discount: %w", err)
		}
		if order.Status != models.StatusPending {
			return fmt.Errorf("%w: order %s is %s", ErrOrderNotPending, order.OrderNumber, order.Status)
		}

		amount, err := ComputeDiscount(order.TotalBeforeDiscount, req.Reason, req.Amount)
		if err != nil {
			return err
		}
		if err := tx.Orders().UpdateDiscount(ctx, orderID, amount, req.Reason); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return fmt.Errorf("%w: order ID %d", ErrOrderNotPending, orderID)
			}
			return fmt.Errorf("failed to update discount: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrderByID(ctx, orderID)
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	return loadOrder(ctx, s.store, orderID)
}

func loadOrder(ctx context.Context, store repositories.Store, orderID int64) (*models.Order, error) {
	order, err := store.Orders().GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}
	lines, err := store.Orders().GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for order %d: %w", orderID, err)
	}
	order.Lines = lines
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Channel != nil && *filters.Channel != "" && !filters.Channel.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown channel '%s'", ErrValidation, *filters.Channel)
	}
	if filters.Date != nil && *filters.Date != "" {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			return nil, 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}
	orders, totalCount, err := s.store.Orders().GetOrders(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) ListPendingKioskOrders(ctx context.Context) ([]models.Order, error) {
	channel := models.ChannelKiosk
	status := models.StatusPending
	orders, _, err := s.store.Orders().GetOrders(ctx, models.OrderFilters{Channel: &channel, Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending kiosk orders: %w", err)
	}
	for i := range orders {
		lines, err := s.store.Orders().GetOrderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get lines for order %d: %w", orders[i].ID, err)
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(*s)
}
