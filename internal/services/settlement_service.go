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

// PayRequest is a cash tender for one pending order.
type PayRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid" binding:"required"`
}

// PaymentResult is the completed order and the change handed back.
type PaymentResult struct {
	Order        *models.Order   `json:"transaction"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
}

// SettlementService moves orders from pending to completed.
type SettlementService interface {
	// Pay completes the order. Kiosk orders take their stock here; counter orders already did.
	// On any error the order stays pending and stock is untouched.
	Pay(ctx context.Context, orderID int64, req PayRequest) (*PaymentResult, error)
}

type settlementService struct {
	store     repositories.Store
	observers Observers
	location  *time.Location
	now       func() time.Time
}

// NewSettlementService creates a SettlementService. Daily aggregates are dated in loc (UTC when nil).
func NewSettlementService(store repositories.Store, observers Observers, loc *time.Location) SettlementService {
	if loc == nil {
		loc = time.UTC
	}
	return &settlementService{
		store:     store,
		observers: observers.withDefaults(),
		location:  loc,
		now:       time.Now,
	}
}

func (s *settlementService) Pay(ctx context.Context, orderID int64, req PayRequest) (*PaymentResult, error) {
	if req.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: amount paid must not be negative", ErrValidation)
	}
	if !req.AmountPaid.Equal(req.AmountPaid.Round(2)) {
		return nil, fmt.Errorf("%w: amount paid has more than two decimals", ErrValidation)
	}

	completedAt := s.now()
	var completed *models.Order
	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		order, err := tx.Orders().GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
			}
			return fmt.Errorf("failed to fetch order for payment: %w", err)
		}
		if order.Status != models.StatusPending {
			return fmt.Errorf("%w: order %s is %s", ErrOrderNotPending, order.OrderNumber, order.Status)
		}
		if req.AmountPaid.LessThan(order.TotalAfterDiscount) {
			return fmt.Errorf("%w: paid %s, due %s", ErrInsufficientPayment,
				req.AmountPaid.StringFixed(2), order.TotalAfterDiscount.StringFixed(2))
		}

		lines, err := tx.Orders().GetOrderLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to fetch order lines: %w", err)
		}
		order.Lines = lines

		if order.Channel == models.ChannelKiosk {
			if err := deductForSale(ctx, tx, order, completedAt); err != nil {
				return err
			}
		}

		if err := tx.Orders().MarkCompleted(ctx, orderID, req.AmountPaid, completedAt); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return fmt.Errorf("%w: order ID %d", ErrOrderNotPending, orderID)
			}
			return fmt.Errorf("failed to complete order: %w", err)
		}

		// A manual discount can exceed the subtotal; only the part actually taken off is reported.
		granted := order.TotalBeforeDiscount.Sub(order.TotalAfterDiscount)
		reportDate := completedAt.In(s.location).Format("2006-01-02")
		if err := tx.Reports().Accumulate(ctx, reportDate, order.TotalAfterDiscount, granted,
			order.ItemCount(), completedAt); err != nil {
			return fmt.Errorf("failed to update daily report: %w", err)
		}

		order.Status = models.StatusCompleted
		order.AmountPaid = req.AmountPaid
		order.ChangeAmount = req.AmountPaid.Sub(order.TotalAfterDiscount)
		order.CompletedAt = &completedAt
		completed = order
		return nil
	})
	if err != nil {
		s.recordRejection(orderID, err)
		return nil, err
	}

	s.observers.Metrics.OrderCompleted(completed.Channel, completed.TotalAfterDiscount)
	s.observers.Notifier.OrderCompleted(completed)
	utils.LogInfo("order completed", map[string]interface{}{
		"order_id": completed.ID, "order_number": completed.OrderNumber, "channel": completed.Channel,
		"total": completed.TotalAfterDiscount.StringFixed(2), "change": completed.ChangeAmount.StringFixed(2),
	})
	return &PaymentResult{Order: completed, ChangeAmount: completed.ChangeAmount}, nil
}

func (s *settlementService) recordRejection(orderID int64, err error) {
	var reason string
	switch {
	case errors.Is(err, ErrInsufficientPayment):
		reason = "insufficient_payment"
	case errors.Is(err, ErrOutOfStock):
		reason = "out_of_stock"
	case errors.Is(err, ErrOrderNotPending):
		reason = "not_pending"
	default:
		return
	}
	s.observers.Metrics.SettlementRejected(reason)
	utils.LogDebug("payment rejected", map[string]interface{}{"order_id": orderID, "reason": reason, "detail": err.Error()})
}
