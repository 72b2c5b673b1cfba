package services

import (
	"context"
	"errors"
	"fmt"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// discountRates is the fixed policy table. manual has no rate and needs an explicit amount.
var discountRates = map[models.DiscountReason]decimal.Decimal{
	models.DiscountSeniorCitizen: decimal.NewFromFloat(0.20),
	models.DiscountPWD:           decimal.NewFromFloat(0.20),
	models.DiscountStudent:       decimal.NewFromFloat(0.10),
}

// LineRequest is one requested (product, quantity, note) selection.
type LineRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0,max=10000"`
	Note      *string `json:"note"`
}

// ComputeDiscount returns the discount for subtotal. An explicit amount wins over the table.
func ComputeDiscount(subtotal decimal.Decimal, reason models.DiscountReason, amount *decimal.Decimal) (decimal.Decimal, error) {
	rate, tabled := discountRates[reason]
	if !tabled && reason != models.DiscountManual {
		return decimal.Zero, fmt.Errorf("%w: '%s'", ErrInvalidDiscountReason, reason)
	}

	if amount != nil {
		if amount.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: discount amount must not be negative", ErrValidation)
		}
		if !amount.Equal(amount.Round(2)) {
			return decimal.Zero, fmt.Errorf("%w: discount amount has more than two decimals", ErrValidation)
		}
		return *amount, nil
	}

	if !tabled {
		return decimal.Zero, fmt.Errorf("%w: manual discount requires an explicit amount", ErrInvalidDiscountReason)
	}
	return subtotal.Mul(rate).Round(2), nil
}

// priceLines snapshots current product prices onto order lines.
func priceLines(ctx context.Context, products repositories.ProductRepository, reqs []LineRequest) ([]models.OrderLine, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, ErrEmptyCart
	}

	total := decimal.Zero
	lines := make([]models.OrderLine, 0, len(reqs))
	perProduct := map[int64]int{}
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity for product ID %d must be positive", ErrValidation, req.ProductID)
		}
		if req.Quantity > models.MaxLineQuantity-perProduct[req.ProductID] {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity for product ID %d exceeds %d", ErrValidation, req.ProductID, models.MaxLineQuantity)
		}
		perProduct[req.ProductID] += req.Quantity
		product, err := products.GetProductByID(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, decimal.Zero, fmt.Errorf("%w: product ID %d", ErrProductNotFound, req.ProductID)
			}
			return nil, decimal.Zero, fmt.Errorf("failed to fetch product %d: %w", req.ProductID, err)
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
		total = total.Add(subtotal)
		lines = append(lines, models.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
			Note:        req.Note,
		})
	}
	return lines, total, nil
}
