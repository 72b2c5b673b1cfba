package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, name string, stock int) int64 {
	t.Helper()
	id, err := s.Products().CreateProduct(context.Background(), &models.Product{
		Name:         name,
		Category:     models.CategoryBeverage,
		Price:        decimal.RequireFromString("50.00"),
		CurrentStock: stock,
		Unit:         "cup",
	})
	require.NoError(t, err)
	return id
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedProduct(t, s, "Latte", 5)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(tx repositories.Store) error {
		_, err := tx.Products().UpdateStock(ctx, id, -3)
		require.NoError(t, err)
		_, err = tx.Adjustments().CreateAdjustment(ctx, &models.InventoryAdjustment{ProductID: id, Kind: models.AdjustmentSale})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Products().GetProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, p.CurrentStock)

	adjustments, err := s.Adjustments().GetAdjustments(ctx, models.AdjustmentFilters{})
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedProduct(t, s, "Mocha", 5)

	err := s.RunInTx(ctx, func(tx repositories.Store) error {
		return tx.RunInTx(ctx, func(inner repositories.Store) error {
			_, err := inner.Products().UpdateStock(ctx, id, -2)
			return err
		})
	})
	require.NoError(t, err)

	p, err := s.Products().GetProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentStock)
}

func TestUpdateStock_Guard(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedProduct(t, s, "Americano", 2)

	_, err := s.Products().UpdateStock(ctx, id, -3)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)

	n, err := s.Products().UpdateStock(ctx, id, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.Products().UpdateStock(ctx, 999, 1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	s := New()
	seedProduct(t, s, "Latte", 1)
	_, err := s.Products().CreateProduct(context.Background(), &models.Product{Name: "latte", Category: models.CategoryBeverage})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
}

func TestAddCartLine_MergesAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Kiosk().CreateSession(ctx, &models.KioskSession{SessionID: "abc", Status: models.KioskSessionActive}))

	require.NoError(t, s.Kiosk().AddCartLine(ctx, "abc", models.CartLine{ProductID: 2, Quantity: 1}))
	require.NoError(t, s.Kiosk().AddCartLine(ctx, "abc", models.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, s.Kiosk().AddCartLine(ctx, "abc", models.CartLine{ProductID: 2, Quantity: 2}))

	lines, err := s.Kiosk().GetCartLines(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(2), lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, int64(1), lines[1].ProductID)

	require.NoError(t, s.Kiosk().RemoveCartLine(ctx, "abc", 2))
	lines, err = s.Kiosk().GetCartLines(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].ProductID)
}

func TestAddCartLine_RejectsMergeOverLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Kiosk().CreateSession(ctx, &models.KioskSession{SessionID: "abc", Status: models.KioskSessionActive}))

	require.NoError(t, s.Kiosk().AddCartLine(ctx, "abc", models.CartLine{ProductID: 1, Quantity: models.MaxLineQuantity - 1}))
	err := s.Kiosk().AddCartLine(ctx, "abc", models.CartLine{ProductID: 1, Quantity: 2})
	assert.ErrorIs(t, err, repositories.ErrQuantityLimit)

	lines, err := s.Kiosk().GetCartLines(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.MaxLineQuantity-1, lines[0].Quantity)
}

func TestMarkCompleted_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	order := &models.Order{
		Channel:             models.ChannelPOS,
		Status:              models.StatusPending,
		TotalBeforeDiscount: decimal.RequireFromString("100.00"),
		DiscountAmount:      decimal.Zero,
	}
	id, err := s.Orders().CreateOrder(ctx, order)
	require.NoError(t, err)

	require.NoError(t, s.Orders().MarkCompleted(ctx, id, decimal.RequireFromString("120.00"), order.CreatedAt))
	got, err := s.Orders().GetOrderByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.ChangeAmount.Equal(decimal.RequireFromString("20.00")))

	err = s.Orders().MarkCompleted(ctx, id, decimal.RequireFromString("120.00"), order.CreatedAt)
	assert.ErrorIs(t, err, repositories.ErrConflict)
	err = s.Orders().UpdateDiscount(ctx, id, decimal.NewFromInt(10), models.DiscountStudent)
	assert.ErrorIs(t, err, repositories.ErrConflict)
}

func TestAccumulate_Upserts(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Reports().Accumulate(ctx, "2024-05-01", decimal.NewFromInt(90), decimal.NewFromInt(10), 2, timeZero))
	require.NoError(t, s.Reports().Accumulate(ctx, "2024-05-01", decimal.NewFromInt(50), decimal.Zero, 1, timeZero))
	require.NoError(t, s.Reports().Accumulate(ctx, "2024-05-03", decimal.NewFromInt(5), decimal.Zero, 1, timeZero))

	a, err := s.Reports().GetDaily(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 2, a.TransactionCount)
	assert.True(t, a.Revenue.Equal(decimal.NewFromInt(140)))
	assert.Equal(t, 3, a.ItemsSold)

	days, err := s.Reports().GetRange(ctx, "2024-05-01", "2024-05-31")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-05-03", days[1].ReportDate)
}

var timeZero = time.Time{}
