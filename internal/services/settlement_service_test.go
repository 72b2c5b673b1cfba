package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"kohisync_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPay_CounterScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 10)
	b := env.product(t, "Croissant", models.CategoryFood, "30", 10)

	order, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{
		Lines: []LineRequest{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assertDec(t, "130", order.TotalBeforeDiscount)

	discounted, err := env.orders.ApplyDiscount(ctx, order.ID, ApplyDiscountRequest{Reason: models.DiscountPWD})
	require.NoError(t, err)
	assertDec(t, "26", discounted.DiscountAmount)
	assertDec(t, "104", discounted.TotalAfterDiscount)

	result, err := env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("104")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Order.Status)
	assertDec(t, "0", result.ChangeAmount)

	// Counter stock moved at creation and not again at payment.
	assert.Equal(t, 8, env.stockOf(t, a.ID))
	assert.Equal(t, 9, env.stockOf(t, b.ID))

	stored, err := env.orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assertDec(t, "104", stored.AmountPaid)
	assertDec(t, "0", stored.ChangeAmount)
	require.NotNil(t, stored.CompletedAt)

	daily, err := env.reports.DailyReport(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 1, daily.TransactionCount)
	assertDec(t, "104", daily.Revenue)
	assertDec(t, "26", daily.Discounts)
	assert.Equal(t, 3, daily.ItemsSold)
	require.Len(t, daily.Orders, 1)

	assert.Equal(t, []models.Channel{models.ChannelPOS}, env.observer.completed)
	require.Len(t, env.observer.finished, 1)
}

func TestPay_ChangeIsReturned(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "45.50", 10)
	order, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{Lines: []LineRequest{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)

	result, err := env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("50")})
	require.NoError(t, err)
	assertDec(t, "4.50", result.ChangeAmount)
}

func TestPay_UnderpaymentKeepsOrderPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 10)
	order, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{Lines: []LineRequest{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("49.99")})
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	stored, err := env.orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assertDec(t, "0", stored.AmountPaid)
	assert.Equal(t, []string{"insufficient_payment"}, env.observer.rejections)

	// The cashier re-enters a sufficient amount.
	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("50")})
	require.NoError(t, err)
}

func TestPay_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 10)
	order, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{Lines: []LineRequest{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = env.settlement.Pay(ctx, 999, PayRequest{AmountPaid: dec("50")})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("50")})
	require.NoError(t, err)
	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("50")})
	assert.ErrorIs(t, err, ErrOrderNotPending)

	daily, err := env.reports.DailyReport(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 1, daily.TransactionCount)
}

func submitKioskOrder(t *testing.T, env *testEnv, lines ...AddCartItemRequest) *models.Order {
	t.Helper()
	ctx := context.Background()
	session, err := env.kiosk.CreateSession(ctx)
	require.NoError(t, err)
	for _, l := range lines {
		_, err := env.kiosk.AddItem(ctx, session.SessionID, l)
		require.NoError(t, err)
	}
	order, err := env.kiosk.Submit(ctx, session.SessionID, SubmitKioskOrderRequest{})
	require.NoError(t, err)
	return order
}

func TestPay_KioskDeductsAtPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 5)

	order := submitKioskOrder(t, env, AddCartItemRequest{ProductID: a.ID, Quantity: 2})
	assert.Equal(t, "KIOSK-000001", order.OrderNumber)
	assert.Equal(t, 5, env.stockOf(t, a.ID), "submission must not move stock")

	_, err := env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, 3, env.stockOf(t, a.ID))

	history, err := env.inventory.AdjustmentHistory(ctx, &a.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 5, history[0].PreviousStock)
	assert.Equal(t, 3, history[0].NewStock)
}

func TestPay_KioskOutOfStockIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 5)
	c := env.product(t, "Mocha", models.CategoryBeverage, "60", 1)

	order := submitKioskOrder(t, env,
		AddCartItemRequest{ProductID: a.ID, Quantity: 1},
		AddCartItemRequest{ProductID: c.ID, Quantity: 1},
	)

	// A counter sale takes the last Mocha before the kiosk order is paid.
	_, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{Lines: []LineRequest{{ProductID: c.ID, Quantity: 1}}})
	require.NoError(t, err)
	require.Equal(t, 0, env.stockOf(t, c.ID))

	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("110")})
	assert.ErrorIs(t, err, ErrOutOfStock)

	stored, err := env.orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 5, env.stockOf(t, a.ID), "earlier lines must be rolled back")
	assert.Equal(t, 0, env.stockOf(t, c.ID))
	assert.Contains(t, env.observer.rejections, "out_of_stock")

	daily, err := env.reports.DailyReport(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Zero(t, daily.TransactionCount)
}

func TestPay_ConcurrentKioskPaymentsNeverOversell(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 3)

	const buyers = 8
	orders := make([]*models.Order, buyers)
	for i := range orders {
		orders[i] = submitKioskOrder(t, env, AddCartItemRequest{ProductID: a.ID, Quantity: 1})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, outOfStock := 0, 0
	for _, o := range orders {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			_, err := env.settlement.Pay(ctx, orderID, PayRequest{AmountPaid: dec("50")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrOutOfStock):
				outOfStock++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(o.ID)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, buyers-3, outOfStock)
	assert.Equal(t, 0, env.stockOf(t, a.ID))
}

func TestPay_KioskRacesCounterSalesAndManualDeducts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "50", 6)

	const perActor = 6
	kioskOrders := make([]*models.Order, perActor)
	for i := range kioskOrders {
		kioskOrders[i] = submitKioskOrder(t, env, AddCartItemRequest{ProductID: a.ID, Quantity: 1})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	record := func(err error, shortage error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			taken++
		case errors.Is(err, shortage):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	for i := 0; i < perActor; i++ {
		wg.Add(3)
		go func(orderID int64) {
			defer wg.Done()
			_, err := env.settlement.Pay(ctx, orderID, PayRequest{AmountPaid: dec("50")})
			record(err, ErrOutOfStock)
		}(kioskOrders[i].ID)
		go func() {
			defer wg.Done()
			_, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{Lines: []LineRequest{{ProductID: a.ID, Quantity: 1}}})
			record(err, ErrOutOfStock)
		}()
		go func() {
			defer wg.Done()
			_, err := env.inventory.AdjustStock(ctx, nil, AdjustStockRequest{ProductID: a.ID, Kind: models.AdjustmentDeduct, Quantity: 1})
			record(err, ErrInvalidAdjustment)
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, taken)
	assert.Equal(t, 0, env.stockOf(t, a.ID))

	history, err := env.inventory.AdjustmentHistory(ctx, &a.ID, 0)
	require.NoError(t, err)
	moved := 0
	for _, adj := range history {
		assert.GreaterOrEqual(t, adj.NewStock, 0)
		moved += adj.QuantityChanged
	}
	assert.Equal(t, -6, moved)
}

func TestPay_ReportsDiscountActuallyGranted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, "Latte", models.CategoryBeverage, "40", 10)

	order, err := env.orders.CreateOrder(ctx, nil, CreateOrderRequest{Lines: []LineRequest{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)
	amount := dec("55")
	_, err = env.orders.ApplyDiscount(ctx, order.ID, ApplyDiscountRequest{Reason: models.DiscountManual, Amount: &amount})
	require.NoError(t, err)

	_, err = env.settlement.Pay(ctx, order.ID, PayRequest{AmountPaid: dec("0")})
	require.NoError(t, err)

	daily, err := env.reports.DailyReport(ctx, "2024-05-01")
	require.NoError(t, err)
	assertDec(t, "40", daily.Discounts)
	assertDec(t, "0", daily.Revenue)
}
