package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu         sync.Mutex
	created    []models.Channel
	completed  []models.Channel
	rejections []string
	adjusted   []models.AdjustmentKind
	submitted  []*models.Order
	finished   []*models.Order
}

func (r *recordingObserver) OrderCreated(channel models.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, channel)
}

func (r *recordingObserver) OrderCompleted(channel models.Channel, _ decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, channel)
}

func (r *recordingObserver) SettlementRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, reason)
}

func (r *recordingObserver) StockAdjusted(kind models.AdjustmentKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjusted = append(r.adjusted, kind)
}

func (r *recordingObserver) KioskOrderSubmitted(order *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted = append(r.submitted, order)
}

// OrderCompleted on the Notifier side is satisfied through notifierAdapter.
type notifierAdapter struct{ r *recordingObserver }

func (n notifierAdapter) KioskOrderSubmitted(order *models.Order) { n.r.KioskOrderSubmitted(order) }
func (n notifierAdapter) OrderCompleted(order *models.Order) {
	n.r.mu.Lock()
	defer n.r.mu.Unlock()
	n.r.finished = append(n.r.finished, order)
}

type testEnv struct {
	store      *memory.Store
	observer   *recordingObserver
	orders     *orderService
	settlement *settlementService
	inventory  *inventoryService
	kiosk      *kioskService
	reports    *reportService
	clock      *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	obs := &recordingObserver{}
	observers := Observers{Metrics: obs, Notifier: notifierAdapter{obs}}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}

	env := &testEnv{
		store:      store,
		observer:   obs,
		orders:     NewOrderService(store, observers).(*orderService),
		settlement: NewSettlementService(store, observers, nil).(*settlementService),
		inventory:  NewInventoryService(store, observers).(*inventoryService),
		kiosk:      NewKioskService(store, observers, 0).(*kioskService),
		reports:    NewReportService(store, nil).(*reportService),
		clock:      clock,
	}
	env.orders.now = clock.Now
	env.settlement.now = clock.Now
	env.inventory.now = clock.Now
	env.kiosk.now = clock.Now
	env.reports.now = clock.Now
	return env
}

func (e *testEnv) product(t *testing.T, name string, category models.ProductCategory, price string, stock int) *models.Product {
	t.Helper()
	p, err := e.inventory.CreateProduct(context.Background(), CreateProductRequest{
		Name:         name,
		Category:     category,
		Price:        decimal.RequireFromString(price),
		CurrentStock: &stock,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) stockOf(t *testing.T, productID int64) int {
	t.Helper()
	p, err := e.store.Products().GetProductByID(context.Background(), productID)
	require.NoError(t, err)
	return p.CurrentStock
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
