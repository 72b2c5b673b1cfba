package repositories

import (
	"context"
	"time"

	"kohisync_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Categories  []models.ProductCategory
	InStockOnly bool
}

// ProductRepository owns the product catalogue and its stock counters.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// GetProductForUpdate reads the product and, inside a transaction, holds its row lock until commit.
	GetProductForUpdate(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetLowStockProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	// UpdateStock applies delta in a single conditional statement and returns the new level.
	// It fails with ErrInsufficientStock when the result would be negative.
	UpdateStock(ctx context.Context, productID int64, delta int) (int, error)
}

// OrderRepository persists orders and their priced lines.
type OrderRepository interface {
	NextOrderSequence(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) (int64, error)
	CreateOrderLine(ctx context.Context, line *models.OrderLine) (int64, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	UpdateDiscount(ctx context.Context, orderID int64, amount decimal.Decimal, reason models.DiscountReason) error
	MarkCompleted(ctx context.Context, orderID int64, amountPaid decimal.Decimal, completedAt time.Time) error
}

// InventoryAdjustmentRepository is the append-only stock audit trail.
type InventoryAdjustmentRepository interface {
	CreateAdjustment(ctx context.Context, adjustment *models.InventoryAdjustment) (int64, error)
	GetAdjustments(ctx context.Context, filters models.AdjustmentFilters) ([]models.InventoryAdjustment, error)
}

// KioskSessionRepository stores kiosk sessions and their structured cart lines.
type KioskSessionRepository interface {
	CreateSession(ctx context.Context, session *models.KioskSession) error
	GetSession(ctx context.Context, sessionID string) (*models.KioskSession, error)
	// GetSessionForUpdate serializes mutations of one session when called inside a transaction.
	GetSessionForUpdate(ctx context.Context, sessionID string) (*models.KioskSession, error)
	GetCartLines(ctx context.Context, sessionID string) ([]models.CartLine, error)
	// AddCartLine appends the line, or adds its quantity to an existing line for the same product.
	AddCartLine(ctx context.Context, sessionID string, line models.CartLine) error
	RemoveCartLine(ctx context.Context, sessionID string, productID int64) error
	MarkSubmitted(ctx context.Context, sessionID string, orderID int64) error
}

// DailyReportRepository accumulates completed sales per calendar date.
type DailyReportRepository interface {
	Accumulate(ctx context.Context, reportDate string, revenue, discount decimal.Decimal, itemsSold int, at time.Time) error
	GetDaily(ctx context.Context, reportDate string) (*models.DailyAggregate, error)
	GetRange(ctx context.Context, fromDate, toDate string) ([]models.DailyAggregate, error)

	// The analytics below read orders completed in [from, to). Averages are left to the caller.

	// TopProducts ranks products by line revenue, highest first, returning at most limit rows.
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.ProductSales, error)
	// DiscountUsage groups discounted orders by reason, most used first.
	DiscountUsage(ctx context.Context, from, to time.Time) ([]models.DiscountUsage, error)
	// ChannelSales counts days active as distinct calendar dates in loc.
	ChannelSales(ctx context.Context, from, to time.Time, loc *time.Location) ([]models.ChannelSales, error)
}

// UserRepository stores operator accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
	// ListUsers returns every account, newest first.
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Store hands out repositories bound to one executor. Services depend on this interface only.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	Adjustments() InventoryAdjustmentRepository
	Kiosk() KioskSessionRepository
	Reports() DailyReportRepository
	Users() UserRepository

	// RunInTx runs fn with repositories bound to one transaction. A non-nil error from fn rolls
	// everything back. Calling RunInTx on a transactional store reuses the open transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}
