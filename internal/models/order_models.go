package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel is where an order originated.
type Channel string

const (
	ChannelPOS   Channel = "pos"
	ChannelKiosk Channel = "kiosk"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelPOS || c == ChannelKiosk
}

// NumberPrefix is the human-readable prefix for order numbers of this channel.
func (c Channel) NumberPrefix() string {
	if c == ChannelKiosk {
		return "KIOSK"
	}
	return "POS"
}

// MaxLineQuantity caps the quantity of one product on an order or in a cart,
// including quantities merged from repeated lines.
const MaxLineQuantity = 10000

// OrderStatus moves pending -> completed exactly once.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
)

// DiscountReason identifies which discount policy applied.
type DiscountReason string

const (
	DiscountSeniorCitizen DiscountReason = "senior_citizen"
	DiscountPWD           DiscountReason = "pwd"
	DiscountStudent       DiscountReason = "student"
	DiscountManual        DiscountReason = "manual"
)

// Order is a committed sale (a "transaction" at the counter).
type Order struct {
	ID                  int64           `json:"id" db:"id"`
	OrderNumber         string          `json:"order_number" db:"order_number"`
	Channel             Channel         `json:"channel" db:"channel"`
	OperatorID          *int64          `json:"operator_id,omitempty" db:"operator_id"`
	CustomerName        *string         `json:"customer_name,omitempty" db:"customer_name"`
	Notes               *string         `json:"notes,omitempty" db:"notes"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount" db:"total_before_discount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	DiscountReason      *DiscountReason `json:"discount_reason,omitempty" db:"discount_reason"`
	TotalAfterDiscount  decimal.Decimal `json:"total_after_discount" db:"total_after_discount"`
	AmountPaid          decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	ChangeAmount        decimal.Decimal `json:"change_amount" db:"change_amount"`
	Status              OrderStatus     `json:"status" db:"status"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Lines               []OrderLine     `json:"lines"`
}

// RecomputeTotal derives TotalAfterDiscount from its inputs. It is the only writer of that field.
func (o *Order) RecomputeTotal() {
	total := o.TotalBeforeDiscount.Sub(o.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.TotalAfterDiscount = total.Round(2)
}

// ItemCount is the number of units across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// OrderLine carries the unit price snapshot taken when the order was created.
type OrderLine struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"order_id" db:"order_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
	Note        *string         `json:"note,omitempty" db:"note"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	Channel  *Channel     `form:"channel"`
	Status   *OrderStatus `form:"status"`
	Date     *string      `form:"date"` // Expected format YYYY-MM-DD
	// CompletedFrom and CompletedTo bound completed_at as a half-open range.
	CompletedFrom *time.Time `form:"-"`
	CompletedTo   *time.Time `form:"-"`
	Page     int          `form:"page"`
	PageSize int          `form:"page_size"`
}
