package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KioskSessionStatus is active until the cart is submitted.
type KioskSessionStatus string

const (
	KioskSessionActive    KioskSessionStatus = "active"
	KioskSessionSubmitted KioskSessionStatus = "submitted"
)

// KioskSession is an anonymous, time-limited ordering session. Its cart lives in CartLine rows.
type KioskSession struct {
	SessionID string             `json:"session_id" db:"session_id"`
	Status    KioskSessionStatus `json:"status" db:"status"`
	OrderID   *int64             `json:"order_id,omitempty" db:"order_id"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the absolute TTL has elapsed at now.
func (s *KioskSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Mutable reports whether the cart may still be changed or submitted.
func (s *KioskSession) Mutable(now time.Time) bool {
	return s.Status == KioskSessionActive && !s.Expired(now)
}

// CartLine is one product selection in a kiosk cart, kept in insertion order.
type CartLine struct {
	ProductID int64   `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Note      *string `json:"note,omitempty" db:"note"`
	Position  int     `json:"-" db:"position"`
}

// CartViewLine is a cart line priced against the current catalogue.
type CartViewLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Note        *string         `json:"note,omitempty"`
}

// CartView is the read-only priced view of a kiosk cart.
type CartView struct {
	SessionID string             `json:"session_id"`
	Status    KioskSessionStatus `json:"status"`
	ExpiresAt time.Time          `json:"expires_at"`
	Lines     []CartViewLine     `json:"cart"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`
}

// KioskMenu groups in-stock customer-facing products.
type KioskMenu struct {
	Beverages []Product `json:"beverages"`
	Food      []Product `json:"food"`
}
