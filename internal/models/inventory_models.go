package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory classifies catalogue entries. Only beverage and food are sold to kiosk customers.
type ProductCategory string

const (
	CategoryBeverage   ProductCategory = "beverage"
	CategoryFood       ProductCategory = "food"
	CategoryIngredient ProductCategory = "ingredient"
)

// Valid reports whether c is one of the known categories.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryBeverage, CategoryFood, CategoryIngredient:
		return true
	}
	return false
}

// CustomerFacing reports whether products of this category may be ordered from the kiosk.
func (c ProductCategory) CustomerFacing() bool {
	return c == CategoryBeverage || c == CategoryFood
}

// Product is a sellable or internal stock item.
type Product struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Description       *string         `json:"description,omitempty" db:"description"`
	Category          ProductCategory `json:"category" db:"category"`
	Price             decimal.Decimal `json:"price" db:"price"`
	CurrentStock      int             `json:"current_stock" db:"current_stock"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	Unit              string          `json:"unit" db:"unit"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether the product is at or below its alert threshold.
func (p Product) IsLowStock() bool {
	return p.CurrentStock <= p.LowStockThreshold
}

// StockStatus is "low" or "ok".
func (p Product) StockStatus() string {
	if p.IsLowStock() {
		return "low"
	}
	return "ok"
}

// AdjustmentKind names why a stock level changed.
type AdjustmentKind string

const (
	AdjustmentAdd        AdjustmentKind = "add"
	AdjustmentDeduct     AdjustmentKind = "deduct"
	AdjustmentCorrection AdjustmentKind = "correction"
	// AdjustmentSale is written by settlement, never accepted from a manual request.
	AdjustmentSale AdjustmentKind = "sale"
)

// ManualAdjustmentKind reports whether k may be requested by an operator.
func ManualAdjustmentKind(k AdjustmentKind) bool {
	return k == AdjustmentAdd || k == AdjustmentDeduct || k == AdjustmentCorrection
}

// InventoryAdjustment is an append-only audit row for a stock change.
type InventoryAdjustment struct {
	ID              int64          `json:"id" db:"id"`
	ProductID       int64          `json:"product_id" db:"product_id"`
	Kind            AdjustmentKind `json:"adjustment_kind" db:"adjustment_kind"`
	QuantityChanged int            `json:"quantity_changed" db:"quantity_changed"`
	PreviousStock   int            `json:"previous_stock" db:"previous_stock"`
	NewStock        int            `json:"new_stock" db:"new_stock"`
	Reason          *string        `json:"reason,omitempty" db:"reason"`
	OperatorID      *int64         `json:"operator_id,omitempty" db:"operator_id"`
	OrderID         *int64         `json:"order_id,omitempty" db:"order_id"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	ProductName     string         `json:"product_name,omitempty"`
}

// AdjustmentFilters narrows the adjustment history query.
type AdjustmentFilters struct {
	ProductID *int64
	Since     time.Time
}

// InventorySummary is the stock overview shown to staff.
type InventorySummary struct {
	TotalItems    int       `json:"total_items"`
	LowStockCount int       `json:"low_stock_count"`
	LowStockItems []Product `json:"low_stock_items"`
}
