package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyAggregate is the running sales accumulator for one calendar date.
type DailyAggregate struct {
	ReportDate       string          `json:"report_date" db:"report_date"` // YYYY-MM-DD
	TransactionCount int             `json:"total_transactions" db:"total_transactions"`
	Revenue          decimal.Decimal `json:"total_revenue" db:"total_revenue"`
	Discounts        decimal.Decimal `json:"total_discounts" db:"total_discounts"`
	ItemsSold        int             `json:"total_items_sold" db:"total_items_sold"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// DailyReport is the daily aggregate plus the completed orders of that day.
type DailyReport struct {
	DailyAggregate
	AverageTransaction decimal.Decimal `json:"average_transaction"`
	Orders             []Order         `json:"transactions"`
}

// MonthlyReport rolls up the daily aggregates of one month.
type MonthlyReport struct {
	Year             int              `json:"year"`
	Month            int              `json:"month"`
	TransactionCount int              `json:"total_transactions"`
	Revenue          decimal.Decimal  `json:"total_revenue"`
	Discounts        decimal.Decimal  `json:"total_discounts"`
	ItemsSold        int              `json:"total_items_sold"`
	AverageDaily     decimal.Decimal  `json:"average_daily_revenue"`
	AverageTicket    decimal.Decimal  `json:"average_transaction"`
	Days             []DailyAggregate `json:"daily_breakdown"`
}

// ProductSales is one product's completed sales inside a reporting window.
type ProductSales struct {
	ProductID        int64           `json:"product_id" db:"product_id"`
	Name             string          `json:"name" db:"name"`
	Category         ProductCategory `json:"category" db:"category"`
	QuantitySold     int             `json:"total_quantity" db:"total_quantity"`
	Revenue          decimal.Decimal `json:"total_revenue" db:"total_revenue"`
	TimesSold        int             `json:"times_sold" db:"times_sold"`
	AverageItemPrice decimal.Decimal `json:"avg_item_price"`
}

// TopProductsReport ranks products by revenue over the last PeriodDays days.
type TopProductsReport struct {
	PeriodDays int            `json:"period_days"`
	Products   []ProductSales `json:"top_products"`
}

// DiscountUsage groups discounted completed orders by reason. TotalDiscount is what was
// actually taken off, which can be less than the nominal amount of a manual discount.
type DiscountUsage struct {
	Reason              DiscountReason  `json:"discount_reason" db:"discount_reason"`
	UsageCount          int             `json:"usage_count" db:"usage_count"`
	TotalDiscount       decimal.Decimal `json:"total_discount_given" db:"total_discount_given"`
	AverageDiscount     decimal.Decimal `json:"avg_discount"`
	SalesBeforeDiscount decimal.Decimal `json:"total_sales_before_discount" db:"total_sales_before_discount"`
}

type DiscountSummary struct {
	TotalDiscounts decimal.Decimal `json:"total_discounts_given"`
	SalesAffected  decimal.Decimal `json:"total_sales_affected"`
	RatePercent    decimal.Decimal `json:"discount_rate_percent"`
}

type DiscountReport struct {
	PeriodDays int             `json:"period_days"`
	Summary    DiscountSummary `json:"summary"`
	Breakdown  []DiscountUsage `json:"discount_breakdown"`
}

// ChannelSales is the completed volume of one ordering channel.
type ChannelSales struct {
	Channel            Channel         `json:"transaction_type" db:"channel"`
	TransactionCount   int             `json:"transaction_count" db:"transaction_count"`
	Revenue            decimal.Decimal `json:"total_revenue" db:"total_revenue"`
	AverageTransaction decimal.Decimal `json:"avg_transaction"`
	DaysActive         int             `json:"days_active" db:"days_active"`
}

type ChannelTotals struct {
	TransactionCount int             `json:"total_count"`
	Revenue          decimal.Decimal `json:"total_revenue"`
}

// ChannelReport compares POS and kiosk sales over the last PeriodDays days.
type ChannelReport struct {
	PeriodDays int            `json:"period_days"`
	Totals     ChannelTotals  `json:"totals"`
	ByChannel  []ChannelSales `json:"by_type"`
}

// HourlyBucket covers one clock hour, labelled "15:00".
type HourlyBucket struct {
	Hour               string          `json:"hour"`
	TransactionCount   int             `json:"transaction_count"`
	Revenue            decimal.Decimal `json:"revenue"`
	AverageTransaction decimal.Decimal `json:"avg_transaction"`
}

// HourlyTrend lists only the hours of Date that had completed sales, earliest first.
type HourlyTrend struct {
	Date  string         `json:"date"`
	Hours []HourlyBucket `json:"hourly_trend"`
}
