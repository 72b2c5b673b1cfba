package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// ReportService reads the running daily aggregates written at settlement.
type ReportService interface {
	// DailyReport defaults to today when date is empty. A day without sales yields zeros.
	DailyReport(ctx context.Context, date string) (*models.DailyReport, error)
	MonthlyReport(ctx context.Context, year, month int) (*models.MonthlyReport, error)

	// The windowed reports cover today plus the days-1 calendar days before it.

	// TopProducts defaults to 7 days and 20 products.
	TopProducts(ctx context.Context, days, limit int) (*models.TopProductsReport, error)
	// DiscountReport defaults to 30 days.
	DiscountReport(ctx context.Context, days int) (*models.DiscountReport, error)
	// ChannelReport splits sales between POS and kiosk. It defaults to 7 days.
	ChannelReport(ctx context.Context, days int) (*models.ChannelReport, error)
	// HourlyTrend buckets one day's completed orders by hour. date defaults to today.
	HourlyTrend(ctx context.Context, date string) (*models.HourlyTrend, error)
}

const (
	defaultTopProductsDays  = 7
	defaultTopProductsLimit = 20
	maxTopProductsLimit     = 100
	defaultDiscountDays     = 30
	defaultChannelDays      = 7
	maxReportDays           = 366
)

type reportService struct {
	store    repositories.Store
	location *time.Location
	now      func() time.Time
}

// NewReportService creates a ReportService whose "today" is taken in loc (UTC when nil).
func NewReportService(store repositories.Store, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{store: store, location: loc, now: time.Now}
}

func averageOf(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func (s *reportService) DailyReport(ctx context.Context, date string) (*models.DailyReport, error) {
	if date == "" {
		date = s.now().In(s.location).Format("2006-01-02")
	}
	dayStart, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	aggregate, err := s.store.Reports().GetDaily(ctx, date)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to get daily report: %w", err)
		}
		aggregate = &models.DailyAggregate{ReportDate: date, Revenue: decimal.Zero, Discounts: decimal.Zero}
	}

	status := models.StatusCompleted
	// Orders are dated by completion in the report location, the same way the aggregate is.
	orders, _, err := s.store.Orders().GetOrders(ctx, models.OrderFilters{
		Status:        &status,
		CompletedFrom: &dayStart,
		CompletedTo:   &dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for daily report: %w", err)
	}

	return &models.DailyReport{
		DailyAggregate:     *aggregate,
		AverageTransaction: averageOf(aggregate.Revenue, aggregate.TransactionCount),
		Orders:             orders,
	}, nil
}

func (s *reportService) MonthlyReport(ctx context.Context, year, month int) (*models.MonthlyReport, error) {
	if year < 2000 || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: year and month (1-12) are required", ErrValidation)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	days, err := s.store.Reports().GetRange(ctx, first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly report: %w", err)
	}

	report := &models.MonthlyReport{
		Year:      year,
		Month:     month,
		Revenue:   decimal.Zero,
		Discounts: decimal.Zero,
		Days:      days,
	}
	for _, d := range days {
		report.TransactionCount += d.TransactionCount
		report.Revenue = report.Revenue.Add(d.Revenue)
		report.Discounts = report.Discounts.Add(d.Discounts)
		report.ItemsSold += d.ItemsSold
	}
	report.AverageDaily = averageOf(report.Revenue, len(days))
	report.AverageTicket = averageOf(report.Revenue, report.TransactionCount)
	return report, nil
}

// window resolves a lookback of days calendar days ending today in the report location.
func (s *reportService) window(days, fallback int) (int, time.Time, time.Time, error) {
	if days == 0 {
		days = fallback
	}
	if days < 1 || days > maxReportDays {
		return 0, time.Time{}, time.Time{}, fmt.Errorf("%w: days must be between 1 and %d", ErrValidation, maxReportDays)
	}
	now := s.now().In(s.location)
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location).AddDate(0, 0, 1)
	return days, tomorrow.AddDate(0, 0, -days), tomorrow, nil
}

func (s *reportService) TopProducts(ctx context.Context, days, limit int) (*models.TopProductsReport, error) {
	days, from, to, err := s.window(days, defaultTopProductsDays)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultTopProductsLimit
	}
	if limit < 1 || limit > maxTopProductsLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, maxTopProductsLimit)
	}

	products, err := s.store.Reports().TopProducts(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	for i := range products {
		products[i].AverageItemPrice = averageOf(products[i].Revenue, products[i].QuantitySold)
	}
	return &models.TopProductsReport{PeriodDays: days, Products: products}, nil
}

func (s *reportService) DiscountReport(ctx context.Context, days int) (*models.DiscountReport, error) {
	days, from, to, err := s.window(days, defaultDiscountDays)
	if err != nil {
		return nil, err
	}

	usage, err := s.store.Reports().DiscountUsage(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get discount usage: %w", err)
	}
	summary := models.DiscountSummary{TotalDiscounts: decimal.Zero, SalesAffected: decimal.Zero, RatePercent: decimal.Zero}
	for i := range usage {
		usage[i].AverageDiscount = averageOf(usage[i].TotalDiscount, usage[i].UsageCount)
		summary.TotalDiscounts = summary.TotalDiscounts.Add(usage[i].TotalDiscount)
		summary.SalesAffected = summary.SalesAffected.Add(usage[i].SalesBeforeDiscount)
	}
	if summary.SalesAffected.IsPositive() {
		summary.RatePercent = summary.TotalDiscounts.Div(summary.SalesAffected).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &models.DiscountReport{PeriodDays: days, Summary: summary, Breakdown: usage}, nil
}

func (s *reportService) ChannelReport(ctx context.Context, days int) (*models.ChannelReport, error) {
	days, from, to, err := s.window(days, defaultChannelDays)
	if err != nil {
		return nil, err
	}

	channels, err := s.store.Reports().ChannelSales(ctx, from, to, s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel sales: %w", err)
	}
	totals := models.ChannelTotals{Revenue: decimal.Zero}
	for i := range channels {
		channels[i].AverageTransaction = averageOf(channels[i].Revenue, channels[i].TransactionCount)
		totals.TransactionCount += channels[i].TransactionCount
		totals.Revenue = totals.Revenue.Add(channels[i].Revenue)
	}
	return &models.ChannelReport{PeriodDays: days, Totals: totals, ByChannel: channels}, nil
}

func (s *reportService) HourlyTrend(ctx context.Context, date string) (*models.HourlyTrend, error) {
	if date == "" {
		date = s.now().In(s.location).Format("2006-01-02")
	}
	dayStart, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	status := models.StatusCompleted
	orders, _, err := s.store.Orders().GetOrders(ctx, models.OrderFilters{
		Status:        &status,
		CompletedFrom: &dayStart,
		CompletedTo:   &dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for hourly trend: %w", err)
	}

	var buckets [24]*models.HourlyBucket
	for _, o := range orders {
		h := o.CompletedAt.In(s.location).Hour()
		if buckets[h] == nil {
			buckets[h] = &models.HourlyBucket{Hour: fmt.Sprintf("%02d:00", h), Revenue: decimal.Zero}
		}
		buckets[h].TransactionCount++
		buckets[h].Revenue = buckets[h].Revenue.Add(o.TotalAfterDiscount)
	}

	trend := &models.HourlyTrend{Date: date, Hours: []models.HourlyBucket{}}
	for _, b := range buckets {
		if b == nil {
			continue
		}
		b.AverageTransaction = averageOf(b.Revenue, b.TransactionCount)
		trend.Hours = append(trend.Hours, *b)
	}
	return trend, nil
}
