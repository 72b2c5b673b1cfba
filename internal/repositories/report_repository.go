package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kohisync_backend/internal/models"

	"github.com/shopspring/decimal"
)

type dailyReportRepository struct {
	db SQLExecutor
}

func (r *dailyReportRepository) Accumulate(ctx context.Context, reportDate string, revenue, discount decimal.Decimal, itemsSold int, at time.Time) error {
	query := `INSERT INTO daily_sales_reports
	            (report_date, total_transactions, total_revenue, total_discounts, total_items_sold, updated_at)
	          VALUES ($1, 1, $2, $3, $4, $5)
	          ON CONFLICT (report_date) DO UPDATE SET
	            total_transactions = daily_sales_reports.total_transactions + 1,
	            total_revenue = daily_sales_reports.total_revenue + EXCLUDED.total_revenue,
	            total_discounts = daily_sales_reports.total_discounts + EXCLUDED.total_discounts,
	            total_items_sold = daily_sales_reports.total_items_sold + EXCLUDED.total_items_sold,
	            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, reportDate, revenue, discount, itemsSold, at); err != nil {
		return fmt.Errorf("%w: accumulating daily report for %s: %v", ErrDatabaseError, reportDate, err)
	}
	return nil
}

const aggregateColumns = `to_char(report_date, 'YYYY-MM-DD'), total_transactions, total_revenue,
	total_discounts, total_items_sold, updated_at`

func scanAggregate(row scanner, a *models.DailyAggregate) error {
	return row.Scan(&a.ReportDate, &a.TransactionCount, &a.Revenue, &a.Discounts, &a.ItemsSold, &a.UpdatedAt)
}

func (r *dailyReportRepository) GetDaily(ctx context.Context, reportDate string) (*models.DailyAggregate, error) {
	aggregate := &models.DailyAggregate{}
	query := `SELECT ` + aggregateColumns + ` FROM daily_sales_reports WHERE report_date = $1`
	if err := scanAggregate(r.db.QueryRowContext(ctx, query, reportDate), aggregate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting daily report for %s: %v", ErrDatabaseError, reportDate, err)
	}
	return aggregate, nil
}

func (r *dailyReportRepository) GetRange(ctx context.Context, fromDate, toDate string) ([]models.DailyAggregate, error) {
	aggregates := []models.DailyAggregate{}
	query := `SELECT ` + aggregateColumns + ` FROM daily_sales_reports
	          WHERE report_date BETWEEN $1 AND $2
	          ORDER BY report_date`
	rows, err := r.db.QueryContext(ctx, query, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily reports %s..%s: %v", ErrDatabaseError, fromDate, toDate, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.DailyAggregate
		if err := scanAggregate(rows, &a); err != nil {
			return nil, fmt.Errorf("%w: scanning daily report: %v", ErrDatabaseError, err)
		}
		aggregates = append(aggregates, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily reports: %v", ErrDatabaseError, err)
	}
	return aggregates, nil
}

func (r *dailyReportRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.ProductSales, error) {
	products := []models.ProductSales{}
	query := `SELECT p.id, p.name, p.category,
	                 SUM(ol.quantity), SUM(ol.subtotal), COUNT(DISTINCT ol.order_id)
	          FROM order_lines ol
	          JOIN orders o ON o.id = ol.order_id
	          JOIN products p ON p.id = ol.product_id
	          WHERE o.status = 'completed' AND o.completed_at >= $1 AND o.completed_at < $2
	          GROUP BY p.id, p.name, p.category
	          ORDER BY SUM(ol.subtotal) DESC, p.id
	          LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying top products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category, &p.QuantitySold, &p.Revenue, &p.TimesSold); err != nil {
			return nil, fmt.Errorf("%w: scanning top product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating top products: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *dailyReportRepository) DiscountUsage(ctx context.Context, from, to time.Time) ([]models.DiscountUsage, error) {
	usage := []models.DiscountUsage{}
	query := `SELECT discount_reason, COUNT(*),
	                 SUM(total_before_discount - total_after_discount), SUM(total_before_discount)
	          FROM orders
	          WHERE status = 'completed' AND discount_reason IS NOT NULL AND discount_amount > 0
	            AND completed_at >= $1 AND completed_at < $2
	          GROUP BY discount_reason
	          ORDER BY COUNT(*) DESC, discount_reason`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying discount usage: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.DiscountUsage
		if err := rows.Scan(&u.Reason, &u.UsageCount, &u.TotalDiscount, &u.SalesBeforeDiscount); err != nil {
			return nil, fmt.Errorf("%w: scanning discount usage: %v", ErrDatabaseError, err)
		}
		usage = append(usage, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating discount usage: %v", ErrDatabaseError, err)
	}
	return usage, nil
}

func (r *dailyReportRepository) ChannelSales(ctx context.Context, from, to time.Time, loc *time.Location) ([]models.ChannelSales, error) {
	channels := []models.ChannelSales{}
	query := `SELECT channel, COUNT(*), SUM(total_after_discount),
	                 COUNT(DISTINCT (completed_at AT TIME ZONE $3)::date)
	          FROM orders
	          WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2
	          GROUP BY channel
	          ORDER BY channel`
	rows, err := r.db.QueryContext(ctx, query, from, to, loc.String())
	if err != nil {
		return nil, fmt.Errorf("%w: querying channel sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.ChannelSales
		if err := rows.Scan(&c.Channel, &c.TransactionCount, &c.Revenue, &c.DaysActive); err != nil {
			return nil, fmt.Errorf("%w: scanning channel sales: %v", ErrDatabaseError, err)
		}
		channels = append(channels, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating channel sales: %v", ErrDatabaseError, err)
	}
	return channels, nil
}
