package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kohisync_backend/internal/models"

	"github.com/shopspring/decimal"
)

type orderRepository struct {
	db SQLExecutor
}

const orderColumns = `o.id, o.order_number, o.channel, o.operator_id, o.customer_name, o.notes,
	o.total_before_discount, o.discount_amount, o.discount_reason, o.total_after_discount,
	o.amount_paid, o.change_amount, o.status, o.created_at, o.completed_at`

func scanOrder(row scanner, order *models.Order, extra ...interface{}) error {
	var channel, status string
	var reason sql.NullString
	dest := []interface{}{
		&order.ID, &order.OrderNumber, &channel, &order.OperatorID, &order.CustomerName, &order.Notes,
		&order.TotalBeforeDiscount, &order.DiscountAmount, &reason, &order.TotalAfterDiscount,
		&order.AmountPaid, &order.ChangeAmount, &status, &order.CreatedAt, &order.CompletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	order.Channel = models.Channel(channel)
	order.Status = models.OrderStatus(status)
	if reason.Valid {
		r := models.DiscountReason(reason.String)
		order.DiscountReason = &r
	}
	return nil
}

// --- Order Methods ---

func (r *orderRepository) NextOrderSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("%w: allocating order number: %v", ErrDatabaseError, err)
	}
	return seq, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (order_number, channel, operator_id, customer_name, notes,
	             total_before_discount, discount_amount, discount_reason, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id, total_after_discount, amount_paid, change_amount`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	var reason sql.NullString
	if order.DiscountReason != nil {
		reason = sql.NullString{String: string(*order.DiscountReason), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		order.OrderNumber, string(order.Channel), order.OperatorID, order.CustomerName, order.Notes,
		order.TotalBeforeDiscount, order.DiscountAmount, reason, string(order.Status), order.CreatedAt,
	).Scan(&order.ID, &order.TotalAfterDiscount, &order.AmountPaid, &order.ChangeAmount)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) getOrder(ctx context.Context, orderID int64, lock bool) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, orderID), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.getOrder(ctx, orderID, false)
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Channel != nil && *filters.Channel != "" {
		conditions = append(conditions, fmt.Sprintf("o.channel = $%d", argCounter))
		args = append(args, string(*filters.Channel))
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, string(*filters.Status))
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := parsedDate
			endOfDay := startOfDay.AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}
	if filters.CompletedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("o.completed_at >= $%d", argCounter))
		args = append(args, *filters.CompletedFrom)
		argCounter++
	}
	if filters.CompletedTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.completed_at < $%d", argCounter))
		args = append(args, *filters.CompletedTo)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	// Pending queues are served oldest first; history is newest first.
	if filters.Status != nil && *filters.Status == models.StatusPending {
		queryBuilder.WriteString(" ORDER BY o.created_at ASC, o.id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")
	}

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateDiscount(ctx context.Context, orderID int64, amount decimal.Decimal, reason models.DiscountReason) error {
	query := `UPDATE orders SET discount_amount = $1, discount_reason = $2
	          WHERE id = $3 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, amount, string(reason), orderID)
	if err != nil {
		return fmt.Errorf("%w: updating discount for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return r.expectOneRow(ctx, result, orderID)
}

func (r *orderRepository) MarkCompleted(ctx context.Context, orderID int64, amountPaid decimal.Decimal, completedAt time.Time) error {
	query := `UPDATE orders SET status = 'completed', amount_paid = $1, completed_at = $2
	          WHERE id = $3 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, amountPaid, completedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: completing order %d: %v", ErrDatabaseError, orderID, err)
	}
	return r.expectOneRow(ctx, result, orderID)
}

// expectOneRow maps a zero-row conditional update to ErrNotFound or ErrConflict.
func (r *orderRepository) expectOneRow(ctx context.Context, result sql.Result, orderID int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reading rows affected for order %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: checking order %d: %v", ErrDatabaseError, orderID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// --- OrderLine Methods ---

func (r *orderRepository) CreateOrderLine(ctx context.Context, line *models.OrderLine) (int64, error) {
	query := `INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal, note)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal, line.Note,
	).Scan(&line.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order line: %v", ErrDatabaseError, err)
	}
	return line.ID, nil
}

func (r *orderRepository) GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	query := `SELECT ol.id, ol.order_id, ol.product_id, COALESCE(p.name, ''), ol.quantity,
	                 ol.unit_price, ol.subtotal, ol.note
	          FROM order_lines ol
	          LEFT JOIN products p ON ol.product_id = p.id
	          WHERE ol.order_id = $1
	          ORDER BY ol.id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lines for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity,
			&line.UnitPrice, &line.Subtotal, &line.Note,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning order line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}
