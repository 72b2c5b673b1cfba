package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kohisync_backend/internal/models"
)

type inventoryAdjustmentRepository struct {
	db SQLExecutor
}

func (r *inventoryAdjustmentRepository) CreateAdjustment(ctx context.Context, adjustment *models.InventoryAdjustment) (int64, error) {
	query := `INSERT INTO inventory_adjustments
	            (product_id, adjustment_kind, quantity_changed, previous_stock, new_stock,
	             reason, operator_id, order_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query,
		adjustment.ProductID, string(adjustment.Kind), adjustment.QuantityChanged, adjustment.PreviousStock,
		adjustment.NewStock, adjustment.Reason, adjustment.OperatorID, adjustment.OrderID, adjustment.CreatedAt,
	).Scan(&adjustment.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating inventory adjustment: %v", ErrDatabaseError, err)
	}
	return adjustment.ID, nil
}

func (r *inventoryAdjustmentRepository) GetAdjustments(ctx context.Context, filters models.AdjustmentFilters) ([]models.InventoryAdjustment, error) {
	adjustments := []models.InventoryAdjustment{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT a.id, a.product_id, a.adjustment_kind, a.quantity_changed, a.previous_stock, a.new_stock,
               a.reason, a.operator_id, a.order_id, a.created_at, COALESCE(p.name, '')
        FROM inventory_adjustments a
        LEFT JOIN products p ON a.product_id = p.id
    `)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("a.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if !filters.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("a.created_at >= $%d", argCount))
		args = append(args, filters.Since)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY a.created_at DESC, a.id DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying inventory adjustments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.InventoryAdjustment
		var kind string
		if err := rows.Scan(
			&a.ID, &a.ProductID, &kind, &a.QuantityChanged, &a.PreviousStock, &a.NewStock,
			&a.Reason, &a.OperatorID, &a.OrderID, &a.CreatedAt, &a.ProductName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning inventory adjustment: %v", ErrDatabaseError, err)
		}
		a.Kind = models.AdjustmentKind(kind)
		adjustments = append(adjustments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory adjustments: %v", ErrDatabaseError, err)
	}
	return adjustments, nil
}
