package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kohisync_backend/internal/models"

	"github.com/lib/pq"
)

type productRepository struct {
	db SQLExecutor
}

const productColumns = `id, name, description, category, price, current_stock, low_stock_threshold, unit, created_at, updated_at`

func scanProduct(row scanner, p *models.Product) error {
	var category string
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &category, &p.Price, &p.CurrentStock,
		&p.LowStockThreshold, &p.Unit, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return err
	}
	p.Category = models.ProductCategory(category)
	return nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (name, description, category, price, current_stock, low_stock_threshold, unit, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = currentTime
	}
	product.UpdatedAt = product.CreatedAt

	err := r.db.QueryRowContext(ctx, query,
		product.Name, product.Description, string(product.Category), product.Price, product.CurrentStock,
		product.LowStockThreshold, product.Unit, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product name '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) getProduct(ctx context.Context, id int64, lock bool) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	product := &models.Product{}
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return r.getProduct(ctx, id, false)
}

func (r *productRepository) GetProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return r.getProduct(ctx, id, true)
}

func (r *productRepository) GetProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + ` FROM products`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if len(filter.Categories) > 0 {
		categories := make([]string, 0, len(filter.Categories))
		for _, c := range filter.Categories {
			categories = append(categories, string(c))
		}
		conditions = append(conditions, fmt.Sprintf("category = ANY($%d)", argCount))
		args = append(args, pq.Array(categories))
		argCount++
	}
	if filter.InStockOnly {
		conditions = append(conditions, "current_stock > 0")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY category, name")

	return r.queryProducts(ctx, queryBuilder.String(), args...)
}

func (r *productRepository) GetLowStockProducts(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
	          WHERE current_stock <= low_stock_threshold
	          ORDER BY (low_stock_threshold - current_stock) DESC, name`
	return r.queryProducts(ctx, query)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	products := []models.Product{}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, description = $2, price = $3, unit = $4, low_stock_threshold = $5, updated_at = $6
	          WHERE id = $7`
	product.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Unit, product.LowStockThreshold,
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product name '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) UpdateStock(ctx context.Context, productID int64, delta int) (int, error) {
	var newStock int
	query := `UPDATE products
	          SET current_stock = current_stock + $1, updated_at = $2
	          WHERE id = $3 AND current_stock + $1 >= 0
	          RETURNING current_stock`
	err := r.db.QueryRowContext(ctx, query, delta, time.Now(), productID).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "check_violation" {
			return 0, fmt.Errorf("%w: product ID %d", ErrInsufficientStock, productID)
		}
		return 0, fmt.Errorf("%w: updating stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}

	// No row matched: either the product is missing or the guard rejected the delta.
	var current int
	checkErr := r.db.QueryRowContext(ctx, `SELECT current_stock FROM products WHERE id = $1`, productID).Scan(&current)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if checkErr != nil {
		return 0, fmt.Errorf("%w: re-reading stock for product ID %d: %v", ErrDatabaseError, productID, checkErr)
	}
	return current, fmt.Errorf("%w: product ID %d has %d, change %d", ErrInsufficientStock, productID, current, delta)
}
