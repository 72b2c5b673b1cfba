package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
	"kohisync_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	defaultProductUnit       = "pieces"
	defaultLowStockThreshold = 10
	defaultHistoryDays       = 30
)

// --- Product DTOs ---
type CreateProductRequest struct {
	Name              string                 `json:"name" binding:"required"`
	Description       *string                `json:"description"`
	Category          models.ProductCategory `json:"category" binding:"required"`
	Price             decimal.Decimal        `json:"price" binding:"required"`
	CurrentStock      *int                   `json:"current_stock"`
	LowStockThreshold *int                   `json:"low_stock_threshold"`
	Unit              *string                `json:"unit"`
}

// UpdateProductRequest never touches stock; stock only moves through adjustments and sales.
type UpdateProductRequest struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	Unit              *string          `json:"unit"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
}

// AdjustStockRequest: add and deduct move by Quantity, correction sets the level to Quantity.
type AdjustStockRequest struct {
	ProductID int64                 `json:"product_id" binding:"required"`
	Kind      models.AdjustmentKind `json:"adjustment_type" binding:"required"`
	Quantity  int                   `json:"quantity"`
	Reason    *string               `json:"reason"`
}

// AdjustStockResult is the new level plus the audit row written for it.
type AdjustStockResult struct {
	Product    *models.Product             `json:"product"`
	Adjustment *models.InventoryAdjustment `json:"adjustment"`
}

// InventoryListing is every product plus the low-stock summary.
type InventoryListing struct {
	Products []ProductWithStatus     `json:"inventory"`
	Summary  models.InventorySummary `json:"summary"`
}

// ProductWithStatus decorates a product with its low/ok flag.
type ProductWithStatus struct {
	models.Product
	StockStatus string `json:"stock_status"`
}

// --- InventoryService Interface ---
type InventoryService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID int64, req UpdateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	ListInventory(ctx context.Context) (*InventoryListing, error)
	LowStock(ctx context.Context) ([]models.Product, error)
	AdjustStock(ctx context.Context, operatorID *int64, req AdjustStockRequest) (*AdjustStockResult, error)
	// AdjustmentHistory returns adjustments of the last days days, newest first. days <= 0 means 30.
	AdjustmentHistory(ctx context.Context, productID *int64, days int) ([]models.InventoryAdjustment, error)
}

type inventoryService struct {
	store     repositories.Store
	observers Observers
	now       func() time.Time
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(store repositories.Store, observers Observers) InventoryService {
	return &inventoryService{store: store, observers: observers.withDefaults(), now: time.Now}
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	if !price.Equal(price.Round(2)) {
		return fmt.Errorf("%w: price has more than two decimals", ErrValidation)
	}
	return nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: invalid category '%s'", ErrValidation, req.Category)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:              strings.TrimSpace(req.Name),
		Description:       trimmedOrNil(req.Description),
		Category:          req.Category,
		Price:             req.Price,
		LowStockThreshold: defaultLowStockThreshold,
		Unit:              defaultProductUnit,
		CreatedAt:         s.now(),
	}
	if req.CurrentStock != nil {
		if *req.CurrentStock < 0 {
			return nil, fmt.Errorf("%w: current stock must not be negative", ErrValidation)
		}
		product.CurrentStock = *req.CurrentStock
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, fmt.Errorf("%w: low stock threshold must not be negative", ErrValidation)
		}
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.Unit != nil && !utils.IsEmpty(*req.Unit) {
		product.Unit = strings.TrimSpace(*req.Unit)
	}

	if _, err := s.store.Products().CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrProductNameExists, product.Name)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	utils.LogInfo("product created", map[string]interface{}{"product_id": product.ID, "name": product.Name})
	return product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, productID int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if utils.IsEmpty(*req.Name) {
			return nil, fmt.Errorf("%w: product name cannot be empty", ErrValidation)
		}
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = trimmedOrNil(req.Description)
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		product.Price = *req.Price
	}
	if req.Unit != nil {
		if utils.IsEmpty(*req.Unit) {
			return nil, fmt.Errorf("%w: unit cannot be empty", ErrValidation)
		}
		product.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, fmt.Errorf("%w: low stock threshold must not be negative", ErrValidation)
		}
		product.LowStockThreshold = *req.LowStockThreshold
	}

	if err := s.store.Products().UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, productID)
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrProductNameExists, product.Name)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *inventoryService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.store.Products().GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *inventoryService) ListInventory(ctx context.Context) (*InventoryListing, error) {
	products, err := s.store.Products().GetProducts(ctx, repositories.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	listing := &InventoryListing{
		Products: make([]ProductWithStatus, 0, len(products)),
		Summary:  models.InventorySummary{TotalItems: len(products), LowStockItems: []models.Product{}},
	}
	for _, p := range products {
		listing.Products = append(listing.Products, ProductWithStatus{Product: p, StockStatus: p.StockStatus()})
		if p.IsLowStock() {
			listing.Summary.LowStockItems = append(listing.Summary.LowStockItems, p)
		}
	}
	listing.Summary.LowStockCount = len(listing.Summary.LowStockItems)
	return listing, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.Products().GetLowStockProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, operatorID *int64, req AdjustStockRequest) (*AdjustStockResult, error) {
	if !models.ManualAdjustmentKind(req.Kind) {
		return nil, fmt.Errorf("%w: adjustment type must be add, deduct or correction", ErrValidation)
	}
	if req.Kind == models.AdjustmentCorrection {
		if req.Quantity < 0 {
			return nil, fmt.Errorf("%w: corrected stock level must not be negative", ErrValidation)
		}
	} else if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	result := &AdjustStockResult{}
	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		product, err := tx.Products().GetProductForUpdate(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrProductNotFound, req.ProductID)
			}
			return fmt.Errorf("failed to fetch product for adjustment: %w", err)
		}

		var delta int
		switch req.Kind {
		case models.AdjustmentAdd:
			delta = req.Quantity
		case models.AdjustmentDeduct:
			delta = -req.Quantity
		case models.AdjustmentCorrection:
			delta = req.Quantity - product.CurrentStock
		}

		newStock, err := tx.Products().UpdateStock(ctx, product.ID, delta)
		if err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return fmt.Errorf("%w: %s has %d, change %d", ErrInvalidAdjustment, product.Name, product.CurrentStock, delta)
			}
			return fmt.Errorf("failed to update stock for product %d: %w", product.ID, err)
		}

		adjustment := &models.InventoryAdjustment{
			ProductID:       product.ID,
			Kind:            req.Kind,
			QuantityChanged: delta,
			PreviousStock:   newStock - delta,
			NewStock:        newStock,
			Reason:          trimmedOrNil(req.Reason),
			OperatorID:      operatorID,
			CreatedAt:       s.now(),
			ProductName:     product.Name,
		}
		if _, err := tx.Adjustments().CreateAdjustment(ctx, adjustment); err != nil {
			return fmt.Errorf("failed to record inventory adjustment: %w", err)
		}

		product.CurrentStock = newStock
		result.Product = product
		result.Adjustment = adjustment
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidAdjustment) {
			utils.LogDebug("stock adjustment rejected", map[string]interface{}{"product_id": req.ProductID, "reason": err.Error()})
		}
		return nil, err
	}

	s.observers.Metrics.StockAdjusted(req.Kind)
	utils.LogInfo("stock adjusted", map[string]interface{}{
		"product_id": req.ProductID, "kind": req.Kind, "delta": result.Adjustment.QuantityChanged,
		"new_stock": result.Adjustment.NewStock,
	})
	return result, nil
}

func (s *inventoryService) AdjustmentHistory(ctx context.Context, productID *int64, days int) ([]models.InventoryAdjustment, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	filters := models.AdjustmentFilters{
		ProductID: productID,
		Since:     s.now().AddDate(0, 0, -days),
	}
	adjustments, err := s.store.Adjustments().GetAdjustments(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get adjustment history: %w", err)
	}
	return adjustments, nil
}

// deductForSale takes the order's quantities out of stock inside tx and audits each product.
// Products are visited in ascending id order so concurrent settlements lock rows consistently.
// Any shortfall aborts the whole order.
func deductForSale(ctx context.Context, tx repositories.Store, order *models.Order, at time.Time) error {
	quantities := map[int64]int{}
	ids := make([]int64, 0, len(order.Lines))
	for _, line := range order.Lines {
		if _, seen := quantities[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		if line.Quantity <= 0 || line.Quantity > models.MaxLineQuantity-quantities[line.ProductID] {
			return fmt.Errorf("%w: quantity for product ID %d must be between 1 and %d", ErrValidation, line.ProductID, models.MaxLineQuantity)
		}
		quantities[line.ProductID] += line.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reason := "sale " + order.OrderNumber
	for _, productID := range ids {
		qty := quantities[productID]
		newStock, err := tx.Products().UpdateStock(ctx, productID, -qty)
		if err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return fmt.Errorf("%w: product ID %d needs %d, available %d", ErrOutOfStock, productID, qty, newStock)
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrProductNotFound, productID)
			}
			return fmt.Errorf("failed to deduct stock for product %d: %w", productID, err)
		}

		orderID := order.ID
		adjustment := &models.InventoryAdjustment{
			ProductID:       productID,
			Kind:            models.AdjustmentSale,
			QuantityChanged: -qty,
			PreviousStock:   newStock + qty,
			NewStock:        newStock,
			Reason:          &reason,
			OperatorID:      order.OperatorID,
			OrderID:         &orderID,
			CreatedAt:       at,
		}
		if _, err := tx.Adjustments().CreateAdjustment(ctx, adjustment); err != nil {
			return fmt.Errorf("failed to record sale movement for product %d: %w", productID, err)
		}
	}
	return nil
}
