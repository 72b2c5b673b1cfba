package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
)

type productRepo struct{ v *view }

func nameTaken(st *state, name string, exceptID int64) bool {
	for id, p := range st.products {
		if id != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *productRepo) CreateProduct(_ context.Context, product *models.Product) (int64, error) {
	err := r.v.do(func(st *state) error {
		if nameTaken(st, product.Name, 0) {
			return fmt.Errorf("%w: product name '%s' already exists", repositories.ErrDuplicateKey, product.Name)
		}
		st.nextProductID++
		product.ID = st.nextProductID
		if product.CreatedAt.IsZero() {
			product.CreatedAt = time.Now()
		}
		product.UpdatedAt = product.CreatedAt
		st.products[product.ID] = *product
		return nil
	})
	if err != nil {
		return 0, err
	}
	return product.ID, nil
}

func (r *productRepo) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	var out models.Product
	err := r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProductForUpdate needs no extra locking: transactions already hold the store lock.
func (r *productRepo) GetProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return r.GetProductByID(ctx, id)
}

func sortProducts(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return products[i].Category < products[j].Category
		}
		return products[i].Name < products[j].Name
	})
}

func (r *productRepo) GetProducts(_ context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if len(filter.Categories) > 0 && !containsCategory(filter.Categories, p.Category) {
				continue
			}
			if filter.InStockOnly && p.CurrentStock <= 0 {
				continue
			}
			products = append(products, p)
		}
		return nil
	})
	sortProducts(products)
	return products, err
}

func containsCategory(categories []models.ProductCategory, c models.ProductCategory) bool {
	for _, x := range categories {
		if x == c {
			return true
		}
	}
	return false
}

func (r *productRepo) GetLowStockProducts(_ context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if p.IsLowStock() {
				products = append(products, p)
			}
		}
		return nil
	})
	sort.Slice(products, func(i, j int) bool {
		di := products[i].LowStockThreshold - products[i].CurrentStock
		dj := products[j].LowStockThreshold - products[j].CurrentStock
		if di != dj {
			return di > dj
		}
		return products[i].Name < products[j].Name
	})
	return products, err
}

func (r *productRepo) UpdateProduct(_ context.Context, product *models.Product) error {
	return r.v.do(func(st *state) error {
		existing, ok := st.products[product.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		if nameTaken(st, product.Name, product.ID) {
			return fmt.Errorf("%w: product name '%s' already exists", repositories.ErrDuplicateKey, product.Name)
		}
		existing.Name = product.Name
		existing.Description = product.Description
		existing.Price = product.Price
		existing.Unit = product.Unit
		existing.LowStockThreshold = product.LowStockThreshold
		existing.UpdatedAt = time.Now()
		st.products[product.ID] = existing
		product.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func (r *productRepo) UpdateStock(_ context.Context, productID int64, delta int) (int, error) {
	var newStock int
	err := r.v.do(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return repositories.ErrNotFound
		}
		if p.CurrentStock+delta < 0 {
			newStock = p.CurrentStock
			return fmt.Errorf("%w: product ID %d has %d, change %d", repositories.ErrInsufficientStock, productID, p.CurrentStock, delta)
		}
		p.CurrentStock += delta
		p.UpdatedAt = time.Now()
		st.products[productID] = p
		newStock = p.CurrentStock
		return nil
	})
	return newStock, err
}
