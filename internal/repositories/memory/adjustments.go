package memory

import (
	"context"
	"time"

	"kohisync_backend/internal/models"
)

type adjustmentRepo struct{ v *view }

func (r *adjustmentRepo) CreateAdjustment(_ context.Context, adjustment *models.InventoryAdjustment) (int64, error) {
	err := r.v.do(func(st *state) error {
		st.nextAdjustmentID++
		adjustment.ID = st.nextAdjustmentID
		if adjustment.CreatedAt.IsZero() {
			adjustment.CreatedAt = time.Now()
		}
		st.adjustments = append(st.adjustments, *adjustment)
		return nil
	})
	return adjustment.ID, err
}

// GetAdjustments returns newest first.
func (r *adjustmentRepo) GetAdjustments(_ context.Context, filters models.AdjustmentFilters) ([]models.InventoryAdjustment, error) {
	out := []models.InventoryAdjustment{}
	err := r.v.do(func(st *state) error {
		for i := len(st.adjustments) - 1; i >= 0; i-- {
			a := st.adjustments[i]
			if filters.ProductID != nil && a.ProductID != *filters.ProductID {
				continue
			}
			if !filters.Since.IsZero() && a.CreatedAt.Before(filters.Since) {
				continue
			}
			if p, ok := st.products[a.ProductID]; ok {
				a.ProductName = p.Name
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}
