package memory

import (
	"context"
	"sort"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

type orderRepo struct{ v *view }

func (r *orderRepo) NextOrderSequence(_ context.Context) (int64, error) {
	var seq int64
	err := r.v.do(func(st *state) error {
		st.orderSeq++
		seq = st.orderSeq
		return nil
	})
	return seq, err
}

func (r *orderRepo) CreateOrder(_ context.Context, order *models.Order) (int64, error) {
	err := r.v.do(func(st *state) error {
		st.nextOrderID++
		order.ID = st.nextOrderID
		if order.CreatedAt.IsZero() {
			order.CreatedAt = time.Now()
		}
		order.RecomputeTotal()
		order.AmountPaid = decimal.Zero
		order.ChangeAmount = decimal.Zero
		stored := *order
		stored.Lines = nil
		st.orders[order.ID] = stored
		return nil
	})
	return order.ID, err
}

func (r *orderRepo) CreateOrderLine(_ context.Context, line *models.OrderLine) (int64, error) {
	err := r.v.do(func(st *state) error {
		if _, ok := st.orders[line.OrderID]; !ok {
			return repositories.ErrNotFound
		}
		st.nextLineID++
		line.ID = st.nextLineID
		st.orderLines[line.OrderID] = append(st.orderLines[line.OrderID], *line)
		return nil
	})
	return line.ID, err
}

func (r *orderRepo) GetOrderByID(_ context.Context, orderID int64) (*models.Order, error) {
	var out models.Order
	err := r.v.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) GetOrderForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.GetOrderByID(ctx, orderID)
}

func (r *orderRepo) GetOrderLines(_ context.Context, orderID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	err := r.v.do(func(st *state) error {
		for _, l := range st.orderLines[orderID] {
			if p, ok := st.products[l.ProductID]; ok {
				l.ProductName = p.Name
			}
			lines = append(lines, l)
		}
		return nil
	})
	return lines, err
}

func (r *orderRepo) GetOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if filters.Channel != nil && *filters.Channel != "" && o.Channel != *filters.Channel {
				continue
			}
			if filters.Status != nil && *filters.Status != "" && o.Status != *filters.Status {
				continue
			}
			if filters.Date != nil && *filters.Date != "" && o.CreatedAt.UTC().Format("2006-01-02") != *filters.Date {
				continue
			}
			if filters.CompletedFrom != nil && (o.CompletedAt == nil || o.CompletedAt.Before(*filters.CompletedFrom)) {
				continue
			}
			if filters.CompletedTo != nil && (o.CompletedAt == nil || !o.CompletedAt.Before(*filters.CompletedTo)) {
				continue
			}
			orders = append(orders, o)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	oldestFirst := filters.Status != nil && *filters.Status == models.StatusPending
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if oldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if oldestFirst {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	total := len(orders)
	if filters.PageSize > 0 {
		offset := 0
		if filters.Page > 0 {
			offset = (filters.Page - 1) * filters.PageSize
		}
		if offset >= len(orders) {
			return []models.Order{}, total, nil
		}
		end := offset + filters.PageSize
		if end > len(orders) {
			end = len(orders)
		}
		orders = orders[offset:end]
	}
	return orders, total, nil
}

func (r *orderRepo) UpdateDiscount(_ context.Context, orderID int64, amount decimal.Decimal, reason models.DiscountReason) error {
	return r.v.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repositories.ErrNotFound
		}
		if o.Status != models.StatusPending {
			return repositories.ErrConflict
		}
		o.DiscountAmount = amount
		o.DiscountReason = &reason
		o.RecomputeTotal()
		st.orders[orderID] = o
		return nil
	})
}

func (r *orderRepo) MarkCompleted(_ context.Context, orderID int64, amountPaid decimal.Decimal, completedAt time.Time) error {
	return r.v.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repositories.ErrNotFound
		}
		if o.Status != models.StatusPending {
			return repositories.ErrConflict
		}
		o.Status = models.StatusCompleted
		o.AmountPaid = amountPaid
		o.ChangeAmount = amountPaid.Sub(o.TotalAfterDiscount)
		o.CompletedAt = &completedAt
		st.orders[orderID] = o
		return nil
	})
}
