package memory

import (
	"context"
	"sort"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

type reportRepo struct{ v *view }

func (r *reportRepo) Accumulate(_ context.Context, reportDate string, revenue, discount decimal.Decimal, itemsSold int, at time.Time) error {
	return r.v.do(func(st *state) error {
		a, ok := st.daily[reportDate]
		if !ok {
			a = models.DailyAggregate{ReportDate: reportDate, Revenue: decimal.Zero, Discounts: decimal.Zero}
		}
		a.TransactionCount++
		a.Revenue = a.Revenue.Add(revenue)
		a.Discounts = a.Discounts.Add(discount)
		a.ItemsSold += itemsSold
		a.UpdatedAt = at
		st.daily[reportDate] = a
		return nil
	})
}

func (r *reportRepo) GetDaily(_ context.Context, reportDate string) (*models.DailyAggregate, error) {
	var out models.DailyAggregate
	err := r.v.do(func(st *state) error {
		a, ok := st.daily[reportDate]
		if !ok {
			return repositories.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRange is inclusive on both ends. Dates compare lexically as YYYY-MM-DD.
func (r *reportRepo) GetRange(_ context.Context, fromDate, toDate string) ([]models.DailyAggregate, error) {
	out := []models.DailyAggregate{}
	err := r.v.do(func(st *state) error {
		for d, a := range st.daily {
			if d >= fromDate && d <= toDate {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate < out[j].ReportDate })
	return out, err
}

func completedIn(o models.Order, from, to time.Time) bool {
	return o.Status == models.StatusCompleted && o.CompletedAt != nil &&
		!o.CompletedAt.Before(from) && o.CompletedAt.Before(to)
}

func (r *reportRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]models.ProductSales, error) {
	byProduct := map[int64]*models.ProductSales{}
	orderSeen := map[int64]map[int64]bool{}
	err := r.v.do(func(st *state) error {
		for id, o := range st.orders {
			if !completedIn(o, from, to) {
				continue
			}
			for _, line := range st.orderLines[id] {
				ps, ok := byProduct[line.ProductID]
				if !ok {
					p := st.products[line.ProductID]
					ps = &models.ProductSales{ProductID: p.ID, Name: p.Name, Category: p.Category, Revenue: decimal.Zero}
					byProduct[line.ProductID] = ps
					orderSeen[line.ProductID] = map[int64]bool{}
				}
				ps.QuantitySold += line.Quantity
				ps.Revenue = ps.Revenue.Add(line.Subtotal)
				if !orderSeen[line.ProductID][id] {
					orderSeen[line.ProductID][id] = true
					ps.TimesSold++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reportRepo) DiscountUsage(_ context.Context, from, to time.Time) ([]models.DiscountUsage, error) {
	byReason := map[models.DiscountReason]*models.DiscountUsage{}
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if !completedIn(o, from, to) || o.DiscountReason == nil || !o.DiscountAmount.IsPositive() {
				continue
			}
			u, ok := byReason[*o.DiscountReason]
			if !ok {
				u = &models.DiscountUsage{Reason: *o.DiscountReason, TotalDiscount: decimal.Zero, SalesBeforeDiscount: decimal.Zero}
				byReason[*o.DiscountReason] = u
			}
			u.UsageCount++
			u.TotalDiscount = u.TotalDiscount.Add(o.TotalBeforeDiscount.Sub(o.TotalAfterDiscount))
			u.SalesBeforeDiscount = u.SalesBeforeDiscount.Add(o.TotalBeforeDiscount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.DiscountUsage, 0, len(byReason))
	for _, u := range byReason {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Reason < out[j].Reason
	})
	return out, nil
}

func (r *reportRepo) ChannelSales(_ context.Context, from, to time.Time, loc *time.Location) ([]models.ChannelSales, error) {
	byChannel := map[models.Channel]*models.ChannelSales{}
	days := map[models.Channel]map[string]bool{}
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if !completedIn(o, from, to) {
				continue
			}
			c, ok := byChannel[o.Channel]
			if !ok {
				c = &models.ChannelSales{Channel: o.Channel, Revenue: decimal.Zero}
				byChannel[o.Channel] = c
				days[o.Channel] = map[string]bool{}
			}
			c.TransactionCount++
			c.Revenue = c.Revenue.Add(o.TotalAfterDiscount)
			days[o.Channel][o.CompletedAt.In(loc).Format("2006-01-02")] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ChannelSales, 0, len(byChannel))
	for ch, c := range byChannel {
		c.DaysActive = len(days[ch])
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out, nil
}
