// Package metrics exposes business counters for Prometheus scraping.
package metrics

import (
	"database/sql"
	"net/http"

	"kohisync_backend/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	ordersCreated   *prometheus.CounterVec
	ordersCompleted *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	adjustments     *prometheus.CounterVec
	revenue         prometheus.Counter
}

// NewCollector registers the POS counters plus the Go runtime collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_orders_created_total",
				Help: "Orders created, by channel",
			},
			[]string{"channel"},
		),
		ordersCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_orders_completed_total",
				Help: "Orders paid and completed, by channel",
			},
			[]string{"channel"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_settlement_rejections_total",
				Help: "Payments refused, by reason",
			},
			[]string{"reason"},
		),
		adjustments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_stock_adjustments_total",
				Help: "Manual stock adjustments, by kind",
			},
			[]string{"kind"},
		),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_revenue_total",
			Help: "Sum of completed order totals after discount",
		}),
	}

	registry.MustRegister(
		c.ordersCreated,
		c.ordersCompleted,
		c.rejections,
		c.adjustments,
		c.revenue,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) OrderCreated(channel models.Channel) {
	c.ordersCreated.WithLabelValues(string(channel)).Inc()
}

func (c *Collector) OrderCompleted(channel models.Channel, total decimal.Decimal) {
	c.ordersCompleted.WithLabelValues(string(channel)).Inc()
	c.revenue.Add(total.InexactFloat64())
}

func (c *Collector) SettlementRejected(reason string) {
	c.rejections.WithLabelValues(reason).Inc()
}

func (c *Collector) StockAdjusted(kind models.AdjustmentKind) {
	c.adjustments.WithLabelValues(string(kind)).Inc()
}

// WatchDB adds connection pool gauges for db under the given db_name label.
func (c *Collector) WatchDB(db *sql.DB, name string) {
	c.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
