package services

import (
	"kohisync_backend/internal/models"

	"github.com/shopspring/decimal"
)

// MetricsRecorder receives business counters. internal/metrics provides the Prometheus version.
type MetricsRecorder interface {
	OrderCreated(channel models.Channel)
	OrderCompleted(channel models.Channel, total decimal.Decimal)
	SettlementRejected(reason string)
	StockAdjusted(kind models.AdjustmentKind)
}

// Notifier is told about orders after their transaction committed.
type Notifier interface {
	KioskOrderSubmitted(order *models.Order)
	OrderCompleted(order *models.Order)
}

type noopRecorder struct{}

func (noopRecorder) OrderCreated(models.Channel)                    {}
func (noopRecorder) OrderCompleted(models.Channel, decimal.Decimal) {}
func (noopRecorder) SettlementRejected(string)                      {}
func (noopRecorder) StockAdjusted(models.AdjustmentKind)            {}

type noopNotifier struct{}

func (noopNotifier) KioskOrderSubmitted(*models.Order) {}
func (noopNotifier) OrderCompleted(*models.Order)      {}

// Observers bundles the optional side channels shared by the services.
type Observers struct {
	Metrics  MetricsRecorder
	Notifier Notifier
}

func (o Observers) withDefaults() Observers {
	if o.Metrics == nil {
		o.Metrics = noopRecorder{}
	}
	if o.Notifier == nil {
		o.Notifier = noopNotifier{}
	}
	return o
}
