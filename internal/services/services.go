package services

import (
	"time"

	"kohisync_backend/internal/repositories"
	"kohisync_backend/pkg/utils"
)

// Services bundles every service built over one store.
type Services struct {
	Auth       AuthService
	Orders     OrderService
	Settlement SettlementService
	Inventory  InventoryService
	Kiosk      KioskService
	Reports    ReportService
}

// New wires all services against store. loc dates the daily sales aggregates.
func New(store repositories.Store, tokens *utils.TokenManager, observers Observers, kioskTTL time.Duration, loc *time.Location) *Services {
	return &Services{
		Auth:       NewAuthService(store, tokens),
		Orders:     NewOrderService(store, observers),
		Settlement: NewSettlementService(store, observers, loc),
		Inventory:  NewInventoryService(store, observers),
		Kiosk:      NewKioskService(store, observers, kioskTTL),
		Reports:    NewReportService(store, loc),
	}
}
