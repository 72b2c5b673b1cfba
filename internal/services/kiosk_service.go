package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
	"kohisync_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultKioskSessionTTL is the absolute lifetime of a kiosk session.
const DefaultKioskSessionTTL = 30 * time.Minute

// AddCartItemRequest adds quantity of a product to a kiosk cart.
type AddCartItemRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"max=10000"`
	Note      *string `json:"note"`
}

// SubmitKioskOrderRequest turns the cart into a pending kiosk order.
type SubmitKioskOrderRequest struct {
	CustomerName *string `json:"customer_name"`
}

// KioskService is the anonymous self-service cart.
type KioskService interface {
	CreateSession(ctx context.Context) (*models.KioskSession, error)
	Menu(ctx context.Context) (*models.KioskMenu, error)
	AddItem(ctx context.Context, sessionID string, req AddCartItemRequest) (*models.CartView, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*models.CartView, error)
	// ReadCart also works on submitted or expired sessions.
	ReadCart(ctx context.Context, sessionID string) (*models.CartView, error)
	// Submit creates a pending kiosk order without touching stock and closes the session.
	Submit(ctx context.Context, sessionID string, req SubmitKioskOrderRequest) (*models.Order, error)
}

type kioskService struct {
	store     repositories.Store
	observers Observers
	ttl       time.Duration
	now       func() time.Time
}

// NewKioskService creates a KioskService. A non-positive ttl falls back to DefaultKioskSessionTTL.
func NewKioskService(store repositories.Store, observers Observers, ttl time.Duration) KioskService {
	if ttl <= 0 {
		ttl = DefaultKioskSessionTTL
	}
	return &kioskService{
		store:     store,
		observers: observers.withDefaults(),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *kioskService) CreateSession(ctx context.Context) (*models.KioskSession, error) {
	now := s.now()
	session := &models.KioskSession{
		SessionID: uuid.NewString(),
		Status:    models.KioskSessionActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Kiosk().CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create kiosk session: %w", err)
	}
	utils.LogDebug("kiosk session created", map[string]interface{}{"session_id": session.SessionID})
	return session, nil
}

func (s *kioskService) Menu(ctx context.Context) (*models.KioskMenu, error) {
	products, err := s.store.Products().GetProducts(ctx, repositories.ProductFilter{
		Categories:  []models.ProductCategory{models.CategoryBeverage, models.CategoryFood},
		InStockOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load kiosk menu: %w", err)
	}
	menu := &models.KioskMenu{Beverages: []models.Product{}, Food: []models.Product{}}
	for _, p := range products {
		switch p.Category {
		case models.CategoryBeverage:
			menu.Beverages = append(menu.Beverages, p)
		case models.CategoryFood:
			menu.Food = append(menu.Food, p)
		}
	}
	return menu, nil
}

// lockMutableSession loads the session under its row lock and rejects expired or submitted ones.
func (s *kioskService) lockMutableSession(ctx context.Context, tx repositories.Store, sessionID string) (*models.KioskSession, error) {
	session, err := tx.Kiosk().GetSessionForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to fetch kiosk session: %w", err)
	}
	if session.Mutable(s.now()) {
		return session, nil
	}
	if session.Status != models.KioskSessionActive {
		return nil, fmt.Errorf("%w: %s already submitted", ErrSessionNotFound, sessionID)
	}
	return nil, fmt.Errorf("%w: %s expired at %s", ErrSessionNotFound, sessionID, session.ExpiresAt.Format(time.RFC3339))
}

func (s *kioskService) AddItem(ctx context.Context, sessionID string, req AddCartItemRequest) (*models.CartView, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > models.MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, models.MaxLineQuantity)
	}

	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		if _, err := s.lockMutableSession(ctx, tx, sessionID); err != nil {
			return err
		}
		product, err := tx.Products().GetProductByID(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrProductNotFound, req.ProductID)
			}
			return fmt.Errorf("failed to fetch product: %w", err)
		}
		if !product.Category.CustomerFacing() {
			return fmt.Errorf("%w: %s is %s", ErrProductNotSellable, product.Name, product.Category)
		}
		line := models.CartLine{ProductID: product.ID, Quantity: req.Quantity, Note: trimmedOrNil(req.Note)}
		if err := tx.Kiosk().AddCartLine(ctx, sessionID, line); err != nil {
			if errors.Is(err, repositories.ErrQuantityLimit) {
				return fmt.Errorf("%w: %s quantity would exceed %d", ErrValidation, product.Name, models.MaxLineQuantity)
			}
			return fmt.Errorf("failed to add cart line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ReadCart(ctx, sessionID)
}

func (s *kioskService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*models.CartView, error) {
	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		if _, err := s.lockMutableSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if err := tx.Kiosk().RemoveCartLine(ctx, sessionID, productID); err != nil {
			return fmt.Errorf("failed to remove cart line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ReadCart(ctx, sessionID)
}

func (s *kioskService) ReadCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	session, err := s.store.Kiosk().GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to fetch kiosk session: %w", err)
	}
	lines, err := s.store.Kiosk().GetCartLines(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	view := &models.CartView{
		SessionID: session.SessionID,
		Status:    session.Status,
		ExpiresAt: session.ExpiresAt,
		Lines:     make([]models.CartViewLine, 0, len(lines)),
		Total:     decimal.Zero,
	}
	for _, line := range lines {
		product, err := s.store.Products().GetProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to price cart line for product %d: %w", line.ProductID, err)
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		view.Lines = append(view.Lines, models.CartViewLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
			Note:        line.Note,
		})
		view.Total = view.Total.Add(subtotal)
		view.ItemCount += line.Quantity
	}
	return view, nil
}

func (s *kioskService) Submit(ctx context.Context, sessionID string, req SubmitKioskOrderRequest) (*models.Order, error) {
	order := &models.Order{
		Channel:      models.ChannelKiosk,
		CustomerName: trimmedOrNil(req.CustomerName),
		CreatedAt:    s.now(),
	}

	err := s.store.RunInTx(ctx, func(tx repositories.Store) error {
		if _, err := s.lockMutableSession(ctx, tx, sessionID); err != nil {
			return err
		}
		cart, err := tx.Kiosk().GetCartLines(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to fetch cart: %w", err)
		}
		if len(cart) == 0 {
			return fmt.Errorf("%w: session %s", ErrEmptyCart, sessionID)
		}

		reqs := make([]LineRequest, 0, len(cart))
		for _, line := range cart {
			reqs = append(reqs, LineRequest{ProductID: line.ProductID, Quantity: line.Quantity, Note: line.Note})
		}
		lines, total, err := priceLines(ctx, tx.Products(), reqs)
		if err != nil {
			return err
		}
		order.Lines = lines
		order.TotalBeforeDiscount = total

		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := tx.Kiosk().MarkSubmitted(ctx, sessionID, order.ID); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return fmt.Errorf("%w: %s already submitted", ErrSessionNotFound, sessionID)
			}
			return fmt.Errorf("failed to close kiosk session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := loadOrder(ctx, s.store, order.ID)
	if err != nil {
		return nil, err
	}
	s.observers.Metrics.OrderCreated(models.ChannelKiosk)
	s.observers.Notifier.KioskOrderSubmitted(created)
	utils.LogInfo("kiosk order submitted", map[string]interface{}{
		"order_id": created.ID, "order_number": created.OrderNumber, "session_id": sessionID,
	})
	return created, nil
}
