package memory

import (
	"context"
	"fmt"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
)

type kioskRepo struct{ v *view }

func (r *kioskRepo) CreateSession(_ context.Context, session *models.KioskSession) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.sessions[session.SessionID]; ok {
			return fmt.Errorf("%w: session %s", repositories.ErrDuplicateKey, session.SessionID)
		}
		st.sessions[session.SessionID] = *session
		return nil
	})
}

func (r *kioskRepo) GetSession(_ context.Context, sessionID string) (*models.KioskSession, error) {
	var out models.KioskSession
	err := r.v.do(func(st *state) error {
		s, ok := st.sessions[sessionID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *kioskRepo) GetSessionForUpdate(ctx context.Context, sessionID string) (*models.KioskSession, error) {
	return r.GetSession(ctx, sessionID)
}

func (r *kioskRepo) GetCartLines(_ context.Context, sessionID string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := r.v.do(func(st *state) error {
		lines = append(lines, st.carts[sessionID]...)
		return nil
	})
	return lines, err
}

func (r *kioskRepo) AddCartLine(_ context.Context, sessionID string, line models.CartLine) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.sessions[sessionID]; !ok {
			return repositories.ErrNotFound
		}
		cart := st.carts[sessionID]
		maxPos := 0
		for i := range cart {
			if cart[i].ProductID == line.ProductID {
				if cart[i].Quantity+line.Quantity > models.MaxLineQuantity {
					return fmt.Errorf("%w: product %d in session %s", repositories.ErrQuantityLimit, line.ProductID, sessionID)
				}
				cart[i].Quantity += line.Quantity
				return nil
			}
			if cart[i].Position > maxPos {
				maxPos = cart[i].Position
			}
		}
		line.Position = maxPos + 1
		st.carts[sessionID] = append(cart, line)
		return nil
	})
}

func (r *kioskRepo) RemoveCartLine(_ context.Context, sessionID string, productID int64) error {
	return r.v.do(func(st *state) error {
		cart := st.carts[sessionID]
		kept := cart[:0]
		for _, l := range cart {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		st.carts[sessionID] = kept
		return nil
	})
}

func (r *kioskRepo) MarkSubmitted(_ context.Context, sessionID string, orderID int64) error {
	return r.v.do(func(st *state) error {
		s, ok := st.sessions[sessionID]
		if !ok || s.Status != models.KioskSessionActive {
			return repositories.ErrConflict
		}
		s.Status = models.KioskSessionSubmitted
		s.OrderID = &orderID
		st.sessions[sessionID] = s
		return nil
	})
}
