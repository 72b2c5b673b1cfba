package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kohisync_backend/internal/models"
)

type kioskSessionRepository struct {
	db SQLExecutor
}

func (r *kioskSessionRepository) CreateSession(ctx context.Context, session *models.KioskSession) error {
	query := `INSERT INTO kiosk_sessions (session_id, status, created_at, expires_at)
	          VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query,
		session.SessionID, string(session.Status), session.CreatedAt, session.ExpiresAt,
	); err != nil {
		return fmt.Errorf("%w: creating kiosk session: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *kioskSessionRepository) getSession(ctx context.Context, sessionID string, lock bool) (*models.KioskSession, error) {
	session := &models.KioskSession{}
	query := `SELECT session_id, status, order_id, created_at, expires_at
	          FROM kiosk_sessions WHERE session_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var status string
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.SessionID, &status, &session.OrderID, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting kiosk session %s: %v", ErrDatabaseError, sessionID, err)
	}
	session.Status = models.KioskSessionStatus(status)
	return session, nil
}

func (r *kioskSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.KioskSession, error) {
	return r.getSession(ctx, sessionID, false)
}

func (r *kioskSessionRepository) GetSessionForUpdate(ctx context.Context, sessionID string) (*models.KioskSession, error) {
	return r.getSession(ctx, sessionID, true)
}

func (r *kioskSessionRepository) GetCartLines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	query := `SELECT product_id, quantity, note, position
	          FROM kiosk_cart_lines WHERE session_id = $1
	          ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying cart of session %s: %v", ErrDatabaseError, sessionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Note, &line.Position); err != nil {
			return nil, fmt.Errorf("%w: scanning cart line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating cart lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

func (r *kioskSessionRepository) AddCartLine(ctx context.Context, sessionID string, line models.CartLine) error {
	// A repeated product keeps its original position and note; only the quantity grows.
	query := `INSERT INTO kiosk_cart_lines (session_id, product_id, quantity, note, position)
	          VALUES ($1, $2, $3, $4,
	                  (SELECT COALESCE(MAX(position), 0) + 1 FROM kiosk_cart_lines WHERE session_id = $1))
	          ON CONFLICT (session_id, product_id)
	          DO UPDATE SET quantity = kiosk_cart_lines.quantity + EXCLUDED.quantity
	          WHERE kiosk_cart_lines.quantity + EXCLUDED.quantity <= $5`
	result, err := r.db.ExecContext(ctx, query, sessionID, line.ProductID, line.Quantity, line.Note, models.MaxLineQuantity)
	if err != nil {
		return fmt.Errorf("%w: adding product %d to session %s: %v", ErrDatabaseError, line.ProductID, sessionID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking cart update for session %s: %v", ErrDatabaseError, sessionID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d in session %s", ErrQuantityLimit, line.ProductID, sessionID)
	}
	return nil
}

func (r *kioskSessionRepository) RemoveCartLine(ctx context.Context, sessionID string, productID int64) error {
	query := `DELETE FROM kiosk_cart_lines WHERE session_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, sessionID, productID); err != nil {
		return fmt.Errorf("%w: removing product %d from session %s: %v", ErrDatabaseError, productID, sessionID, err)
	}
	return nil
}

func (r *kioskSessionRepository) MarkSubmitted(ctx context.Context, sessionID string, orderID int64) error {
	query := `UPDATE kiosk_sessions SET status = 'submitted', order_id = $1
	          WHERE session_id = $2 AND status = 'active'`
	result, err := r.db.ExecContext(ctx, query, orderID, sessionID)
	if err != nil {
		return fmt.Errorf("%w: submitting session %s: %v", ErrDatabaseError, sessionID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
