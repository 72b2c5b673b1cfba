package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type pgStore struct {
	db   *sql.DB
	exec SQLExecutor
	inTx bool
}

// NewPostgresStore creates a Store backed by a PostgreSQL connection pool.
func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db, exec: db}
}

func (s *pgStore) Products() ProductRepository {
	return &productRepository{db: s.exec}
}

func (s *pgStore) Orders() OrderRepository {
	return &orderRepository{db: s.exec}
}

func (s *pgStore) Adjustments() InventoryAdjustmentRepository {
	return &inventoryAdjustmentRepository{db: s.exec}
}

func (s *pgStore) Kiosk() KioskSessionRepository {
	return &kioskSessionRepository{db: s.exec}
}

func (s *pgStore) Reports() DailyReportRepository {
	return &dailyReportRepository{db: s.exec}
}

func (s *pgStore) Users() UserRepository {
	return &userRepository{db: s.exec}
}

func (s *pgStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(&pgStore{db: s.db, exec: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
