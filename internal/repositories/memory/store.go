// Package memory is an in-process Store used for demos and tests. A transaction holds the
// store lock, works on a copy of the state and swaps it in only when fn succeeds.
package memory

import (
	"context"
	"sync"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
)

type state struct {
	products      map[int64]models.Product
	nextProductID int64

	orders      map[int64]models.Order
	orderLines  map[int64][]models.OrderLine
	nextOrderID int64
	nextLineID  int64
	orderSeq    int64

	adjustments      []models.InventoryAdjustment
	nextAdjustmentID int64

	sessions map[string]models.KioskSession
	carts    map[string][]models.CartLine

	daily map[string]models.DailyAggregate

	users      map[int64]models.User
	nextUserID int64
}

func newState() *state {
	return &state{
		products:   map[int64]models.Product{},
		orders:     map[int64]models.Order{},
		orderLines: map[int64][]models.OrderLine{},
		sessions:   map[string]models.KioskSession{},
		carts:      map[string][]models.CartLine{},
		daily:      map[string]models.DailyAggregate{},
		users:      map[int64]models.User{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.products = make(map[int64]models.Product, len(s.products))
	for k, v := range s.products {
		c.products[k] = v
	}
	c.orders = make(map[int64]models.Order, len(s.orders))
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.orderLines = make(map[int64][]models.OrderLine, len(s.orderLines))
	for k, v := range s.orderLines {
		c.orderLines[k] = append([]models.OrderLine(nil), v...)
	}
	c.adjustments = append([]models.InventoryAdjustment(nil), s.adjustments...)
	c.sessions = make(map[string]models.KioskSession, len(s.sessions))
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	c.carts = make(map[string][]models.CartLine, len(s.carts))
	for k, v := range s.carts {
		c.carts[k] = append([]models.CartLine(nil), v...)
	}
	c.daily = make(map[string]models.DailyAggregate, len(s.daily))
	for k, v := range s.daily {
		c.daily[k] = v
	}
	c.users = make(map[int64]models.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = v
	}
	return &c
}

// Store implements repositories.Store on mutex-guarded maps.
type Store struct {
	mu sync.Mutex
	st *state
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// view binds repositories either to the shared state (locking per call) or to a tx copy.
type view struct {
	root *Store
	st   *state
	inTx bool
}

func (v *view) do(fn func(st *state) error) error {
	if v.inTx {
		return fn(v.st)
	}
	v.root.mu.Lock()
	defer v.root.mu.Unlock()
	return fn(v.root.st)
}

func (s *Store) base() *view { return &view{root: s} }

func (s *Store) Products() repositories.ProductRepository { return &productRepo{s.base()} }
func (s *Store) Orders() repositories.OrderRepository     { return &orderRepo{s.base()} }
func (s *Store) Adjustments() repositories.InventoryAdjustmentRepository {
	return &adjustmentRepo{s.base()}
}
func (s *Store) Kiosk() repositories.KioskSessionRepository  { return &kioskRepo{s.base()} }
func (s *Store) Reports() repositories.DailyReportRepository { return &reportRepo{s.base()} }
func (s *Store) Users() repositories.UserRepository          { return &userRepo{s.base()} }

func (s *Store) RunInTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txStore{v: &view{root: s, st: work, inTx: true}}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type txStore struct {
	v *view
}

func (t *txStore) Products() repositories.ProductRepository { return &productRepo{t.v} }
func (t *txStore) Orders() repositories.OrderRepository     { return &orderRepo{t.v} }
func (t *txStore) Adjustments() repositories.InventoryAdjustmentRepository {
	return &adjustmentRepo{t.v}
}
func (t *txStore) Kiosk() repositories.KioskSessionRepository  { return &kioskRepo{t.v} }
func (t *txStore) Reports() repositories.DailyReportRepository { return &reportRepo{t.v} }
func (t *txStore) Users() repositories.UserRepository          { return &userRepo{t.v} }

func (t *txStore) RunInTx(_ context.Context, fn func(tx repositories.Store) error) error {
	return fn(t)
}
