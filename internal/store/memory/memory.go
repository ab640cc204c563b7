package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"martcli/internal/domain"
)

type Store struct {
	mu        sync.RWMutex
	managers  []domain.Manager
	customers []domain.Customer
	products  []domain.Product
	sales     []domain.Sale
	purchases []domain.ManagerPurchase
}

func New() *Store {
	return &Store{
		managers:  make([]domain.Manager, 0, 1),
		customers: make([]domain.Customer, 0, 16),
		products:  make([]domain.Product, 0, 32),
		sales:     make([]domain.Sale, 0, 64),
		purchases: make([]domain.ManagerPurchase, 0, 16),
	}
}

// NewSeeded returns a store with a small demo catalog and a few sales spread
// over the last weeks relative to now.
func NewSeeded(now time.Time) *Store {
	s := New()
	s.products = append(s.products,
		domain.Product{Name: "rice", Price: 10, Unit: "kg", Stock: 100},
		domain.Product{Name: "sugar", Price: 8, Unit: "kg", Stock: 60},
		domain.Product{Name: "eggs", Price: 3, Unit: "piece", Stock: 240},
		domain.Product{Name: "milk", Price: 5, Unit: "piece", Stock: 48},
	)

	today := domain.CalendarDate(now)
	s.sales = append(s.sales,
		domain.Sale{Date: today.AddDate(0, 0, -20), Amount: 120},
		domain.Sale{Date: today.AddDate(0, 0, -3), Amount: 45},
		domain.Sale{Date: today, Amount: 30},
	)
	return s
}

func (s *Store) ListManagers(_ context.Context) ([]domain.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.managers), nil
}

func (s *Store) CreateManager(_ context.Context, manager domain.Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers = append(s.managers, manager)
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.customers), nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, customer)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products), nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, product)
	return nil
}

func (s *Store) ReplaceProducts(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = slices.Clone(products)
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sales), nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
	return nil
}

func (s *Store) ListManagerPurchases(_ context.Context) ([]domain.ManagerPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.purchases), nil
}

func (s *Store) CreateManagerPurchase(_ context.Context, purchase domain.ManagerPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, purchase)
	return nil
}
