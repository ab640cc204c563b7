package store

import (
	"context"
	"errors"
	"fmt"

	"martcli/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrManagerExists       = errors.New("manager already exists")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrMalformedRecord     = errors.New("malformed record")
)

// ParseError reports a stored row that does not match its entity schema.
type ParseError struct {
	Source string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: %s: %s", e.Source, e.Line, ErrMalformedRecord, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedRecord
}

type ManagerStore interface {
	ListManagers(ctx context.Context) ([]domain.Manager, error)
	CreateManager(ctx context.Context, manager domain.Manager) error
}

type CustomerStore interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) error
}

type ProductStore interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	ReplaceProducts(ctx context.Context, products []domain.Product) error
}

type SaleStore interface {
	ListSales(ctx context.Context) ([]domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) error
}

type PurchaseLogStore interface {
	ListManagerPurchases(ctx context.Context) ([]domain.ManagerPurchase, error)
	CreateManagerPurchase(ctx context.Context, purchase domain.ManagerPurchase) error
}

type Repository interface {
	ManagerStore
	CustomerStore
	ProductStore
	SaleStore
	PurchaseLogStore
}
