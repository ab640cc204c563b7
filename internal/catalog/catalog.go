// Package catalog owns the product table. The table is loaded once, mutated
// in memory during a checkout, and written back only at commit points.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"martcli/internal/auth"
	"martcli/internal/domain"
	"martcli/internal/logger"
	"martcli/internal/store"
)

// ErrAmountTooLarge marks a cost that would not fit in an int64. It always
// comes wrapped together with store.ErrInvalidInput.
var ErrAmountTooLarge = errors.New("amount too large")

type Catalog struct {
	repo     store.ProductStore
	products []domain.Product
	log      *zap.Logger
}

func New(repo store.ProductStore, log *zap.Logger) *Catalog {
	return &Catalog{repo: repo, log: logger.OrNop(log)}
}

// Load replaces the in-memory table with the stored catalog.
func (c *Catalog) Load(ctx context.Context) error {
	products, err := c.repo.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	c.products = products
	return nil
}

// Reload discards unflushed mutations.
func (c *Catalog) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

func (c *Catalog) Flush(ctx context.Context) error {
	if err := c.repo.ReplaceProducts(ctx, c.products); err != nil {
		return fmt.Errorf("flush products: %w", err)
	}
	return nil
}

// Snapshot copies the in-memory table.
func (c *Catalog) Snapshot() []domain.Product {
	return slices.Clone(c.products)
}

// Restore replaces both the in-memory table and storage with products.
func (c *Catalog) Restore(ctx context.Context, products []domain.Product) error {
	c.products = slices.Clone(products)
	if err := c.repo.ReplaceProducts(ctx, c.products); err != nil {
		return fmt.Errorf("restore products: %w", err)
	}
	return nil
}

func (c *Catalog) Products() iter.Seq[domain.Product] {
	return slices.Values(c.products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Find returns the first product whose name equals the lowercased query.
func (c *Catalog) Find(name string) (domain.Product, error) {
	idx := c.indexOf(name)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("product %q: %w", normalizeName(name), store.ErrNotFound)
	}
	return c.products[idx], nil
}

func (c *Catalog) AddProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	if _, err := auth.RequireRole(ctx, domain.RoleManager); err != nil {
		return domain.Product{}, err
	}

	name := normalizeName(in.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("product name is required: %w", store.ErrInvalidInput)
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return domain.Product{}, err
	}
	stock, err := parseQuantity("stock", in.Stock)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Name:      name,
		Price:     price,
		Unit:      strings.TrimSpace(in.Unit),
		Stock:     stock,
		SoldToday: 0,
	}
	if err := c.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	c.products = append(c.products, product)

	c.log.Info("product added",
		zap.String("product", product.Name),
		zap.Int64("price", product.Price),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

// UpdateProduct edits the first product matching name. Blank fields in upd
// keep their current value.
func (c *Catalog) UpdateProduct(ctx context.Context, name string, upd domain.ProductUpdate) (domain.Product, error) {
	if _, err := auth.RequireRole(ctx, domain.RoleManager); err != nil {
		return domain.Product{}, err
	}

	idx := c.indexOf(name)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("product %q: %w", normalizeName(name), store.ErrNotFound)
	}

	updated := c.products[idx]
	if strings.TrimSpace(upd.Price) != "" {
		price, err := parsePrice(upd.Price)
		if err != nil {
			return domain.Product{}, err
		}
		updated.Price = price
	}
	if unit := strings.TrimSpace(upd.Unit); unit != "" {
		updated.Unit = unit
	}
	if strings.TrimSpace(upd.Stock) != "" {
		stock, err := parseQuantity("stock", upd.Stock)
		if err != nil {
			return domain.Product{}, err
		}
		updated.Stock = stock
	}

	previous := c.products[idx]
	c.products[idx] = updated
	if err := c.Flush(ctx); err != nil {
		c.products[idx] = previous
		return domain.Product{}, err
	}

	c.log.Info("product updated", zap.String("product", updated.Name), zap.Int64("price", updated.Price), zap.Int("stock", updated.Stock))
	return updated, nil
}

func (c *Catalog) RemoveProduct(ctx context.Context, name string) (domain.Product, error) {
	if _, err := auth.RequireRole(ctx, domain.RoleManager); err != nil {
		return domain.Product{}, err
	}

	idx := c.indexOf(name)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("product %q: %w", normalizeName(name), store.ErrNotFound)
	}

	previous := c.products
	removed := c.products[idx]
	c.products = slices.Delete(slices.Clone(c.products), idx, idx+1)
	if err := c.Flush(ctx); err != nil {
		c.products = previous
		return domain.Product{}, err
	}

	c.log.Info("product removed", zap.String("product", removed.Name))
	return removed, nil
}

// ApplyPurchase takes qty units of the first matching product out of stock in
// memory and returns the line cost. Nothing changes when stock is short.
func (c *Catalog) ApplyPurchase(name string, qty int) (domain.CheckoutLine, error) {
	if qty < 1 {
		return domain.CheckoutLine{}, fmt.Errorf("quantity must be at least 1: %w", store.ErrInvalidInput)
	}
	idx := c.indexOf(name)
	if idx < 0 {
		return domain.CheckoutLine{}, fmt.Errorf("product %q: %w", normalizeName(name), store.ErrNotFound)
	}

	p := &c.products[idx]
	if qty > p.Stock {
		return domain.CheckoutLine{}, fmt.Errorf("%s: %d requested, %d in stock: %w", p.Name, qty, p.Stock, store.ErrInsufficientStock)
	}
	if !FitsCost(qty, p.Price, 0) {
		return domain.CheckoutLine{}, fmt.Errorf("%s x %d: %w: %w", p.Name, qty, ErrAmountTooLarge, store.ErrInvalidInput)
	}
	p.Stock -= qty
	p.SoldToday += qty

	return domain.CheckoutLine{
		Product: p.Name,
		Qty:     qty,
		Price:   p.Price,
		Cost:    int64(qty) * p.Price,
	}, nil
}

// FitsCost reports whether qty units at price can be added to total without
// overflowing int64.
func FitsCost(qty int, price int64, total int64) bool {
	if qty < 0 || price < 0 || total < 0 {
		return false
	}
	if price == 0 || qty == 0 {
		return true
	}
	if int64(qty) > math.MaxInt64/price {
		return false
	}
	return int64(qty)*price <= math.MaxInt64-total
}

func (c *Catalog) indexOf(name string) int {
	query := normalizeName(name)
	return slices.IndexFunc(c.products, func(p domain.Product) bool {
		return p.Name == query
	})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parsePrice(raw string) (int64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "$", ""))
	if !isDigits(cleaned) {
		return 0, fmt.Errorf("price must be a number: %w", store.ErrInvalidInput)
	}
	price, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("price out of range: %w", store.ErrInvalidInput)
	}
	return price, nil
}

func parseQuantity(field string, raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	if !isDigits(cleaned) {
		return 0, fmt.Errorf("%s must be a number: %w", field, store.ErrInvalidInput)
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%s out of range: %w", field, store.ErrInvalidInput)
	}
	return n, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
