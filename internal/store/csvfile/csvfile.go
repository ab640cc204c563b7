package csvfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"martcli/internal/domain"
	"martcli/internal/store"
)

const (
	ManagersFile        = "managers.csv"
	CustomersFile       = "customers.csv"
	ProductsFile        = "products.csv"
	SalesFile           = "sales.csv"
	ManagerPurchaseFile = "manager_buy.csv"
)

// Store keeps each entity collection in its own CSV file under one directory.
// Every call reads or writes the file directly; callers own any in-memory
// snapshot.
type Store struct {
	managers  Table
	customers Table
	products  Table
	sales     Table
	purchases Table
}

func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare data dir %s: %w", dir, err)
	}

	return &Store{
		managers:  NewTable(filepath.Join(dir, ManagersFile), 2),
		customers: NewTable(filepath.Join(dir, CustomersFile), 1),
		products:  NewTable(filepath.Join(dir, ProductsFile), 5),
		sales:     NewTable(filepath.Join(dir, SalesFile), 2),
		purchases: NewTable(filepath.Join(dir, ManagerPurchaseFile), 5),
	}, nil
}

func (s *Store) ListManagers(_ context.Context) ([]domain.Manager, error) {
	rows, err := s.managers.ReadAll()
	if err != nil {
		return nil, err
	}
	managers := make([]domain.Manager, 0, len(rows))
	for _, row := range rows {
		managers = append(managers, domain.Manager{Name: row[0], PIN: row[1]})
	}
	return managers, nil
}

func (s *Store) CreateManager(_ context.Context, manager domain.Manager) error {
	return s.managers.Append([]string{manager.Name, manager.PIN})
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	rows, err := s.customers.ReadAll()
	if err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, domain.Customer{Name: row[0]})
	}
	return customers, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) error {
	return s.customers.Append([]string{customer.Name})
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	err := s.products.Scan(func(line int, row []string) error {
		product, err := decodeProduct(row)
		if err != nil {
			return &store.ParseError{Source: ProductsFile, Line: line, Reason: err.Error()}
		}
		products = append(products, product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) error {
	return s.products.Append(encodeProduct(product))
}

func (s *Store) ReplaceProducts(_ context.Context, products []domain.Product) error {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, encodeProduct(p))
	}
	return s.products.Overwrite(rows)
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 128)
	err := s.sales.Scan(func(line int, row []string) error {
		date, err := time.Parse(domain.DateLayout, row[0])
		if err != nil {
			return &store.ParseError{Source: SalesFile, Line: line, Reason: fmt.Sprintf("date %q", row[0])}
		}
		amount, err := parseCount(row[1])
		if err != nil {
			return &store.ParseError{Source: SalesFile, Line: line, Reason: fmt.Sprintf("amount %q", row[1])}
		}
		sales = append(sales, domain.Sale{Date: date, Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) error {
	return s.sales.Append([]string{sale.Date.Format(domain.DateLayout), strconv.FormatInt(sale.Amount, 10)})
}

func (s *Store) ListManagerPurchases(_ context.Context) ([]domain.ManagerPurchase, error) {
	purchases := make([]domain.ManagerPurchase, 0, 32)
	err := s.purchases.Scan(func(line int, row []string) error {
		qty, err := parseCount(row[3])
		if err != nil {
			return &store.ParseError{Source: ManagerPurchaseFile, Line: line, Reason: fmt.Sprintf("quantity %q", row[3])}
		}
		cost, err := parseCount(row[4])
		if err != nil {
			return &store.ParseError{Source: ManagerPurchaseFile, Line: line, Reason: fmt.Sprintf("total cost %q", row[4])}
		}
		purchases = append(purchases, domain.ManagerPurchase{
			ManagerName: row[0],
			Date:        row[1],
			Product:     row[2],
			Quantity:    int(qty),
			TotalCost:   cost,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) CreateManagerPurchase(_ context.Context, purchase domain.ManagerPurchase) error {
	return s.purchases.Append([]string{
		purchase.ManagerName,
		purchase.Date,
		purchase.Product,
		strconv.Itoa(purchase.Quantity),
		strconv.FormatInt(purchase.TotalCost, 10),
	})
}

func encodeProduct(p domain.Product) []string {
	return []string{
		p.Name,
		strconv.FormatInt(p.Price, 10),
		p.Unit,
		strconv.Itoa(p.Stock),
		strconv.Itoa(p.SoldToday),
	}
}

func decodeProduct(row []string) (domain.Product, error) {
	price, err := parseCount(row[1])
	if err != nil {
		return domain.Product{}, fmt.Errorf("price %q", row[1])
	}
	stock, err := parseCount(row[3])
	if err != nil {
		return domain.Product{}, fmt.Errorf("stock %q", row[3])
	}
	sold, err := parseCount(row[4])
	if err != nil {
		return domain.Product{}, fmt.Errorf("sold today %q", row[4])
	}
	return domain.Product{
		Name:      row[0],
		Price:     price,
		Unit:      row[2],
		Stock:     int(stock),
		SoldToday: int(sold),
	}, nil
}

// parseCount accepts only unsigned decimal digits.
func parseCount(raw string) (int64, error) {
	if raw == "" {
		return 0, store.ErrMalformedRecord
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, store.ErrMalformedRecord
		}
	}
	return strconv.ParseInt(raw, 10, 64)
}
