package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"martcli/internal/domain"
	"martcli/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS managers (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	pin  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS customers (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS products (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	price      BIGINT NOT NULL CHECK (price >= 0),
	unit       TEXT NOT NULL,
	stock      INTEGER NOT NULL CHECK (stock >= 0),
	sold_today INTEGER NOT NULL CHECK (sold_today >= 0)
);
CREATE TABLE IF NOT EXISTS sales (
	id        BIGSERIAL PRIMARY KEY,
	sale_date DATE NOT NULL,
	amount    BIGINT NOT NULL CHECK (amount >= 0)
);
CREATE TABLE IF NOT EXISTS manager_purchases (
	id            BIGSERIAL PRIMARY KEY,
	manager_name  TEXT NOT NULL,
	purchase_date TEXT NOT NULL,
	product       TEXT NOT NULL,
	quantity      INTEGER NOT NULL,
	total_cost    BIGINT NOT NULL
);
`

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListManagers(ctx context.Context) ([]domain.Manager, error) {
	managers := make([]domain.Manager, 0, 1)
	if err := s.db.SelectContext(ctx, &managers, `SELECT name, pin FROM managers ORDER BY id`); err != nil {
		return nil, err
	}
	return managers, nil
}

func (s *Store) CreateManager(ctx context.Context, manager domain.Manager) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO managers (name, pin) VALUES (:name, :pin)`, manager)
	return err
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, 16)
	if err := s.db.SelectContext(ctx, &customers, `SELECT name FROM customers ORDER BY id`); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO customers (name) VALUES (:name)`, customer)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	err := s.db.SelectContext(ctx, &products, `
		SELECT name, price, unit, stock, sold_today
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO products (name, price, unit, stock, sold_today)
		VALUES (:name, :price, :unit, :stock, :sold_today)
	`, product)
	return err
}

// ReplaceProducts rewrites the catalog in one transaction, keeping the given
// order as the id order.
func (s *Store) ReplaceProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO products (name, price, unit, stock, sold_today)
			VALUES (:name, :price, :unit, :stock, :sold_today)
		`, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 128)
	if err := s.db.SelectContext(ctx, &sales, `SELECT sale_date, amount FROM sales ORDER BY id`); err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Date = domain.CalendarDate(sales[i].Date)
	}
	return sales, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sales (sale_date, amount) VALUES ($1, $2)`,
		sale.Date.Format(domain.DateLayout), sale.Amount)
	return err
}

func (s *Store) ListManagerPurchases(ctx context.Context) ([]domain.ManagerPurchase, error) {
	purchases := make([]domain.ManagerPurchase, 0, 32)
	err := s.db.SelectContext(ctx, &purchases, `
		SELECT manager_name, purchase_date, product, quantity, total_cost
		FROM manager_purchases
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) CreateManagerPurchase(ctx context.Context, purchase domain.ManagerPurchase) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO manager_purchases (manager_name, purchase_date, product, quantity, total_cost)
		VALUES (:manager_name, :purchase_date, :product, :quantity, :total_cost)
	`, purchase)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
