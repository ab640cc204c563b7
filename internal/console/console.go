// Package console drives martcli's numbered menus over a line-oriented
// reader and writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"martcli/internal/auth"
	"martcli/internal/catalog"
	"martcli/internal/domain"
	"martcli/internal/export"
	"martcli/internal/ledger"
	"martcli/internal/logger"
	"martcli/internal/store"
)

type Deps struct {
	Auth      *auth.Authenticator
	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Purchases store.PurchaseLogStore
	Exporter  *export.Exporter
	Now       func() time.Time
	Log       *zap.Logger
}

type App struct {
	in        *bufio.Scanner
	out       io.Writer
	auth      *auth.Authenticator
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	purchases store.PurchaseLogStore
	exporter  *export.Exporter
	now       func() time.Time
	log       *zap.Logger
}

func New(in io.Reader, out io.Writer, deps Deps) *App {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		in:        bufio.NewScanner(in),
		out:       out,
		auth:      deps.Auth,
		catalog:   deps.Catalog,
		ledger:    deps.Ledger,
		purchases: deps.Purchases,
		exporter:  deps.Exporter,
		now:       now,
		log:       logger.OrNop(deps.Log),
	}
}

// Run shows the main menu until the user exits, input ends or ctx is
// cancelled. All three end the program normally.
func (a *App) Run(ctx context.Context) error {
	err := a.mainMenu(ctx)
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) mainMenu(ctx context.Context) error {
	for {
		a.println("\n===== MAIN MENU =====")
		a.println("1. Manager\n2. Customer\n3. Exit")
		choice, err := a.prompt(ctx, "Choose: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = a.managerEntry(ctx)
		case "2":
			err = a.customerEntry(ctx)
		case "3":
			a.println("Goodbye!")
			return nil
		default:
			a.println("Invalid choice")
		}
		if err != nil {
			return err
		}
	}
}

// load refreshes the catalog and ledger from storage at the start of a
// session, so edits made by another process between sessions are seen.
func (a *App) load(ctx context.Context) error {
	if err := a.catalog.Load(ctx); err != nil {
		return err
	}
	return a.ledger.Load(ctx)
}

// prompt writes label and reads one trimmed line. It returns io.EOF when
// input is exhausted and ctx's error once ctx is done, so no menu acts on
// input read after an interrupt.
func (a *App) prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(a.in.Text()), nil
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints a storage or parse failure and logs it. The caller returns
// to its enclosing menu.
func (a *App) report(action string, err error) {
	var parseErr *store.ParseError
	if errors.As(err, &parseErr) {
		a.printf("Data file is damaged: %v\n", parseErr)
	} else {
		a.printf("Could not %s: %v\n", action, err)
	}
	a.log.Warn("console action failed", zap.String("action", action), zap.Error(err))
}

func catalogRow(p domain.Product) string {
	return fmt.Sprintf("%s | $%d per %s | Stock: %d | Sold today: %d", p.Name, p.Price, p.Unit, p.Stock, p.SoldToday)
}

func checkoutRow(p domain.Product) string {
	return fmt.Sprintf("%s | $%d per %s | Stock: %d", p.Name, p.Price, p.Unit, p.Stock)
}

func dailyRow(d domain.DailyTotal) string {
	return fmt.Sprintf("%s: $%d", d.Date, d.Amount)
}

func purchaseRow(p domain.ManagerPurchase) string {
	return fmt.Sprintf("Product: %s, Quantity: %d, Total Cost: %d", p.Product, p.Quantity, p.TotalCost)
}
