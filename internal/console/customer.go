package console

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"martcli/internal/catalog"
	"martcli/internal/checkout"
	"martcli/internal/domain"
	"martcli/internal/store"
)

func (a *App) customerEntry(ctx context.Context) error {
	a.println("\n1. Login\n2. Register")
	choice, err := a.prompt(ctx, "Choose: ")
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		return a.customerLogin(ctx)
	case "2":
		return a.registerCustomer(ctx)
	default:
		a.println("Invalid choice")
		return nil
	}
}

func (a *App) registerCustomer(ctx context.Context) error {
	name, err := a.prompt(ctx, "Enter name to register: ")
	if err != nil {
		return err
	}
	switch err := a.auth.RegisterCustomer(ctx, name); {
	case errors.Is(err, store.ErrAlreadyRegistered):
		a.println("Already registered")
	case errors.Is(err, store.ErrInvalidInput):
		a.println("Name is required")
	case err != nil:
		a.report("register customer", err)
	default:
		a.println("Registration successful")
	}
	return nil
}

func (a *App) customerLogin(ctx context.Context) error {
	name, err := a.prompt(ctx, "Enter your name: ")
	if err != nil {
		return err
	}
	actor, err := a.auth.LoginCustomer(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.println("User not found. Please register first.")
		return nil
	case err != nil:
		a.report("log in", err)
		return nil
	}
	a.println("Login successful")

	if err := a.load(ctx); err != nil {
		a.report("load store data", err)
		return nil
	}
	return a.buyProducts(ctx, actor)
}

func (a *App) buyProducts(ctx context.Context, customer domain.Actor) error {
	if a.catalog.Len() == 0 {
		a.println("No products available")
		return nil
	}

	session := checkout.NewSession(a.catalog, a.ledger, customer.Name, a.log)
	if err := a.collectLines(ctx, session); err != nil {
		a.discard(ctx, session)
		return err
	}

	a.printf("Total bill: $%d\n", session.Finish())
	payment, err := a.promptPayment(ctx)
	if err != nil {
		a.discard(ctx, session)
		return err
	}

	receipt, err := session.Pay(ctx, payment, a.now())
	switch {
	case errors.Is(err, store.ErrInsufficientPayment):
		a.println("Not enough money")
	case err != nil:
		a.report("complete checkout", err)
	default:
		a.printf("Payment successful. Change: $%d\n", receipt.Change)
	}
	return nil
}

// discard cancels an unfinished checkout. It still runs after an interrupt,
// so the reload is detached from ctx cancellation.
func (a *App) discard(ctx context.Context, session *checkout.Session) {
	if err := session.Cancel(context.WithoutCancel(ctx)); err != nil {
		a.report("discard checkout", err)
	}
}

// collectLines loops over product lines until the customer declines to buy
// more.
func (a *App) collectLines(ctx context.Context, session *checkout.Session) error {
	for {
		a.println("\nAvailable products:")
		for p := range a.catalog.Products() {
			a.println(checkoutRow(p))
		}

		name, err := a.prompt(ctx, "Product name: ")
		if err != nil {
			return err
		}
		if _, err := session.Select(name); err != nil {
			a.println("Product not found")
		} else if err := a.promptQuantity(ctx, session); err != nil {
			return err
		}

		more, err := a.prompt(ctx, "Buy more? (yes/no): ")
		if err != nil {
			return err
		}
		if strings.ToLower(more) != "yes" {
			return nil
		}
	}
}

func (a *App) promptQuantity(ctx context.Context, session *checkout.Session) error {
	raw, err := a.prompt(ctx, "Quantity: ")
	if err != nil {
		return err
	}
	qty, convErr := strconv.Atoi(raw)
	if convErr != nil || qty < 1 {
		a.println("Quantity must be a positive number")
		return nil
	}

	switch _, err := session.Quantity(qty); {
	case errors.Is(err, store.ErrInsufficientStock):
		a.println("Not enough stock")
	case errors.Is(err, catalog.ErrAmountTooLarge):
		a.println("Total is too large")
	case err != nil:
		a.println("Quantity must be a positive number")
	}
	return nil
}

// promptPayment asks until a whole, non-negative amount is entered.
func (a *App) promptPayment(ctx context.Context) (int64, error) {
	for {
		raw, err := a.prompt(ctx, "Payment ($): ")
		if err != nil {
			return 0, err
		}
		payment, convErr := strconv.ParseInt(strings.TrimPrefix(raw, "$"), 10, 64)
		if convErr == nil && payment >= 0 {
			return payment, nil
		}
		a.println("Payment must be a number")
	}
}
