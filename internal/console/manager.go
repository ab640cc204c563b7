package console

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"martcli/internal/auth"
	"martcli/internal/domain"
	"martcli/internal/store"
)

func (a *App) managerEntry(ctx context.Context) error {
	a.println("\n1. Login\n2. Register")
	choice, err := a.prompt(ctx, "Choose: ")
	if err != nil {
		return err
	}
	if choice == "2" {
		return a.registerManager(ctx)
	}

	exists, err := a.auth.ManagerExists(ctx)
	if err != nil {
		a.report("read managers", err)
		return nil
	}
	if !exists {
		a.println("No manager registered. Please register first.")
		return nil
	}

	name, err := a.prompt(ctx, "Manager name: ")
	if err != nil {
		return err
	}
	pin, err := a.prompt(ctx, "Pin: ")
	if err != nil {
		return err
	}
	session, err := a.auth.LoginManager(ctx, name, pin)
	switch {
	case errors.Is(err, store.ErrUnauthorized), errors.Is(err, store.ErrNotFound):
		a.println("Invalid credentials")
		return nil
	case err != nil:
		a.report("log in", err)
		return nil
	}

	a.log.Info("manager session opened", zap.String("manager", session.Actor.Name), zap.Time("expires_at", session.ExpiresAt))

	if err := a.load(ctx); err != nil {
		a.report("load store data", err)
		return nil
	}
	return a.managerMenu(ctx, session)
}

func (a *App) registerManager(ctx context.Context) error {
	exists, err := a.auth.ManagerExists(ctx)
	if err != nil {
		a.report("read managers", err)
		return nil
	}
	if exists {
		a.println("Manager already exists. Cannot register another.")
		return nil
	}

	name, err := a.prompt(ctx, "Enter manager name: ")
	if err != nil {
		return err
	}
	pin, err := a.prompt(ctx, "Enter 4-digit pin: ")
	if err != nil {
		return err
	}

	switch err := a.auth.RegisterManager(ctx, name, pin); {
	case errors.Is(err, store.ErrManagerExists):
		a.println("Manager already exists. Cannot register another.")
	case errors.Is(err, store.ErrInvalidInput):
		if name == "" {
			a.println("Manager name is required")
		} else {
			a.println("Pin must be 4 digits")
		}
	case err != nil:
		a.report("register manager", err)
	default:
		a.println("Manager registered successfully")
	}
	return nil
}

func (a *App) managerMenu(ctx context.Context, session auth.Session) error {
	for {
		a.println("\n--- MANAGER MENU ---")
		a.println("1. Add Product")
		a.println("2. View Products")
		a.println("3. Update Product")
		a.println("4. Remove Product")
		a.println("5. Wallet / Earnings")
		a.println("6. Manager Purchases")
		a.println("7. Back")
		choice, err := a.prompt(ctx, "Choose: ")
		if err != nil {
			return err
		}
		if choice == "7" {
			return nil
		}

		actorCtx, ok := a.managerContext(ctx, session)
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			err = a.addProduct(actorCtx)
		case "2":
			a.viewProducts()
		case "3":
			err = a.updateProduct(actorCtx)
		case "4":
			err = a.removeProduct(actorCtx)
		case "5":
			err = a.walletMenu(actorCtx)
		case "6":
			err = a.managerPurchases(actorCtx, session.Actor.Name)
		default:
			a.println("Invalid choice")
		}
		if err != nil {
			return err
		}
	}
}

// managerContext re-validates the session token and carries its actor. An
// expired session ends the manager menu.
func (a *App) managerContext(ctx context.Context, session auth.Session) (context.Context, bool) {
	actor, err := a.auth.ParseToken(session.Token)
	if err != nil {
		a.println("Session expired. Please log in again.")
		a.log.Info("manager session ended", zap.String("manager", session.Actor.Name), zap.Error(err))
		return ctx, false
	}
	return auth.WithActor(ctx, actor), true
}

func (a *App) addProduct(ctx context.Context) error {
	var in domain.ProductInput
	var err error
	if in.Name, err = a.prompt(ctx, "Product name: "); err != nil {
		return err
	}
	if in.Price, err = a.prompt(ctx, "Price in $ per unit: "); err != nil {
		return err
	}
	if in.Unit, err = a.prompt(ctx, "Unit (kg / piece): "); err != nil {
		return err
	}
	if in.Stock, err = a.prompt(ctx, "Stock quantity: "); err != nil {
		return err
	}

	product, err := a.catalog.AddProduct(ctx, in)
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		if in.Name == "" {
			a.println("Product name is required")
		} else {
			a.println("Price and stock must be numbers")
		}
	case err != nil:
		a.report("add product", err)
	default:
		a.printf("Product added successfully: %s $%d per %s, stock: %d\n", product.Name, product.Price, product.Unit, product.Stock)
	}
	return nil
}

func (a *App) viewProducts() {
	if a.catalog.Len() == 0 {
		a.println("No products found")
		return
	}
	a.println("\n--- PRODUCTS ---")
	for p := range a.catalog.Products() {
		a.println(catalogRow(p))
	}
}

func (a *App) updateProduct(ctx context.Context) error {
	name, err := a.prompt(ctx, "Product name: ")
	if err != nil {
		return err
	}
	if _, err := a.catalog.Find(name); err != nil {
		a.println("Product not found")
		return nil
	}

	var upd domain.ProductUpdate
	if upd.Price, err = a.prompt(ctx, "New price (blank to keep): "); err != nil {
		return err
	}
	if upd.Unit, err = a.prompt(ctx, "New unit (blank to keep): "); err != nil {
		return err
	}
	if upd.Stock, err = a.prompt(ctx, "New stock (blank to keep): "); err != nil {
		return err
	}

	product, err := a.catalog.UpdateProduct(ctx, name, upd)
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		a.println("Price and stock must be numbers")
	case errors.Is(err, store.ErrNotFound):
		a.println("Product not found")
	case err != nil:
		a.report("update product", err)
	default:
		a.println("Product updated: " + catalogRow(product))
	}
	return nil
}

func (a *App) removeProduct(ctx context.Context) error {
	name, err := a.prompt(ctx, "Product name: ")
	if err != nil {
		return err
	}

	product, err := a.catalog.RemoveProduct(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.println("Product not found")
	case err != nil:
		a.report("remove product", err)
	default:
		a.println("Product removed: " + product.Name)
	}
	return nil
}

// managerPurchases lists the logged manager's purchases on one date.
func (a *App) managerPurchases(ctx context.Context, manager string) error {
	records, err := a.purchases.ListManagerPurchases(ctx)
	if err != nil {
		a.report("read purchase records", err)
		return nil
	}
	if len(records) == 0 {
		a.println("No purchase records found.")
		return nil
	}

	date, err := a.prompt(ctx, "Enter date to view purchases (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	a.printf("\n--- Purchases by %s on %s ---\n", manager, date)

	matches := slices.DeleteFunc(records, func(p domain.ManagerPurchase) bool {
		return p.ManagerName != manager || p.Date != date
	})
	if len(matches) == 0 {
		a.println("No purchases found on this date.")
		return nil
	}
	for _, p := range matches {
		a.println(purchaseRow(p))
	}
	return nil
}
